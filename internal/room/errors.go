package room

import "github.com/corsairlabs/meetcore/internal/apperr"

func errRoomNotFound() error {
	return apperr.New(apperr.RoomNotFound, "room not found")
}

func errInvalidPasscode() error {
	return apperr.New(apperr.InvalidPasscode, "passcode does not match")
}

func errRoomFull() error {
	return apperr.New(apperr.RoomFull, "room has reached its participant cap")
}

func errNotInvited() error {
	return apperr.New(apperr.NotInvited, "user is not on the invite list")
}

func errEnded() error {
	return apperr.New(apperr.Ended, "call has ended")
}

func errHostRequired() error {
	return apperr.New(apperr.HostRequired, "operation requires the host")
}
