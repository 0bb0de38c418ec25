// Package apperr defines the error taxonomy surfaced to clients across the
// room, media, and signaling packages as a {message, code} envelope.
package apperr

import (
	"errors"
	"fmt"
)

// Code is one of the stable error codes in the §7 error taxonomy.
type Code string

const (
	AuthenticationFailed Code = "AuthenticationFailed"
	RoomNotFound         Code = "RoomNotFound"
	InvalidPasscode      Code = "InvalidPasscode"
	RoomFull             Code = "RoomFull"
	NotInvited           Code = "NotInvited"
	HostRequired         Code = "HostRequired"
	PeerUnreachable      Code = "PeerUnreachable"
	Unconsumable         Code = "Unconsumable"
	RateLimited          Code = "RateLimited"
	Internal             Code = "Internal"
	// Ended is returned by join when the call's status is already
	// terminal (§4.1); the §7 table groups it under RoomNotFound-style
	// handling but the join contract names it distinctly, so it is kept
	// as its own wire code here.
	Ended Code = "Ended"
)

// Error is a coded application error. Only Message and Code ever cross the
// wire; anything else collapses to Internal with a correlation id logged
// server-side.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// clientSafeInternalMessage is sent in place of the real error for any
// Internal-coded error, never the underlying cause or Message — §7:
// "Internal errors are logged with a correlation id but not exposed
// verbatim."
const clientSafeInternalMessage = "an internal error occurred"

// ClientMessage returns the text safe to send across the wire for err: the
// generic internal message for Internal-coded (or untagged) errors, and the
// tagged Message otherwise — never the wrapped cause, which is for
// server-side logging only via Error().
func ClientMessage(err error) string {
	var appErr *Error
	if !errors.As(err, &appErr) || appErr.Code == Internal {
		return clientSafeInternalMessage
	}
	return appErr.Message
}

// New constructs a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap constructs a coded error carrying an underlying cause, for logging.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// CodeOf extracts the wire code for an error, defaulting to Internal for
// anything that isn't a tagged *Error.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return Internal
}
