// Package room implements C3, the RoomRegistry: the authoritative
// in-memory index of live rooms and participants, their lifecycle
// transitions, and reaping (§4.1).
package room

import (
	"sync"
	"time"

	"github.com/corsairlabs/meetcore/internal/callstore"
)

// RoleType is a tagged variant over participant roles (§9 design notes:
// represent role polymorphism as tagged variants, not subclass trees).
type RoleType string

const (
	RoleHost        RoleType = "host"
	RoleModerator   RoleType = "moderator"
	RoleParticipant RoleType = "participant"
	RoleGuest       RoleType = "guest"
)

// MediaState is the tri-state audio/video/screen flags on a Participant.
type MediaState struct {
	Audio  bool `json:"audio"`
	Video  bool `json:"video"`
	Screen bool `json:"screen"`
}

// UserIdent is the external User snapshot injected by C1 (§3). The
// registry never mutates it.
type UserIdent struct {
	UserID      string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// Participant is a user's presence in a Room (§3).
type Participant struct {
	PeerID      string     `json:"peerId"`
	UserID      string     `json:"userId"`
	SocketID    string     `json:"socketId"`
	User        UserIdent  `json:"user"`
	Role        RoleType   `json:"role"`
	JoinedAt    time.Time  `json:"joinedAt"`
	LeftAt      *time.Time `json:"leftAt,omitempty"`
	IsConnected bool       `json:"isConnected"`
	MediaState  MediaState `json:"mediaState"`
}

// Settings is the subset of the call record exposed to clients on join.
type Settings struct {
	Name            string             `json:"name"`
	IsPrivate       bool               `json:"isPrivate"`
	MaxParticipants int                `json:"maxParticipants"`
	CallType        callstore.CallType `json:"-"`
}

// Status mirrors the Room lifecycle (§3).
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusLive    Status = "live"
	StatusEnded   Status = "ended"
)

// Room is the in-memory authority for one live session (§3, invariants
// R1-R3).
type Room struct {
	mu sync.Mutex

	RoomID     string
	CallID     string
	HostUserID string
	Settings   Settings
	CreatedAt  time.Time
	Status     Status

	participants map[string]*Participant // by peerId
	byUserID     map[string]string       // userId -> peerId, secondary index

	reapTimers map[string]*time.Timer // peerId -> pending reap
}

func newRoom(roomID, callID, hostUserID string, settings Settings) *Room {
	return &Room{
		RoomID:       roomID,
		CallID:       callID,
		HostUserID:   hostUserID,
		Settings:     settings,
		CreatedAt:    time.Now(),
		Status:       StatusWaiting,
		participants: make(map[string]*Participant),
		byUserID:     make(map[string]string),
		reapTimers:   make(map[string]*time.Timer),
	}
}

// connectedCount returns the number of currently connected participants.
// Caller must hold r.mu.
func (r *Room) connectedCount() int {
	n := 0
	for _, p := range r.participants {
		if p.IsConnected {
			n++
		}
	}
	return n
}

// snapshotLocked returns a defensive copy of every participant, for broadcasting
// or building a join response. Caller must hold r.mu (or call via
// SnapshotParticipants which takes the lock itself).
func (r *Room) snapshotLocked() []Participant {
	out := make([]Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, *p)
	}
	return out
}

// SnapshotParticipants returns a defensive copy of every participant.
func (r *Room) SnapshotParticipants() []Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}
