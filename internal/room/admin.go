package room

import "k8s.io/utils/set"

// Summary is a bounded, read-only snapshot used by admin/diagnostic
// callbacks (§4.2 "admin:get-room-stats", "admin:get-all-rooms"). It never
// exposes secrets (no passcode, no raw socket ids).
type Summary struct {
	RoomID            string         `json:"roomId"`
	Status            Status         `json:"status"`
	ParticipantCount  int            `json:"participantCount"`
	RoleBreakdown     map[string]int `json:"roleBreakdown"`
	DistinctRoleCount int            `json:"distinctRoleCount"`
	HostUserID        string         `json:"hostUserId"`
}

// RoomStats builds a Summary for one room, or ok=false if it doesn't exist.
func (r *Registry) RoomStats(roomID string) (Summary, bool) {
	rm, ok := r.getRoom(roomID)
	if !ok {
		return Summary{}, false
	}
	return rm.summary(), true
}

// AllRoomSummaries builds a Summary for every currently live room.
func (r *Registry) AllRoomSummaries() []Summary {
	r.mu.Lock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		rooms = append(rooms, rm)
	}
	r.mu.Unlock()

	summaries := make([]Summary, 0, len(rooms))
	for _, rm := range rooms {
		summaries = append(summaries, rm.summary())
	}
	return summaries
}

func (rm *Room) summary() Summary {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	roles := set.New[string]()
	breakdown := make(map[string]int)
	connected := 0
	for _, p := range rm.participants {
		if !p.IsConnected {
			continue
		}
		connected++
		roles.Insert(string(p.Role))
		breakdown[string(p.Role)]++
	}

	return Summary{
		RoomID:            rm.RoomID,
		Status:            rm.Status,
		ParticipantCount:  connected,
		RoleBreakdown:     breakdown,
		DistinctRoleCount: roles.Len(),
		HostUserID:        rm.HostUserID,
	}
}
