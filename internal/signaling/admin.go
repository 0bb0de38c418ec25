package signaling

import "github.com/corsairlabs/meetcore/internal/events"

// handleAdminGetRoomStats and handleAdminGetAllRooms implement the
// admin/diagnostic surface (§4.2): read-only, bounded-time snapshots over
// the registry, delivered directly to the requester. Neither grants
// moderation authority (kick/mute) — that is out of the registry's
// documented contract (§4.1); only endCall exists for host-level control.
func (r *Relay) handleAdminGetRoomStats(c *Client, p adminGetRoomStatsPayload) error {
	stats, ok := r.registry.RoomStats(p.RoomID)
	if !ok {
		c.deliver(events.AdminRoomStats, map[string]any{"roomId": p.RoomID, "found": false})
		return nil
	}
	c.deliver(events.AdminRoomStats, map[string]any{"found": true, "stats": stats})
	return nil
}

func (r *Relay) handleAdminGetAllRooms(c *Client) error {
	summaries := r.registry.AllRoomSummaries()
	c.deliver(events.AdminAllRooms, map[string]any{"rooms": summaries})
	return nil
}
