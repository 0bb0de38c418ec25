package signaling

import (
	"time"

	"github.com/google/uuid"

	"github.com/corsairlabs/meetcore/internal/apperr"
	"github.com/corsairlabs/meetcore/internal/events"
)

// handleChatMessage implements chat:message (§4.2): the outbound message
// carries a server-assigned id and timestamp, the sender's peerId and user
// snapshot, and the text. A message addressed to a specific peerId goes
// only to that peer's socket; otherwise it fans out to the room, never
// back to the sender (§8 property 5).
func (r *Relay) handleChatMessage(c *Client, p chatMessagePayload) error {
	if c.roomID == "" {
		return apperr.New(apperr.Internal, "must join a room before sending chat")
	}
	self, ok := r.registry.ParticipantOf(c.roomID, c.peerID)
	if !ok {
		return apperr.New(apperr.Internal, "sender is no longer in the room")
	}

	out := map[string]any{
		"id":        uuid.NewString(),
		"timestamp": time.Now().UnixMilli(),
		"peerId":    c.peerID,
		"user":      self.User,
		"message":   p.Message,
	}

	if p.To != nil {
		target, ok := r.registry.ParticipantOf(c.roomID, *p.To)
		if ok && target.IsConnected {
			r.Emit(target.SocketID, events.ChatMessage, out)
		}
		return nil
	}

	rm, ok := r.registry.RoomOf(c.roomID)
	if !ok {
		return nil
	}
	for _, participant := range rm.SnapshotParticipants() {
		if participant.PeerID == c.peerID || !participant.IsConnected {
			continue
		}
		r.Emit(participant.SocketID, events.ChatMessage, out)
	}
	return nil
}

// handleChatTyping implements chat:typing: a lightweight room-wide
// broadcast of typing state, never persisted (§1 Non-goals: no
// persistence of chat history).
func (r *Relay) handleChatTyping(c *Client, p chatTypingPayload) error {
	if c.roomID == "" {
		return nil
	}
	rm, ok := r.registry.RoomOf(c.roomID)
	if !ok {
		return nil
	}
	for _, participant := range rm.SnapshotParticipants() {
		if participant.PeerID == c.peerID || !participant.IsConnected {
			continue
		}
		r.Emit(participant.SocketID, events.ChatTyping, map[string]any{
			"peerId":   c.peerID,
			"isTyping": p.IsTyping,
		})
	}
	return nil
}
