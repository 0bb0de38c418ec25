package signaling

import (
	"github.com/corsairlabs/meetcore/internal/apperr"
	"github.com/corsairlabs/meetcore/internal/events"
	"github.com/corsairlabs/meetcore/internal/metrics"
)

// forwardSignal implements the WebRTC mesh signaling relay (§4.2): resolve
// "to" within the caller's room, stamp the authoritative "from", and
// forward without interpreting the SDP/candidate payload. A missing or
// disconnected target is a non-fatal PeerUnreachable error to the sender,
// except for ICE candidates, which are silently dropped (they routinely
// race with connect/disconnect, §4.2).
func (r *Relay) forwardSignal(c *Client, to string, event events.Event, extra map[string]any, fatalIfMissing bool) error {
	if c.roomID == "" {
		if fatalIfMissing {
			return apperr.New(apperr.PeerUnreachable, "sender is not in a room")
		}
		return nil
	}

	target, ok := r.registry.ParticipantOf(c.roomID, to)
	if !ok || !target.IsConnected {
		metrics.WebrtcConnectionAttempts.WithLabelValues("target_missing").Inc()
		if fatalIfMissing {
			return apperr.New(apperr.PeerUnreachable, "signaling target is absent or disconnected")
		}
		return nil // ICE candidates: silent drop
	}

	payload := map[string]any{
		"from": c.peerID, // server-stamped; client-supplied "from" is never trusted
		"to":   to,
	}
	for k, v := range extra {
		payload[k] = v
	}

	metrics.WebrtcConnectionAttempts.WithLabelValues("relayed").Inc()
	r.Emit(target.SocketID, event, payload)
	return nil
}
