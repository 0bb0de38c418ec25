// Package signaling implements C4, the SignalingRelay: per-socket event
// dispatch, authentication at handshake, and WebRTC mesh forwarding that
// never blocks one peer on another.
package signaling

import (
	"encoding/json"

	"github.com/corsairlabs/meetcore/internal/apperr"
	"github.com/corsairlabs/meetcore/internal/events"
)

// inboundEnvelope is the wire shape of every client -> server message.
type inboundEnvelope struct {
	Event   events.Event    `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// outboundMessage is the wire shape of every server -> client message.
type outboundMessage struct {
	Event   events.Event `json:"event"`
	Payload any          `json:"payload"`
}

func marshalOutbound(event events.Event, payload any) ([]byte, error) {
	return json.Marshal(outboundMessage{Event: event, Payload: payload})
}

// decodePayload unmarshals an inbound envelope's payload into T, reporting
// an Internal error on malformed JSON rather than panicking the read pump.
func decodePayload[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, apperr.Wrap(apperr.Internal, "malformed payload", err)
	}
	return v, nil
}
