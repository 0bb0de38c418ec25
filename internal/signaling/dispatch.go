package signaling

import (
	"context"

	"github.com/corsairlabs/meetcore/internal/apperr"
	"github.com/corsairlabs/meetcore/internal/events"
	"github.com/corsairlabs/meetcore/internal/media"
	"github.com/corsairlabs/meetcore/internal/metrics"
	"github.com/corsairlabs/meetcore/internal/room"
)

// dispatch routes one inbound event to C3, C5, or direct peer-to-peer
// forwarding (§4.2). The client-supplied identity never overrides the
// handshake-bound one: every call below uses c.identity, never anything
// out of the payload.
func (r *Relay) dispatch(ctx context.Context, c *Client, env inboundEnvelope) error {
	ctx = room.WithSocketID(ctx, c.socketID)
	ident := room.Identity{UserID: c.identity.UserID, Email: c.identity.Email, DisplayName: c.identity.DisplayName}

	switch env.Event {
	case events.RoomJoin:
		p, err := decodePayload[joinPayload](env.Payload)
		if err != nil {
			return err
		}
		result, err := r.registry.Join(ctx, ident, p.RoomID, p.Passcode)
		if err != nil {
			return err
		}
		c.roomID = result.RoomID
		c.peerID = result.Self.PeerID
		c.deliver(events.RoomJoined, map[string]any{
			"roomId":       result.RoomID,
			"user":         result.Self.User,
			"participants": result.Participants,
			"settings":     result.Settings,
			"isHost":       result.IsHost,
		})
		return nil

	case events.RoomCreate:
		p, err := decodePayload[createPayload](env.Payload)
		if err != nil {
			return err
		}
		result, err := r.registry.Create(ctx, ident, room.CreateOptions{
			RoomID:          p.ID,
			Name:            p.Name,
			IsPrivate:       p.IsPrivate,
			MaxParticipants: p.MaxParticipants,
		})
		if err != nil {
			return err
		}
		c.roomID = result.RoomID
		c.peerID = result.Self.PeerID
		c.deliver(events.RoomCreated, map[string]any{
			"id":       result.RoomID,
			"settings": result.Settings,
		})
		return nil

	case events.RoomLeave:
		if c.roomID == "" {
			return nil
		}
		r.registry.Leave(ctx, c.roomID, c.peerID)
		if c.inSfu {
			r.media.LeaveSfu(c.roomID, c.peerID)
			c.inSfu = false
		}
		c.roomID, c.peerID = "", ""
		return nil

	case events.RoomEndCall:
		p, err := decodePayload[endCallPayload](env.Payload)
		if err != nil {
			return err
		}
		return r.registry.EndCall(ctx, p.RoomID, c.identity.UserID)

	case events.ParticipantUpdateMediaState:
		p, err := decodePayload[updateMediaStatePayload](env.Payload)
		if err != nil {
			return err
		}
		if c.roomID == "" {
			return nil
		}
		r.registry.UpdateMediaState(c.roomID, c.peerID, p.AudioEnabled, p.VideoEnabled, p.ScreenShareEnabled)
		return nil

	case events.WebrtcOffer:
		p, err := decodePayload[webrtcOfferPayload](env.Payload)
		if err != nil {
			return err
		}
		return r.forwardSignal(c, p.To, events.WebrtcOffer, map[string]any{"offer": p.Offer}, true)

	case events.WebrtcAnswer:
		p, err := decodePayload[webrtcAnswerPayload](env.Payload)
		if err != nil {
			return err
		}
		return r.forwardSignal(c, p.To, events.WebrtcAnswer, map[string]any{"answer": p.Answer}, true)

	case events.WebrtcIceCandidate:
		p, err := decodePayload[webrtcIceCandidatePayload](env.Payload)
		if err != nil {
			return err
		}
		return r.forwardSignal(c, p.To, events.WebrtcIceCandidate, map[string]any{"candidate": p.Candidate}, false)

	case events.WebrtcGetIceServers:
		var servers []map[string]any
		if r.iceServer != nil {
			servers = r.iceServer.IceServers()
		}
		c.deliver(events.WebrtcIceServers, map[string]any{"iceServers": servers})
		return nil

	case events.SfuJoinRoom:
		p, err := decodePayload[sfuJoinPayload](env.Payload)
		if err != nil {
			return err
		}
		if c.roomID == "" || c.peerID == "" {
			return apperr.New(apperr.Internal, "must join a room before joining its sfu session")
		}
		if err := r.media.JoinSfu(ctx, c.roomID, c.peerID, c.socketID, p.RtpCapabilities); err != nil {
			return err
		}
		c.inSfu = true
		return nil

	case events.SfuCreateTransport:
		p, err := decodePayload[sfuCreateTransportPayload](env.Payload)
		if err != nil {
			return err
		}
		direction := media.DirectionRecv
		if p.Direction == string(media.DirectionSend) {
			direction = media.DirectionSend
		}
		info, err := r.media.CreateTransport(ctx, c.roomID, c.peerID, direction)
		if err != nil {
			return err
		}
		c.deliver(events.SfuTransportCreated, info)
		return nil

	case events.SfuConnectTransport:
		p, err := decodePayload[sfuConnectTransportPayload](env.Payload)
		if err != nil {
			return err
		}
		if err := r.media.ConnectTransport(ctx, c.roomID, c.peerID, p.DtlsParameters); err != nil {
			return err
		}
		c.deliver(events.SfuTransportConnected, nil)
		return nil

	case events.SfuProduce:
		p, err := decodePayload[sfuProducePayload](env.Payload)
		if err != nil {
			return err
		}
		kind := media.KindAudio
		if p.Kind == string(media.KindVideo) {
			kind = media.KindVideo
		}
		producerID, err := r.media.Produce(ctx, c.roomID, c.peerID, kind, p.RtpParameters)
		if err != nil {
			return err
		}
		metrics.WebrtcConnectionAttempts.WithLabelValues("produce_ok").Inc()
		c.deliver(events.SfuProducerCreated, map[string]any{"id": producerID})
		return nil

	case events.SfuConsume:
		p, err := decodePayload[sfuConsumePayload](env.Payload)
		if err != nil {
			return err
		}
		info, err := r.media.Consume(ctx, c.roomID, c.peerID, p.ProducerID, p.RtpCapabilities)
		if err != nil {
			return err
		}
		c.deliver(events.SfuConsumerCreated, info)
		return nil

	case events.SfuResumeConsumer:
		p, err := decodePayload[sfuResumeConsumerPayload](env.Payload)
		if err != nil {
			return err
		}
		if err := r.media.ResumeConsumer(ctx, c.roomID, c.peerID, p.ConsumerID); err != nil {
			return err
		}
		c.deliver(events.SfuConsumerResumed, map[string]any{"consumerId": p.ConsumerID})
		return nil

	case events.SfuPauseProducer:
		p, err := decodePayload[sfuPauseProducerPayload](env.Payload)
		if err != nil {
			return err
		}
		return r.media.PauseProducer(ctx, c.roomID, c.peerID, p.Pause)

	case events.ChatMessage:
		p, err := decodePayload[chatMessagePayload](env.Payload)
		if err != nil {
			return err
		}
		return r.handleChatMessage(c, p)

	case events.ChatTyping:
		p, err := decodePayload[chatTypingPayload](env.Payload)
		if err != nil {
			return err
		}
		return r.handleChatTyping(c, p)

	case events.AdminGetRoomStats:
		p, err := decodePayload[adminGetRoomStatsPayload](env.Payload)
		if err != nil {
			return err
		}
		return r.handleAdminGetRoomStats(c, p)

	case events.AdminGetAllRooms:
		return r.handleAdminGetAllRooms(c)

	default:
		return apperr.New(apperr.Internal, "unknown event")
	}
}
