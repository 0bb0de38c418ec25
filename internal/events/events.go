// Package events defines the socket event surface (§6.1): the exact event
// name strings shared by the relay, registry, and media session so that
// none of them need to import each other just to agree on a string.
package events

// Event is the wire name of an inbound or outbound socket message.
type Event string

// Inbound (client -> server).
const (
	RoomJoin                    Event = "room:join"
	RoomCreate                  Event = "room:create"
	RoomLeave                   Event = "room:leave"
	RoomEndCall                 Event = "room:end-call"
	ParticipantUpdateMediaState Event = "participant:update-media-state"
	WebrtcOffer                 Event = "webrtc:offer"
	WebrtcAnswer                Event = "webrtc:answer"
	WebrtcIceCandidate          Event = "webrtc:ice-candidate"
	WebrtcGetIceServers         Event = "webrtc:get-ice-servers"
	SfuJoinRoom                 Event = "sfu:join-room"
	SfuCreateTransport          Event = "sfu:create-transport"
	SfuConnectTransport         Event = "sfu:connect-transport"
	SfuProduce                  Event = "sfu:produce"
	SfuConsume                  Event = "sfu:consume"
	SfuResumeConsumer           Event = "sfu:resume-consumer"
	SfuPauseProducer            Event = "sfu:pause-producer"
	ChatMessage                 Event = "chat:message"
	ChatTyping                  Event = "chat:typing"
	AdminGetRoomStats           Event = "admin:get-room-stats"
	AdminGetAllRooms            Event = "admin:get-all-rooms"
)

// Outbound (server -> client).
const (
	RoomJoined               Event = "room:joined"
	RoomCreated              Event = "room:created"
	RoomUserJoined           Event = "room:user-joined"
	RoomUserLeft             Event = "room:user-left"
	RoomCallEnded            Event = "room:call-ended"
	ParticipantMediaChanged  Event = "participant:media-state-changed"
	WebrtcIceServers         Event = "webrtc:ice-servers"
	SfuRouterRtpCapabilities Event = "sfu:router-rtp-capabilities"
	SfuTransportCreated      Event = "sfu:transport-created"
	SfuTransportConnected    Event = "sfu:transport-connected"
	SfuProducerCreated       Event = "sfu:producer-created"
	SfuConsumerCreated       Event = "sfu:consumer-created"
	SfuConsumerClosed        Event = "sfu:consumer-closed"
	SfuConsumerResumed       Event = "sfu:consumer-resumed"
	SfuProducerPaused        Event = "sfu:producer-paused"
	SfuNewProducer           Event = "sfu:new-producer"
	AdminRoomStats           Event = "admin:room-stats"
	AdminAllRooms            Event = "admin:all-rooms"
	ErrorEvent               Event = "error"
	// WebrtcOffer, WebrtcAnswer, WebrtcIceCandidate double as outbound
	// event names (§6.1) — the relay re-emits the same event string with
	// a server-stamped "from".
)
