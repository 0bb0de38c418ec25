package signaling

// Payload structs mirror the socket event surface exactly (§6.1).

type joinPayload struct {
	RoomID   string `json:"roomId"`
	Passcode string `json:"passcode,omitempty"`
	Token    string `json:"token,omitempty"`
}

type createPayload struct {
	Name            string `json:"name"`
	IsPrivate       bool   `json:"isPrivate,omitempty"`
	MaxParticipants int    `json:"maxParticipants,omitempty"`
	ID              string `json:"id,omitempty"`
}

type leavePayload struct {
	RoomID string `json:"roomId,omitempty"`
}

type endCallPayload struct {
	RoomID string `json:"roomId"`
}

type updateMediaStatePayload struct {
	VideoEnabled      *bool `json:"videoEnabled,omitempty"`
	AudioEnabled      *bool `json:"audioEnabled,omitempty"`
	ScreenShareEnabled *bool `json:"screenShareEnabled,omitempty"`
}

type sdpPayload struct {
	Type string `json:"type"`
	Sdp  string `json:"sdp"`
}

type candidatePayload struct {
	Candidate     string `json:"candidate"`
	SdpMLineIndex *int   `json:"sdpMLineIndex,omitempty"`
	SdpMid        *string `json:"sdpMid,omitempty"`
}

type webrtcOfferPayload struct {
	To    string     `json:"to"`
	Offer sdpPayload `json:"offer"`
}

type webrtcAnswerPayload struct {
	To     string     `json:"to"`
	Answer sdpPayload `json:"answer"`
}

type webrtcIceCandidatePayload struct {
	To        string           `json:"to"`
	Candidate candidatePayload `json:"candidate"`
}

type sfuJoinPayload struct {
	RoomID          string `json:"roomId"`
	RtpCapabilities any    `json:"rtpCapabilities"`
}

type sfuCreateTransportPayload struct {
	Direction string `json:"direction"`
}

type sfuConnectTransportPayload struct {
	DtlsParameters any `json:"dtlsParameters"`
}

type sfuProducePayload struct {
	Kind          string `json:"kind"`
	RtpParameters any    `json:"rtpParameters"`
}

type sfuConsumePayload struct {
	ProducerID      string `json:"producerId"`
	RtpCapabilities any    `json:"rtpCapabilities"`
}

type sfuResumeConsumerPayload struct {
	ConsumerID string `json:"consumerId"`
}

type sfuPauseProducerPayload struct {
	Pause bool `json:"pause"`
}

type chatMessagePayload struct {
	Message string  `json:"message"`
	To      *string `json:"to,omitempty"`
}

type chatTypingPayload struct {
	IsTyping bool `json:"isTyping"`
}

type adminGetRoomStatsPayload struct {
	RoomID string `json:"roomId"`
}
