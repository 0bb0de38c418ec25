// Package media implements C5, MediaSession: when a room opts into SFU
// mode, it owns that room's media-routing topology (router, transports,
// producers, consumers) on top of an opaque MediaWorker (§4.3, §6.3).
package media

import "context"

// Kind is the media kind of a producer/consumer.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// Direction is a transport's traffic direction.
type Direction string

const (
	DirectionSend Direction = "send"
	DirectionRecv Direction = "recv"
)

// TransportState models the per-transport state machine from §4.3.
type TransportState string

const (
	TransportNew       TransportState = "new"
	TransportConnected TransportState = "connected"
	TransportClosed    TransportState = "closed"
)

// TransportInfo is what the worker returns from creating a WebRTC
// transport, forwarded to the client verbatim (§4.3 createTransport).
type TransportInfo struct {
	ID             string `json:"id"`
	ICEParameters  any    `json:"iceParameters"`
	ICECandidates  any    `json:"iceCandidates"`
	DTLSParameters any    `json:"dtlsParameters"`
}

// ConsumerInfo is returned to the client on consume (§4.3).
type ConsumerInfo struct {
	ID             string `json:"id"`
	Kind           Kind   `json:"kind"`
	RTPParameters  any    `json:"rtpParameters"`
	ProducerPeerID string `json:"producerPeerId"`
}

// CodecConfig is the default codec set (§6.3): Opus/48k/stereo for audio,
// VP8/VP9/H.264 for video, 1000 kbps start bitrate.
type CodecConfig struct {
	AudioCodec       string
	AudioClockRate   int
	AudioChannels    int
	VideoCodecs      []string
	StartBitrateKbps int
}

// DefaultCodecConfig returns the §6.3 codec defaults.
func DefaultCodecConfig() CodecConfig {
	return CodecConfig{
		AudioCodec:       "opus",
		AudioClockRate:   48000,
		AudioChannels:    2,
		VideoCodecs:      []string{"VP8", "VP9", "H264"},
		StartBitrateKbps: 1000,
	}
}

// Worker is the opaque MediaWorker collaborator (§1, §6.3): a native
// media-routing library (e.g. a mediasoup-style worker process) this
// service drives but does not implement. It must expose router creation
// with a configured codec set, WebRTC transport creation, produce/consume,
// pause/resume, and a Died() channel signaling fatal worker death (§4.4:
// worker death is fatal, the process exits for an external supervisor to
// restart it).
type Worker interface {
	CreateRouter(ctx context.Context, roomID string, codecs CodecConfig) (Router, error)
	// Died reports fatal worker death; the process should exit shortly
	// after a send on this channel so an external supervisor restarts it.
	Died() <-chan error
}

// Router owns one room's media routing topology.
type Router interface {
	ID() string
	RTPCapabilities() any
	CanConsume(producerID string, rtpCapabilities any) bool
	CreateTransport(ctx context.Context, direction Direction, listenIP, announcedIP string) (Transport, error)
	Close() error
}

// Transport is a single WebRTC transport (send or recv) on a router.
type Transport interface {
	ID() string
	Info() TransportInfo
	State() TransportState
	Connect(ctx context.Context, dtlsParameters any) error
	Produce(ctx context.Context, kind Kind, rtpParameters any) (Producer, error)
	Consume(ctx context.Context, producerID string, rtpCapabilities any) (Consumer, error)
	Close() error
}

// Producer is a sender-side media endpoint (§3 SfuPeer.producers).
type Producer interface {
	ID() string
	Kind() Kind
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Close() error
}

// Consumer is a receiver-side media endpoint (§3 SfuPeer.consumers).
type Consumer interface {
	ID() string
	ProducerID() string
	RTPParameters() any
	Resume(ctx context.Context) error
	Pause(ctx context.Context) error
	Close() error
}
