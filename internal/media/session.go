package media

import (
	"context"
	"sync"

	"github.com/corsairlabs/meetcore/internal/apperr"
	"github.com/corsairlabs/meetcore/internal/events"
	"github.com/corsairlabs/meetcore/internal/logging"
	"github.com/corsairlabs/meetcore/internal/metrics"
)

// SfuPeer is a participant's SFU-mode state (§3, invariants S1-S2): up to
// one send and one recv transport, and any number of producers/consumers
// hung off them.
type SfuPeer struct {
	PeerID   string
	SocketID string

	sendTransport Transport
	recvTransport Transport

	producers map[string]*producerEntry // producerId -> entry
	consumers map[string]*consumerEntry // consumerId -> entry
}

type producerEntry struct {
	producer Producer
	kind     Kind
}

type consumerEntry struct {
	consumer   Consumer
	producerID string
	peerID     string // the peer that owns the source producer
}

type sfuRoom struct {
	mu     sync.Mutex
	router Router
	peers  map[string]*SfuPeer // peerId -> SfuPeer
}

// MediaSession is C5: owns per-room routers and per-peer transports,
// producers, and consumers on top of an opaque Worker.
type MediaSession struct {
	mu    sync.Mutex
	rooms map[string]*sfuRoom

	worker      Worker
	notifier    Notifier
	listenIP    string
	announcedIP string
	codecs      CodecConfig
}

// New constructs a MediaSession bound to worker, delivering events through
// notifier, binding new transports to listenIP/announcedIP (§6.2).
func New(worker Worker, notifier Notifier, listenIP, announcedIP string) *MediaSession {
	return &MediaSession{
		rooms:       make(map[string]*sfuRoom),
		worker:      worker,
		notifier:    notifier,
		listenIP:    listenIP,
		announcedIP: announcedIP,
		codecs:      DefaultCodecConfig(),
	}
}

// Died exposes the underlying Worker's death signal (§4.4: worker death is
// fatal) so the process entrypoint can watch for it without reaching past
// MediaSession into the Worker it wraps.
func (m *MediaSession) Died() <-chan error { return m.worker.Died() }

func (m *MediaSession) getOrCreateRoom(ctx context.Context, roomID string) (*sfuRoom, error) {
	m.mu.Lock()
	rm, ok := m.rooms[roomID]
	m.mu.Unlock()
	if ok {
		return rm, nil
	}

	router, err := m.worker.CreateRouter(ctx, roomID, m.codecs)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if rm, ok := m.rooms[roomID]; ok {
		_ = router.Close()
		return rm, nil
	}
	rm = &sfuRoom{router: router, peers: make(map[string]*SfuPeer)}
	m.rooms[roomID] = rm
	return rm, nil
}

// JoinSfu implements joinSfu (§4.3): creates/reuses the room's router,
// allocates an SfuPeer, emits the router's RTP capabilities to the caller,
// and replays existing producers to the new peer so it learns about
// already-producing peers without a history replay mechanism.
func (m *MediaSession) JoinSfu(ctx context.Context, roomID, peerID, socketID string, _ any) error {
	rm, err := m.getOrCreateRoom(ctx, roomID)
	if err != nil {
		metrics.MediaWorkerOperations.WithLabelValues("join", "error").Inc()
		return err
	}

	rm.mu.Lock()
	peer, existing := rm.peers[peerID]
	if !existing {
		peer = &SfuPeer{
			PeerID:    peerID,
			SocketID:  socketID,
			producers: make(map[string]*producerEntry),
			consumers: make(map[string]*consumerEntry),
		}
		rm.peers[peerID] = peer
	} else {
		peer.SocketID = socketID
	}

	type existingProducer struct {
		peerID     string
		producerID string
		kind       Kind
	}
	var toReplay []existingProducer
	for _, other := range rm.peers {
		if other.PeerID == peerID {
			continue
		}
		for pid, entry := range other.producers {
			toReplay = append(toReplay, existingProducer{peerID: other.PeerID, producerID: pid, kind: entry.kind})
		}
	}
	rtpCapabilities := rm.router.RTPCapabilities()
	rm.mu.Unlock()

	metrics.MediaWorkerOperations.WithLabelValues("join", "ok").Inc()

	m.notifier.Emit(socketID, events.SfuRouterRtpCapabilities, map[string]any{
		"rtpCapabilities": rtpCapabilities,
	})
	for _, ep := range toReplay {
		m.notifier.Emit(socketID, events.SfuNewProducer, map[string]any{
			"peerId":     ep.peerID,
			"producerId": ep.producerID,
			"kind":       ep.kind,
		})
	}
	return nil
}

// CreateTransport implements createTransport (§4.3). Recreating a
// transport for a direction already in use closes the old one first
// (and, per S1, everything hung off it).
func (m *MediaSession) CreateTransport(ctx context.Context, roomID, peerID string, direction Direction) (*TransportInfo, error) {
	rm, peer, err := m.roomAndPeer(roomID, peerID)
	if err != nil {
		return nil, err
	}

	transport, err := rm.router.CreateTransport(ctx, direction, m.listenIP, m.announcedIP)
	if err != nil {
		metrics.MediaWorkerOperations.WithLabelValues("create_transport", "error").Inc()
		return nil, apperr.Wrap(apperr.Internal, "transport creation failed", err)
	}

	rm.mu.Lock()
	switch direction {
	case DirectionSend:
		if peer.sendTransport != nil {
			_ = peer.sendTransport.Close()
			for pid, entry := range peer.producers {
				_ = entry.producer.Close()
				delete(peer.producers, pid)
			}
		}
		peer.sendTransport = transport
	case DirectionRecv:
		if peer.recvTransport != nil {
			_ = peer.recvTransport.Close()
			for cid, entry := range peer.consumers {
				_ = entry.consumer.Close()
				delete(peer.consumers, cid)
			}
		}
		peer.recvTransport = transport
	}
	rm.mu.Unlock()

	metrics.MediaWorkerOperations.WithLabelValues("create_transport", "ok").Inc()
	info := transport.Info()
	return &info, nil
}

// ConnectTransport implements connectTransport (§4.3): applies DTLS
// parameters to whichever of the caller's transports is still new.
// Idempotent per transport.
func (m *MediaSession) ConnectTransport(ctx context.Context, roomID, peerID string, dtlsParameters any) error {
	_, peer, err := m.roomAndPeer(roomID, peerID)
	if err != nil {
		return err
	}

	target := peer.sendTransport
	if target == nil || target.State() != TransportNew {
		if peer.recvTransport != nil && peer.recvTransport.State() == TransportNew {
			target = peer.recvTransport
		}
	}
	if target == nil {
		return apperr.New(apperr.Internal, "no transport pending connection")
	}
	if err := target.Connect(ctx, dtlsParameters); err != nil {
		return apperr.Wrap(apperr.Internal, "transport connect failed", err)
	}
	return nil
}

// Produce implements produce (§4.3): creates a producer on the caller's
// send transport, broadcasts NewProducer to every other connected
// participant, returns the producerId to the caller.
func (m *MediaSession) Produce(ctx context.Context, roomID, peerID string, kind Kind, rtpParameters any) (string, error) {
	rm, peer, err := m.roomAndPeer(roomID, peerID)
	if err != nil {
		return "", err
	}
	if peer.sendTransport == nil {
		return "", apperr.New(apperr.Internal, "no send transport for this peer")
	}

	producer, err := peer.sendTransport.Produce(ctx, kind, rtpParameters)
	if err != nil {
		metrics.MediaWorkerOperations.WithLabelValues("produce", "error").Inc()
		return "", apperr.Wrap(apperr.Internal, "produce failed", err)
	}

	rm.mu.Lock()
	peer.producers[producer.ID()] = &producerEntry{producer: producer, kind: kind}
	var otherSocketIDs []string
	for _, other := range rm.peers {
		if other.PeerID != peerID {
			otherSocketIDs = append(otherSocketIDs, other.SocketID)
		}
	}
	rm.mu.Unlock()

	metrics.MediaWorkerOperations.WithLabelValues("produce", "ok").Inc()

	m.notifier.Broadcast(otherSocketIDs, "", events.SfuNewProducer, map[string]any{
		"peerId":     peerID,
		"producerId": producer.ID(),
		"kind":       kind,
	})

	return producer.ID(), nil
}

// Consume implements consume (§4.3): validates canConsume, creates a
// paused consumer on the caller's recv transport.
func (m *MediaSession) Consume(ctx context.Context, roomID, peerID, producerID string, rtpCapabilities any) (*ConsumerInfo, error) {
	rm, peer, err := m.roomAndPeer(roomID, peerID)
	if err != nil {
		return nil, err
	}
	if !rm.router.CanConsume(producerID, rtpCapabilities) {
		return nil, apperr.New(apperr.Unconsumable, "router cannot consume this producer")
	}
	if peer.recvTransport == nil {
		return nil, apperr.New(apperr.Internal, "no recv transport for this peer")
	}

	consumer, err := peer.recvTransport.Consume(ctx, producerID, rtpCapabilities)
	if err != nil {
		metrics.MediaWorkerOperations.WithLabelValues("consume", "error").Inc()
		return nil, apperr.Wrap(apperr.Internal, "consume failed", err)
	}

	rm.mu.Lock()
	ownerPeerID := ""
	for _, other := range rm.peers {
		if _, ok := other.producers[producerID]; ok {
			ownerPeerID = other.PeerID
			break
		}
	}
	peer.consumers[consumer.ID()] = &consumerEntry{consumer: consumer, producerID: producerID, peerID: ownerPeerID}
	rm.mu.Unlock()

	metrics.MediaWorkerOperations.WithLabelValues("consume", "ok").Inc()

	kind := KindVideo
	for _, other := range rm.peers {
		if e, ok := other.producers[producerID]; ok {
			kind = e.kind
			break
		}
	}

	return &ConsumerInfo{
		ID:             consumer.ID(),
		Kind:           kind,
		RTPParameters:  consumer.RTPParameters(),
		ProducerPeerID: ownerPeerID,
	}, nil
}

// ResumeConsumer implements resumeConsumer (§4.3).
func (m *MediaSession) ResumeConsumer(ctx context.Context, roomID, peerID, consumerID string) error {
	_, peer, err := m.roomAndPeer(roomID, peerID)
	if err != nil {
		return err
	}
	entry, ok := peer.consumers[consumerID]
	if !ok {
		return apperr.New(apperr.Internal, "consumer not found")
	}
	return entry.consumer.Resume(ctx)
}

// PauseProducer implements pauseProducer (§4.3). The inbound event carries
// only a boolean, so it applies to every producer the caller currently
// owns (a room participant is modeled as having at most one outgoing
// audio and one video producer at a time); ProducerPaused is broadcast
// for each to the other peers so they can reflect mute state.
func (m *MediaSession) PauseProducer(ctx context.Context, roomID, peerID string, pause bool) error {
	rm, peer, err := m.roomAndPeer(roomID, peerID)
	if err != nil {
		return err
	}

	rm.mu.Lock()
	var producerIDs []string
	for pid, entry := range peer.producers {
		if pause {
			_ = entry.producer.Pause(ctx)
		} else {
			_ = entry.producer.Resume(ctx)
		}
		producerIDs = append(producerIDs, pid)
	}
	var allSocketIDs []string
	for _, other := range rm.peers {
		allSocketIDs = append(allSocketIDs, other.SocketID)
	}
	rm.mu.Unlock()

	for _, pid := range producerIDs {
		m.notifier.Broadcast(allSocketIDs, peer.SocketID, events.SfuProducerPaused, map[string]any{
			"producerId": pid,
			"paused":     pause,
		})
	}
	return nil
}

// LeaveSfu implements leaveSfu (§4.3): closes the caller's producers,
// consumers, and transports; closes the router and deletes room state if
// the room's SFU participant count drops to zero.
func (m *MediaSession) LeaveSfu(roomID, peerID string) {
	m.mu.Lock()
	rm, ok := m.rooms[roomID]
	m.mu.Unlock()
	if !ok {
		return
	}

	rm.mu.Lock()
	peer, ok := rm.peers[peerID]
	if ok {
		for _, entry := range peer.consumers {
			_ = entry.consumer.Close()
		}
		for _, entry := range peer.producers {
			_ = entry.producer.Close()
		}
		if peer.sendTransport != nil {
			_ = peer.sendTransport.Close()
		}
		if peer.recvTransport != nil {
			_ = peer.recvTransport.Close()
		}
		delete(rm.peers, peerID)
	}
	empty := len(rm.peers) == 0
	rm.mu.Unlock()

	if empty {
		m.CloseRoom(roomID)
	}
}

// CloseRoom implements room.MediaCloser: closes the router and deletes
// all SFU state for roomID. Safe to call on a room with no SFU state.
func (m *MediaSession) CloseRoom(roomID string) {
	m.mu.Lock()
	rm, ok := m.rooms[roomID]
	if ok {
		delete(m.rooms, roomID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	rm.mu.Lock()
	for _, peer := range rm.peers {
		for _, entry := range peer.consumers {
			_ = entry.consumer.Close()
		}
		for _, entry := range peer.producers {
			_ = entry.producer.Close()
		}
		if peer.sendTransport != nil {
			_ = peer.sendTransport.Close()
		}
		if peer.recvTransport != nil {
			_ = peer.recvTransport.Close()
		}
	}
	_ = rm.router.Close()
	rm.mu.Unlock()

	logging.Info(context.Background(), "sfu room closed")
}

func (m *MediaSession) roomAndPeer(roomID, peerID string) (*sfuRoom, *SfuPeer, error) {
	m.mu.Lock()
	rm, ok := m.rooms[roomID]
	m.mu.Unlock()
	if !ok {
		return nil, nil, apperr.New(apperr.Internal, "room has no active sfu session")
	}
	rm.mu.Lock()
	peer, ok := rm.peers[peerID]
	rm.mu.Unlock()
	if !ok {
		return nil, nil, apperr.New(apperr.Internal, "peer has not joined the sfu session")
	}
	return rm, peer, nil
}
