package media

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// FakeWorker is an in-process stand-in for the native MediaWorker library
// (§1: the worker is explicitly out of scope, opaque). It implements the
// same state machine the real worker would (router/transport/producer/
// consumer bookkeeping, canConsume, DTLS transport states) without any
// actual media I/O, so MediaSession's orchestration logic can be built and
// tested against a real Worker implementation rather than stubbed out.
type FakeWorker struct {
	mu      sync.Mutex
	routers map[string]*fakeRouter
	died    chan error
}

// NewFakeWorker constructs a FakeWorker.
func NewFakeWorker() *FakeWorker {
	return &FakeWorker{
		routers: make(map[string]*fakeRouter),
		died:    make(chan error),
	}
}

func (w *FakeWorker) Died() <-chan error { return w.died }

func (w *FakeWorker) CreateRouter(_ context.Context, roomID string, codecs CodecConfig) (Router, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if r, ok := w.routers[roomID]; ok {
		return r, nil
	}
	r := &fakeRouter{
		id:        "router_" + uuid.NewString(),
		codecs:    codecs,
		producers: make(map[string]*fakeProducer),
	}
	w.routers[roomID] = r
	return r, nil
}

type fakeRouter struct {
	mu        sync.Mutex
	id        string
	codecs    CodecConfig
	producers map[string]*fakeProducer
	closed    bool
}

func (r *fakeRouter) ID() string { return r.id }

func (r *fakeRouter) RTPCapabilities() any {
	return map[string]any{
		"codecs": append([]string{r.codecs.AudioCodec}, r.codecs.VideoCodecs...),
	}
}

func (r *fakeRouter) CanConsume(producerID string, _ any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.producers[producerID]
	return ok
}

func (r *fakeRouter) CreateTransport(_ context.Context, direction Direction, listenIP, announcedIP string) (Transport, error) {
	if announcedIP == "" {
		announcedIP = listenIP
	}
	return &fakeTransport{
		id:        "transport_" + uuid.NewString(),
		direction: direction,
		router:    r,
		state:     TransportNew,
		info: TransportInfo{
			ID:             "",
			ICEParameters:  map[string]any{"usernameFragment": uuid.NewString()[:8], "password": uuid.NewString()},
			ICECandidates:  []any{map[string]any{"ip": announcedIP, "protocol": "udp", "port": 40000, "type": "host"}},
			DTLSParameters: map[string]any{"role": "auto"},
		},
	}, nil
}

func (r *fakeRouter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeRouter) registerProducer(p *fakeProducer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.producers[p.id] = p
}

func (r *fakeRouter) unregisterProducer(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.producers, id)
}

type fakeTransport struct {
	mu        sync.Mutex
	id        string
	direction Direction
	router    *fakeRouter
	state     TransportState
	info      TransportInfo
}

func (t *fakeTransport) ID() string { return t.id }

func (t *fakeTransport) Info() TransportInfo {
	info := t.info
	info.ID = t.id
	return info
}

func (t *fakeTransport) State() TransportState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *fakeTransport) Connect(_ context.Context, _ any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = TransportConnected // idempotent: connecting twice is a no-op state change
	return nil
}

func (t *fakeTransport) Produce(_ context.Context, kind Kind, _ any) (Producer, error) {
	if t.direction != DirectionSend {
		return nil, fmt.Errorf("cannot produce on a %s transport", t.direction)
	}
	p := &fakeProducer{id: "producer_" + uuid.NewString(), kind: kind, router: t.router}
	t.router.registerProducer(p)
	return p, nil
}

func (t *fakeTransport) Consume(_ context.Context, producerID string, _ any) (Consumer, error) {
	if t.direction != DirectionRecv {
		return nil, fmt.Errorf("cannot consume on a %s transport", t.direction)
	}
	t.router.mu.Lock()
	prod, ok := t.router.producers[producerID]
	t.router.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("producer %s not found", producerID)
	}
	return &fakeConsumer{
		id:         "consumer_" + uuid.NewString(),
		producerID: producerID,
		kind:       prod.kind,
		paused:     true, // consumers start paused (§4.3)
	}, nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = TransportClosed
	return nil
}

type fakeProducer struct {
	mu     sync.Mutex
	id     string
	kind   Kind
	router *fakeRouter
	paused bool
}

func (p *fakeProducer) ID() string   { return p.id }
func (p *fakeProducer) Kind() Kind   { return p.kind }
func (p *fakeProducer) Pause(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
	return nil
}
func (p *fakeProducer) Resume(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
	return nil
}
func (p *fakeProducer) Close() error {
	p.router.unregisterProducer(p.id)
	return nil
}

type fakeConsumer struct {
	mu         sync.Mutex
	id         string
	producerID string
	kind       Kind
	paused     bool
}

func (c *fakeConsumer) ID() string         { return c.id }
func (c *fakeConsumer) ProducerID() string { return c.producerID }
func (c *fakeConsumer) RTPParameters() any {
	return map[string]any{"codecs": []string{string(c.kind)}}
}
func (c *fakeConsumer) Resume(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = false
	return nil
}
func (c *fakeConsumer) Pause(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = true
	return nil
}
func (c *fakeConsumer) Close() error { return nil }
