package signaling

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/google/uuid"

	"github.com/corsairlabs/meetcore/internal/apperr"
	"github.com/corsairlabs/meetcore/internal/auth"
	"github.com/corsairlabs/meetcore/internal/events"
	"github.com/corsairlabs/meetcore/internal/logging"
	"github.com/corsairlabs/meetcore/internal/media"
	"github.com/corsairlabs/meetcore/internal/metrics"
	"github.com/corsairlabs/meetcore/internal/room"
)

// HandshakeLimiter gates new connections by remote address (§5 "Rate
// limiting": auth attempts bounded per remote address).
type HandshakeLimiter interface {
	Allow(remoteAddr string) bool
}

// IceServerLister returns the current ICE-server list (§6.2/§6.3),
// answering webrtc:get-ice-servers.
type IceServerLister interface {
	IceServers() []map[string]any
}

// Relay is C4, the SignalingRelay.
type Relay struct {
	mu      sync.Mutex
	clients map[string]*Client // socketId -> Client

	registry  *room.Registry
	media     *media.MediaSession
	verifier  auth.TokenVerifier
	limiter   HandshakeLimiter
	iceServer IceServerLister

	allowedOrigins []string
	upgrader       websocket.Upgrader
}

// New constructs a Relay wired to its collaborators.
func New(registry *room.Registry, mediaSession *media.MediaSession, verifier auth.TokenVerifier, limiter HandshakeLimiter, iceServer IceServerLister, allowedOrigins []string) *Relay {
	r := &Relay{
		clients:        make(map[string]*Client),
		registry:       registry,
		media:          mediaSession,
		verifier:       verifier,
		limiter:        limiter,
		iceServer:      iceServer,
		allowedOrigins: allowedOrigins,
	}
	r.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     r.checkOrigin,
	}
	return r
}

// Bind wires the registry and media session after construction, breaking
// the construction cycle: the registry and media session both need the
// relay as their Notifier, so the relay itself must exist before they do.
func (r *Relay) Bind(registry *room.Registry, mediaSession *media.MediaSession) {
	r.registry = registry
	r.media = mediaSession
}

func (r *Relay) checkOrigin(req *http.Request) bool {
	origin := req.Header.Get("Origin")
	if origin == "" {
		return true
	}
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, allowed := range r.allowedOrigins {
		if allowed == "*" {
			return true
		}
		allowedURL, err := url.Parse(allowed)
		if err != nil {
			continue
		}
		if strings.EqualFold(parsed.Scheme, allowedURL.Scheme) && strings.EqualFold(parsed.Host, allowedURL.Host) {
			return true
		}
	}
	return false
}

// ServeWs is the gin handler mounted at the websocket handshake route.
func (r *Relay) ServeWs(c *gin.Context) {
	remoteAddr := c.ClientIP()
	if r.limiter != nil && !r.limiter.Allow(remoteAddr) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded", "code": apperr.RateLimited})
		return
	}

	token := c.Query("token")
	if token == "" {
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token", "code": apperr.AuthenticationFailed})
		return
	}

	identity, err := r.verifier.Verify(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed", "code": apperr.AuthenticationFailed})
		return
	}

	conn, err := r.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warn(c.Request.Context(), "websocket upgrade failed")
		return
	}

	correlationID, _ := c.Request.Context().Value(logging.CorrelationIDKey).(string)
	socketID := uuid.NewString()
	client := newClient(conn, socketID, *identity, correlationID, r)

	r.mu.Lock()
	r.clients[socketID] = client
	r.mu.Unlock()

	metrics.IncConnection()

	go client.writePump()
	go client.readPump()
}

func (r *Relay) handleDisconnect(c *Client) {
	r.mu.Lock()
	delete(r.clients, c.socketID)
	r.mu.Unlock()
	metrics.DecConnection()

	if c.roomID != "" && c.peerID != "" {
		if c.inSfu {
			r.media.LeaveSfu(c.roomID, c.peerID)
		}
		r.registry.Leave(context.Background(), c.roomID, c.peerID)
	}
}

// --- room.Notifier / media.Notifier ---

func (r *Relay) Emit(socketID string, event events.Event, payload any) {
	r.mu.Lock()
	client, ok := r.clients[socketID]
	r.mu.Unlock()
	if !ok {
		return
	}
	client.deliver(event, payload)
}

func (r *Relay) Broadcast(socketIDs []string, exceptSocketID string, event events.Event, payload any) {
	for _, id := range socketIDs {
		if id == exceptSocketID {
			continue
		}
		r.Emit(id, event, payload)
	}
}

func (r *Relay) clientBySocket(socketID string) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[socketID]
	return c, ok
}
