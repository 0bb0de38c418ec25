package signaling

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/corsairlabs/meetcore/internal/apperr"
	"github.com/corsairlabs/meetcore/internal/auth"
	"github.com/corsairlabs/meetcore/internal/events"
	"github.com/corsairlabs/meetcore/internal/logging"
	"github.com/corsairlabs/meetcore/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client is one authenticated socket connection. It holds no authority
// over room state itself (§9 design notes: sockets hold only a weak
// back-reference) — roomID/peerID are a cache of "where is this socket
// currently seated", used to route inbound events and to clean up on
// disconnect; the Registry and MediaSession remain authoritative.
type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	socketID string
	identity auth.Identity

	// correlationID carries the handshake request's correlation id (set by
	// middleware.CorrelationID) into every log line this connection emits
	// afterward, since the websocket's own goroutines have no HTTP request
	// to read it from.
	correlationID string

	relay *Relay

	// roomID/peerID/inSfu are only ever touched from this client's own
	// readPump goroutine (events on one socket are processed in order,
	// §5), so no lock is needed here.
	roomID string
	peerID string
	inSfu  bool
}

func newClient(conn *websocket.Conn, socketID string, identity auth.Identity, correlationID string, relay *Relay) *Client {
	return &Client{
		conn:          conn,
		send:          make(chan []byte, 256),
		socketID:      socketID,
		identity:      identity,
		correlationID: correlationID,
		relay:         relay,
	}
}

// ctx returns a fresh per-message context carrying this connection's
// correlation id, for logging calls made outside any HTTP request.
func (c *Client) ctx() context.Context {
	if c.correlationID == "" {
		return context.Background()
	}
	return logging.WithCorrelationID(context.Background(), c.correlationID)
}

func (c *Client) readPump() {
	defer func() {
		c.relay.handleDisconnect(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var env inboundEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			logging.Warn(c.ctx(), "malformed inbound envelope", metaField("socket_id", c.socketID))
			continue
		}

		start := time.Now()
		status := "ok"
		if err := c.relay.dispatch(c.ctx(), c, env); err != nil {
			status = "error"
			c.sendError(err)
		}
		metrics.WebsocketEvents.WithLabelValues(string(env.Event), status).Inc()
		metrics.EventProcessingDuration.WithLabelValues(string(env.Event)).Observe(time.Since(start).Seconds())
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// deliver enqueues event/payload for this socket without blocking the
// caller; a slow or backed-up client drops the message rather than
// stalling the sender (§4.2 "never block one peer on another").
func (c *Client) deliver(event events.Event, payload any) {
	msg, err := marshalOutbound(event, payload)
	if err != nil {
		logging.Error(c.ctx(), "failed to marshal outbound message", metaField("event", string(event)))
		return
	}
	select {
	case c.send <- msg:
	default:
		logging.Warn(c.ctx(), "dropping message to slow client", metaField("socket_id", c.socketID))
	}
}

// sendError reports a dispatch failure to the client. The real error,
// including any wrapped cause, is logged server-side with a correlation id;
// only a code and a client-safe message ever cross the wire (§7: Internal
// errors are never exposed verbatim).
func (c *Client) sendError(err error) {
	code := errorCode(err)
	logging.Warn(c.ctx(), "event dispatch failed", zap.String("socket_id", c.socketID), zap.String("code", string(code)), zap.Error(err))
	c.deliver(events.ErrorEvent, map[string]any{
		"message": apperr.ClientMessage(err),
		"code":    code,
	})
}
