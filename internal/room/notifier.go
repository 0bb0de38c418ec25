package room

import "github.com/corsairlabs/meetcore/internal/events"

// Notifier delivers registry-originated events to sockets. The registry
// never holds a socket/connection object itself (§9 design notes: sockets
// hold only a weak back-reference); the SignalingRelay implements this
// interface to resolve socketId -> live connection and push bytes,
// tolerating sockets that have since gone away.
type Notifier interface {
	// Emit sends event/payload to exactly one socket. No-op if the socket
	// is no longer connected.
	Emit(socketID string, event events.Event, payload any)

	// Broadcast sends event/payload to every socket in socketIDs except
	// exceptSocketID (pass "" to exclude none).
	Broadcast(socketIDs []string, exceptSocketID string, event events.Event, payload any)
}
