package media

import "github.com/corsairlabs/meetcore/internal/events"

// Notifier delivers MediaSession-originated events to sockets. Mirrors
// room.Notifier's shape; kept as its own interface so this package never
// needs to import room (SignalingRelay implements both).
type Notifier interface {
	Emit(socketID string, event events.Event, payload any)
	Broadcast(socketIDs []string, exceptSocketID string, event events.Event, payload any)
}
