package room

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corsairlabs/meetcore/internal/callstore"
	"github.com/corsairlabs/meetcore/internal/events"
	"github.com/corsairlabs/meetcore/internal/logging"
	"github.com/corsairlabs/meetcore/internal/metrics"
)

// MediaCloser is the C5 hook the registry calls when a room's SFU state
// (if any) must be torn down: on endCall and when the room empties out
// after reap.
type MediaCloser interface {
	CloseRoom(roomID string)
}

// ReapGrace is how long a disconnected participant is kept before removal
// (§4.1 default). A var, not a const, so tests can shrink it rather than
// wait out the real grace period.
var ReapGrace = 30 * time.Second

// SweepInterval and SweepAfter implement the defense-in-depth room-level
// sweep (§4.1).
var (
	SweepInterval = 2 * time.Minute
	SweepAfter    = 5 * time.Minute
)

// JoinResult is returned to the joining socket.
type JoinResult struct {
	RoomID       string
	Settings     Settings
	Participants []Participant // snapshot, excludes the joining participant
	Self         Participant
	IsHost       bool
}

// CreateOptions configures an ad-hoc room:create request.
type CreateOptions struct {
	RoomID          string // optional, generated if empty
	Name            string
	IsPrivate       bool
	MaxParticipants int
}

// Registry is C3: the authoritative in-memory index of live rooms.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room

	store    callstore.Store
	notifier Notifier
	media    MediaCloser

	sweepStop chan struct{}
	sweepDone chan struct{}

	emptySince map[string]time.Time // roomId -> time it became empty, for the sweep
}

// New constructs a Registry and starts its background sweep goroutine.
// Call Close to stop it cleanly (goleak-friendly teardown).
func New(store callstore.Store, notifier Notifier, media MediaCloser) *Registry {
	r := &Registry{
		rooms:      make(map[string]*Room),
		store:      store,
		notifier:   notifier,
		media:      media,
		sweepStop:  make(chan struct{}),
		sweepDone:  make(chan struct{}),
		emptySince: make(map[string]time.Time),
	}
	go r.sweepLoop()
	return r
}

// Close stops the background sweep goroutine.
func (r *Registry) Close() {
	close(r.sweepStop)
	<-r.sweepDone
}

func (r *Registry) sweepLoop() {
	defer close(r.sweepDone)
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.sweepStop:
			return
		case <-ticker.C:
			r.sweepEmptyRooms()
		}
	}
}

func (r *Registry) sweepEmptyRooms() {
	r.mu.Lock()
	var stale []string
	for id, since := range r.emptySince {
		if time.Since(since) > SweepAfter {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		if _, live := r.rooms[id]; live {
			delete(r.rooms, id)
			metrics.ActiveRooms.Dec()
		}
		delete(r.emptySince, id)
	}
	r.mu.Unlock()

	for _, id := range stale {
		if r.media != nil {
			r.media.CloseRoom(id)
		}
		logging.Info(context.Background(), "room swept as defense-in-depth", zap.String("room_id", id))
	}
}

// getRoom returns the room if present, without creating it.
func (r *Registry) getRoom(roomID string) (*Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok := r.rooms[roomID]
	return rm, ok
}

// Create handles room:create: an ad-hoc room with no prior CallStore
// record (the REST API's call-CRUD surface is out of scope, §1). The
// creator becomes host. Best-effort provisions a call record so later
// CallStore reads are consistent; provisioning failures are logged and
// swallowed like any other store write (§4.4).
func (r *Registry) Create(ctx context.Context, ident Identity, opts CreateOptions) (*JoinResult, error) {
	roomID := opts.RoomID
	if roomID == "" {
		roomID = uuid.NewString()
	}

	callID := uuid.NewString()
	maxParticipants := opts.MaxParticipants
	if maxParticipants <= 0 {
		maxParticipants = 50
	}

	rec := &callstore.Record{
		CallID:          callID,
		RoomID:          roomID,
		HostUserID:      ident.UserID,
		Name:            opts.Name,
		Status:          callstore.CallStatusWaiting,
		CallType:        callstore.CallTypeOpen,
		MaxParticipants: maxParticipants,
	}
	if !opts.IsPrivate {
		rec.CallType = callstore.CallTypeOpen
	}
	if err := r.store.Provision(ctx, rec); err != nil {
		logging.Warn(ctx, "call store provision failed, continuing in-memory", zap.String("room_id", roomID))
	}

	return r.join(ctx, ident, roomID, "", rec)
}

// Join implements the join operation (§4.1).
func (r *Registry) Join(ctx context.Context, ident Identity, roomID, passcode string) (*JoinResult, error) {
	rec, err := r.store.GetByRoomID(ctx, roomID)
	if err != nil {
		return nil, errRoomNotFound()
	}
	return r.join(ctx, ident, roomID, passcode, rec)
}

// Identity is the join-time caller identity (mirrors auth.Identity without
// importing the auth package, which has no reason to depend on room).
type Identity struct {
	UserID      string
	Email       string
	DisplayName string
}

func (r *Registry) join(ctx context.Context, ident Identity, roomID, passcode string, rec *callstore.Record) (*JoinResult, error) {
	if rec.Status == callstore.CallStatusEnded {
		return nil, errEnded()
	}
	if rec.Passcode != "" {
		if subtle.ConstantTimeCompare([]byte(rec.Passcode), []byte(passcode)) != 1 {
			return nil, errInvalidPasscode()
		}
	}
	if rec.CallType == callstore.CallTypeInvitedOnly {
		if _, invited := rec.InvitedUserIDs[ident.UserID]; !invited && ident.UserID != rec.HostUserID {
			return nil, errNotInvited()
		}
	}

	r.mu.Lock()
	rm, exists := r.rooms[roomID]
	if !exists {
		rm = newRoom(roomID, rec.CallID, rec.HostUserID, Settings{
			Name:            rec.Name,
			IsPrivate:       rec.CallType == callstore.CallTypeInvitedOnly,
			MaxParticipants: rec.MaxParticipants,
			CallType:        rec.CallType,
		})
		r.rooms[roomID] = rm
		delete(r.emptySince, roomID)
		metrics.ActiveRooms.Inc()
	}
	r.mu.Unlock()

	rm.mu.Lock()

	var self *Participant

	if existingPeerID, rebinding := rm.byUserID[ident.UserID]; rebinding {
		p := rm.participants[existingPeerID]
		p.SocketID = socketIDFromContext(ctx)
		p.IsConnected = true
		p.LeftAt = nil
		self = p
	} else {
		if rm.connectedCount() >= rm.Settings.MaxParticipants {
			rm.mu.Unlock()
			return nil, errRoomFull()
		}
		role := RoleParticipant
		if ident.UserID == rm.HostUserID {
			role = RoleHost
		} else if isGuestUser(ident.UserID) {
			role = RoleGuest
		}
		peerID := "peer_" + uuid.NewString()
		self = &Participant{
			PeerID:      peerID,
			UserID:      ident.UserID,
			SocketID:    socketIDFromContext(ctx),
			User:        UserIdent{UserID: ident.UserID, DisplayName: ident.DisplayName, Email: ident.Email},
			Role:        role,
			JoinedAt:    time.Now(),
			IsConnected: true,
		}
		rm.participants[peerID] = self
		rm.byUserID[ident.UserID] = peerID
	}

	if t, pending := rm.reapTimers[self.PeerID]; pending {
		t.Stop()
		delete(rm.reapTimers, self.PeerID)
	}

	becameLive := rm.Status == StatusWaiting
	if becameLive {
		rm.Status = StatusLive
	}

	selfCopy := *self
	others := rm.snapshotExcludingLocked(self.PeerID)
	settings := rm.Settings
	otherSocketIDs := socketIDsOf(others)
	isHost := self.Role == RoleHost

	rm.mu.Unlock()

	metrics.RoomParticipants.WithLabelValues(roomID).Set(float64(len(others) + 1))

	// External call (C2), outside the room lock per the §5 discipline.
	if becameLive {
		if err := r.store.Start(ctx, rec.CallID); err != nil {
			logging.Warn(ctx, "call store start failed, continuing in-memory", zap.String("room_id", roomID))
		}
	}
	if !isGuestUser(ident.UserID) {
		if err := r.store.AddParticipant(ctx, rec.CallID, ident.UserID, string(self.Role)); err != nil {
			logging.Warn(ctx, "call store add participant failed, continuing in-memory", zap.String("room_id", roomID))
		}
	}

	r.notifier.Broadcast(otherSocketIDs, "", events.RoomUserJoined, map[string]any{
		"user":        selfCopy.User,
		"participant": selfCopy,
	})

	return &JoinResult{
		RoomID:       roomID,
		Settings:     settings,
		Participants: others,
		Self:         selfCopy,
		IsHost:       isHost,
	}, nil
}

// Leave implements leave/handleDisconnect (§4.1). Idempotent.
func (r *Registry) Leave(ctx context.Context, roomID, peerID string) {
	rm, ok := r.getRoom(roomID)
	if !ok {
		return
	}

	rm.mu.Lock()
	p, ok := rm.participants[peerID]
	if !ok || !p.IsConnected {
		rm.mu.Unlock()
		return
	}
	now := time.Now()
	p.IsConnected = false
	p.LeftAt = &now
	pCopy := *p
	others := rm.snapshotExcludingLocked(peerID)
	otherSocketIDs := socketIDsOf(others)

	timer := time.AfterFunc(ReapGrace, func() { r.reap(roomID, peerID) })
	rm.reapTimers[peerID] = timer
	rm.mu.Unlock()

	metrics.RoomParticipants.WithLabelValues(roomID).Set(float64(len(others)))

	r.notifier.Broadcast(otherSocketIDs, "", events.RoomUserLeft, map[string]any{
		"userId":      pCopy.UserID,
		"participant": pCopy,
	})

	if !isGuestUser(pCopy.UserID) {
		if err := r.store.UpdateParticipantStatus(ctx, rm.CallID, pCopy.UserID, false, ""); err != nil {
			logging.Warn(ctx, "call store status update failed, continuing in-memory", zap.String("room_id", roomID))
		}
	}
}

func (r *Registry) reap(roomID, peerID string) {
	rm, ok := r.getRoom(roomID)
	if !ok {
		return
	}

	rm.mu.Lock()
	p, ok := rm.participants[peerID]
	if !ok || p.IsConnected {
		rm.mu.Unlock()
		return
	}
	delete(rm.participants, peerID)
	if rm.byUserID[p.UserID] == peerID {
		delete(rm.byUserID, p.UserID)
	}
	delete(rm.reapTimers, peerID)
	empty := len(rm.participants) == 0
	rm.mu.Unlock()

	if empty {
		r.mu.Lock()
		delete(r.rooms, roomID)
		r.emptySince[roomID] = time.Now()
		metrics.ActiveRooms.Dec()
		r.mu.Unlock()
		metrics.RoomParticipants.DeleteLabelValues(roomID)
		if r.media != nil {
			r.media.CloseRoom(roomID)
		}
	}
}

// UpdateMediaState implements updateMediaState (§4.1). Missing fields
// (represented by a nil pointer) retain prior value.
func (r *Registry) UpdateMediaState(roomID, peerID string, audio, video, screen *bool) {
	rm, ok := r.getRoom(roomID)
	if !ok {
		return
	}

	rm.mu.Lock()
	p, ok := rm.participants[peerID]
	if !ok {
		rm.mu.Unlock()
		return
	}
	if audio != nil {
		p.MediaState.Audio = *audio
	}
	if video != nil {
		p.MediaState.Video = *video
	}
	if screen != nil {
		p.MediaState.Screen = *screen
	}
	state := p.MediaState
	userID := p.UserID
	others := rm.snapshotExcludingLocked(peerID)
	rm.mu.Unlock()

	r.notifier.Broadcast(socketIDsOf(others), "", events.ParticipantMediaChanged, map[string]any{
		"userId":     userID,
		"peerId":     peerID,
		"mediaState": state,
	})
}

// EndCall implements endCall (§4.1): host-only, broadcasts, evicts, deletes.
func (r *Registry) EndCall(ctx context.Context, roomID, callerUserID string) error {
	rm, ok := r.getRoom(roomID)
	if !ok {
		return errRoomNotFound()
	}

	rm.mu.Lock()
	if rm.HostUserID != callerUserID {
		rm.mu.Unlock()
		return errHostRequired()
	}
	all := rm.snapshotLocked()
	allSocketIDs := socketIDsOf(all)
	for _, t := range rm.reapTimers {
		t.Stop()
	}
	callID := rm.CallID
	rm.Status = StatusEnded
	rm.mu.Unlock()

	r.mu.Lock()
	delete(r.rooms, roomID)
	delete(r.emptySince, roomID)
	metrics.ActiveRooms.Dec()
	r.mu.Unlock()
	metrics.RoomParticipants.DeleteLabelValues(roomID)

	if r.media != nil {
		r.media.CloseRoom(roomID)
	}

	r.notifier.Broadcast(allSocketIDs, "", events.RoomCallEnded, map[string]any{
		"roomId": roomID,
		"reason": "Host ended the call",
	})

	if err := r.store.End(ctx, callID); err != nil {
		logging.Warn(ctx, "call store end failed, continuing in-memory", zap.String("room_id", roomID))
	}
	return nil
}

// RoomOf and ParticipantOf are O(1) lookups used by C4/C5 (§4.1). They
// tolerate a stale or absent key, returning ok=false.
func (r *Registry) RoomOf(roomID string) (*Room, bool) {
	return r.getRoom(roomID)
}

func (r *Registry) ParticipantOf(roomID, peerID string) (Participant, bool) {
	rm, ok := r.getRoom(roomID)
	if !ok {
		return Participant{}, false
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	p, ok := rm.participants[peerID]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

func (rm *Room) snapshotExcludingLocked(exceptPeerID string) []Participant {
	out := make([]Participant, 0, len(rm.participants))
	for id, p := range rm.participants {
		if id == exceptPeerID || !p.IsConnected {
			continue
		}
		out = append(out, *p)
	}
	return out
}

func socketIDsOf(participants []Participant) []string {
	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.SocketID)
	}
	return ids
}

func isGuestUser(userID string) bool {
	const guestPrefix = "guest:"
	return len(userID) >= len(guestPrefix) && userID[:len(guestPrefix)] == guestPrefix
}

// WithSocketID attaches the acting socket id to a context so Join/Create
// can stamp it onto the Participant without widening their signatures.
type ctxKeySocketID struct{}

func WithSocketID(ctx context.Context, socketID string) context.Context {
	return context.WithValue(ctx, ctxKeySocketID{}, socketID)
}

func socketIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeySocketID{}).(string); ok {
		return v
	}
	return ""
}
