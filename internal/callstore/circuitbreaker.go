package callstore

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/corsairlabs/meetcore/internal/logging"
	"github.com/corsairlabs/meetcore/internal/metrics"
)

// BreakerStore wraps a Store with a circuit breaker, grounded on the same
// pattern the teacher uses around its Redis bus and Rust SFU client: a
// collaborator call that may suspend (§5 "Suspension points") should never
// be retried indefinitely against a collaborator that is clearly down.
// Failures are still logged and swallowed per §4.4 — the breaker only
// short-circuits the wait, it does not change the "never block signaling
// progress" contract.
type BreakerStore struct {
	inner Store
	cb    *gobreaker.CircuitBreaker
}

const collaboratorName = "callstore"

// NewBreakerStore wraps inner with a circuit breaker reporting state into
// the circuit_breaker metrics family.
func NewBreakerStore(inner Store) *BreakerStore {
	settings := gobreaker.Settings{
		Name:        collaboratorName,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     15 * time.Second,
		IsSuccessful: func(err error) bool {
			// A clean "no record" answer is the collaborator working
			// correctly, not a failure to count against the breaker.
			return err == nil || err == ErrNotFound
		},
		OnStateChange: func(_ string, _, to gobreaker.State) {
			var v float64
			switch to {
			case gobreaker.StateOpen:
				v = 1
			case gobreaker.StateHalfOpen:
				v = 2
			}
			metrics.CircuitBreakerState.WithLabelValues(collaboratorName).Set(v)
		},
	}
	return &BreakerStore{inner: inner, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *BreakerStore) execute(ctx context.Context, op string, fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			metrics.CircuitBreakerFailures.WithLabelValues(collaboratorName).Inc()
		}
		logging.Warn(ctx, "callstore operation failed, continuing on in-memory truth", zap.String("op", op))
	}
	return err
}

func (b *BreakerStore) GetByRoomID(ctx context.Context, roomID string) (*Record, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.GetByRoomID(ctx, roomID)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			metrics.CircuitBreakerFailures.WithLabelValues(collaboratorName).Inc()
		}
		if err != ErrNotFound {
			logging.Warn(ctx, "callstore operation failed, continuing on in-memory truth", zap.String("op", "GetByRoomID"))
		}
		return nil, err
	}
	return result.(*Record), nil
}

func (b *BreakerStore) Provision(ctx context.Context, rec *Record) error {
	return b.execute(ctx, "Provision", func() error { return b.inner.Provision(ctx, rec) })
}

func (b *BreakerStore) AddParticipant(ctx context.Context, callID, userID, role string) error {
	return b.execute(ctx, "AddParticipant", func() error { return b.inner.AddParticipant(ctx, callID, userID, role) })
}

func (b *BreakerStore) UpdateParticipantStatus(ctx context.Context, callID, userID string, isConnected bool, socketID string) error {
	return b.execute(ctx, "UpdateParticipantStatus", func() error {
		return b.inner.UpdateParticipantStatus(ctx, callID, userID, isConnected, socketID)
	})
}

func (b *BreakerStore) Start(ctx context.Context, callID string) error {
	return b.execute(ctx, "Start", func() error { return b.inner.Start(ctx, callID) })
}

func (b *BreakerStore) End(ctx context.Context, callID string) error {
	return b.execute(ctx, "End", func() error { return b.inner.End(ctx, callID) })
}
