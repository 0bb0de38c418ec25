package media

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/corsairlabs/meetcore/internal/apperr"
	"github.com/corsairlabs/meetcore/internal/metrics"
)

const collaboratorName = "media_worker"

// BreakerWorker wraps a Worker with a circuit breaker around router
// creation, grounded on the teacher's pkg/sfu client: a call into the
// media worker is a named suspension point (§5) and the worker's death is
// fatal to the whole process (§4.4), so the breaker exists to fail fast
// rather than pile up blocked callers while the process is shutting down.
type BreakerWorker struct {
	inner Worker
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerWorker wraps inner with a circuit breaker reporting state into
// the circuit_breaker metrics family.
func NewBreakerWorker(inner Worker) *BreakerWorker {
	settings := gobreaker.Settings{
		Name:        collaboratorName,
		MaxRequests: 3,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
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
	return &BreakerWorker{inner: inner, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *BreakerWorker) Died() <-chan error { return b.inner.Died() }

func (b *BreakerWorker) CreateRouter(ctx context.Context, roomID string, codecs CodecConfig) (Router, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.CreateRouter(ctx, roomID, codecs)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			metrics.CircuitBreakerFailures.WithLabelValues(collaboratorName).Inc()
			return nil, apperr.Wrap(apperr.Internal, "media worker unavailable", err)
		}
		return nil, apperr.Wrap(apperr.Internal, "media worker router creation failed", err)
	}
	return result.(Router), nil
}
