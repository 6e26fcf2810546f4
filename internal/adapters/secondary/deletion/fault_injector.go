package deletion

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/lorrc/user-directory/internal/core/domain"
	"github.com/lorrc/user-directory/internal/core/ports"
)

// ErrInjectedFailure is returned when the injector decides to fail.
var ErrInjectedFailure = errors.New("injected deletion failure")

// FaultInjector wraps a deletion intent and fails a fraction of requests.
type FaultInjector struct {
	next    ports.DeletionIntent
	rate    float64
	latency time.Duration
	logger  *slog.Logger

	// Rand returns a value in [0, 1).
	Rand func() float64
}

var _ ports.DeletionIntent = (*FaultInjector)(nil)

// NewFaultInjector fails roughly rate of the requests after an optional delay.
// rate is clamped to [0, 1].
func NewFaultInjector(next ports.DeletionIntent, rate float64, latency time.Duration, logger *slog.Logger) *FaultInjector {
	return &FaultInjector{
		next:    next,
		rate:    min(max(rate, 0), 1),
		latency: latency,
		logger:  logger.With("component", "fault_injector"),
		Rand:    rand.Float64,
	}
}

func (f *FaultInjector) RequestDeletion(ctx context.Context, user domain.User) error {
	if f.latency > 0 {
		timer := time.NewTimer(f.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if f.rate > 0 && f.Rand() < f.rate {
		f.logger.WarnContext(ctx, "injecting deletion failure", "user_id", user.ID)
		return ErrInjectedFailure
	}
	return f.next.RequestDeletion(ctx, user)
}
