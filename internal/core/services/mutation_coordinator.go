package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/lorrc/user-directory/internal/core/errors"
	"github.com/lorrc/user-directory/internal/core/ports"
)

// Deletion outcomes reported to the metrics recorder.
const (
	OutcomeCommitted  = "committed"
	OutcomeRolledBack = "rolled_back"
)

// DefaultDeletionTimeout bounds how long a deletion intent may take.
const DefaultDeletionTimeout = 10 * time.Second

// invalidateTimeout bounds the page cache invalidation after a deletion
// settles. It starts after the intent, whose deadline may have passed.
const invalidateTimeout = 5 * time.Second

// MutationCoordinator applies deletes optimistically and rolls them back
// when the deletion intent fails.
type MutationCoordinator struct {
	store       ports.OptimisticStore
	intent      ports.DeletionIntent
	invalidator ports.PageCacheInvalidator
	metrics     ports.MetricsRecorder
	timeout     time.Duration
	logger      *slog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
	wg       sync.WaitGroup
}

var _ ports.UserDeleter = (*MutationCoordinator)(nil)

// NewMutationCoordinator creates a coordinator. invalidator and metrics may
// be nil; a non-positive timeout selects DefaultDeletionTimeout.
func NewMutationCoordinator(
	store ports.OptimisticStore,
	intent ports.DeletionIntent,
	invalidator ports.PageCacheInvalidator,
	metrics ports.MetricsRecorder,
	timeout time.Duration,
	logger *slog.Logger,
) *MutationCoordinator {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if timeout <= 0 {
		timeout = DefaultDeletionTimeout
	}
	return &MutationCoordinator{
		store:       store,
		intent:      intent,
		invalidator: invalidator,
		metrics:     metrics,
		timeout:     timeout,
		logger:      logger.With("component", "mutation_coordinator"),
		inFlight:    make(map[string]struct{}),
	}
}

// DeleteUser removes the user from the collection immediately and issues the
// deletion intent in the background. The returned Deletion settles once the
// intent completes; on failure the removal has been rolled back by then.
func (c *MutationCoordinator) DeleteUser(ctx context.Context, id string) (*ports.Deletion, error) {
	if !c.acquire(id) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrDeleteInProgress, id)
	}

	removal, ok := c.store.Remove(id)
	if !ok {
		c.release(id)
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUserNotFound, id)
	}

	deletion := ports.NewDeletion(removal.User)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		intentCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		err := c.intent.RequestDeletion(intentCtx, removal.User)
		if err != nil {
			err = fmt.Errorf("%w: %w", apperrors.ErrDeletionIntentFailure, err)
			restored := c.store.Rollback(removal)
			c.metrics.DeletionSettled(OutcomeRolledBack)
			c.logger.Warn("deletion intent failed, removal rolled back",
				"user_id", id,
				"restored", restored,
				"error", err,
			)
		} else {
			c.metrics.DeletionSettled(OutcomeCommitted)
			c.logger.Info("user deleted", "user_id", id)
		}

		c.invalidatePages(ctx)
		c.release(id)
		deletion.Settle(err)
	}()

	return deletion, nil
}

func (c *MutationCoordinator) invalidatePages(ctx context.Context) {
	if c.invalidator == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), invalidateTimeout)
	defer cancel()

	if err := c.invalidator.Invalidate(ctx); err != nil {
		c.logger.Warn("failed to invalidate page cache", "error", err)
	}
}

func (c *MutationCoordinator) acquire(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.inFlight[id]; busy {
		return false
	}
	c.inFlight[id] = struct{}{}
	return true
}

func (c *MutationCoordinator) release(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, id)
}

// Shutdown waits for pending deletion intents to settle.
func (c *MutationCoordinator) Shutdown() {
	c.wg.Wait()
}
