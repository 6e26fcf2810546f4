package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/lorrc/user-directory/internal/core/domain"
	apperrors "github.com/lorrc/user-directory/internal/core/errors"
	"github.com/lorrc/user-directory/internal/core/ports"
)

// Fetch outcomes reported to the metrics recorder.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeStale   = "stale"
)

// UserStore owns the paginated user collection. Every mutation replaces the
// users slice instead of writing into it, so snapshots handed out stay valid.
type UserStore struct {
	fetcher     ports.PageFetcher
	broadcaster ports.EventBroadcaster
	metrics     ports.MetricsRecorder
	logger      *slog.Logger

	mu          sync.RWMutex
	users       []domain.User
	cursor      domain.Cursor
	status      domain.Status
	lastErr     error
	version     uint64
	generation  uint64
	fetching    bool
	cancelFetch context.CancelFunc
}

var _ ports.UserStore = (*UserStore)(nil)

// NewUserStore creates an initialized store. broadcaster and metrics may be nil.
func NewUserStore(
	fetcher ports.PageFetcher,
	broadcaster ports.EventBroadcaster,
	metrics ports.MetricsRecorder,
	logger *slog.Logger,
) *UserStore {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	s := &UserStore{
		fetcher:     fetcher,
		broadcaster: broadcaster,
		metrics:     metrics,
		logger:      logger.With("component", "user_store"),
	}
	s.Initialize()
	return s
}

// Initialize empties the collection, points the cursor at the first page and
// invalidates any fetch still in flight.
func (s *UserStore) Initialize() {
	s.mu.Lock()
	s.initializeLocked()
	event := s.eventLocked(domain.EventCollectionReset, "")
	s.mu.Unlock()

	s.publish(event)
}

func (s *UserStore) initializeLocked() {
	if s.cancelFetch != nil {
		s.cancelFetch()
		s.cancelFetch = nil
	}
	s.fetching = false
	s.users = nil
	s.cursor = domain.NewCursor(domain.FirstPage)
	s.status = domain.StatusLoading
	s.lastErr = nil
	s.generation++
	s.version++
}

// AppendPage concatenates users after the loaded ones and moves the cursor.
func (s *UserStore) AppendPage(users []domain.User, next domain.Cursor) {
	s.mu.Lock()
	s.appendLocked(users, next)
	event := s.eventLocked(domain.EventPageAppended, "")
	s.mu.Unlock()

	s.publish(event)
}

func (s *UserStore) appendLocked(users []domain.User, next domain.Cursor) {
	seen := make(map[string]struct{}, len(s.users)+len(users))
	for _, u := range s.users {
		seen[u.ID] = struct{}{}
	}

	merged := make([]domain.User, 0, len(s.users)+len(users))
	merged = append(merged, s.users...)
	for _, u := range users {
		if _, dup := seen[u.ID]; dup {
			s.logger.Warn("skipping duplicate user in page", "user_id", u.ID)
			continue
		}
		seen[u.ID] = struct{}{}
		merged = append(merged, u)
	}

	s.users = merged
	s.cursor = next
	s.status = domain.StatusReady
	s.lastErr = nil
	s.version++
}

// ReportFailure flips the status to error. Loaded pages are kept.
func (s *UserStore) ReportFailure(err error) {
	s.mu.Lock()
	s.failLocked(err)
	event := s.eventLocked(domain.EventFetchFailed, "")
	s.mu.Unlock()

	s.publish(event)
}

func (s *UserStore) failLocked(err error) {
	s.status = domain.StatusError
	s.lastErr = err
	s.version++
}

// Reset discards the collection and fetches the first page again. The first
// page fetch is claimed together with the reset, so no other fetch can slip
// in between.
func (s *UserStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.initializeLocked()
	event := s.eventLocked(domain.EventCollectionReset, "")
	f, err := s.startFetchLocked(ctx)
	s.mu.Unlock()

	s.publish(event)
	if err != nil {
		return err
	}
	return s.runFetch(f)
}

// RemoveByIdentity removes the user with the given ID. It reports whether a
// user was removed; a missing ID is not an error.
func (s *UserStore) RemoveByIdentity(id string) bool {
	_, ok := s.Remove(id)
	return ok
}

// Remove removes the user with the given ID and returns what is needed to
// undo it.
func (s *UserStore) Remove(id string) (domain.Removal, bool) {
	s.mu.Lock()
	idx := domain.IndexOf(s.users, id)
	if idx < 0 {
		s.mu.Unlock()
		return domain.Removal{}, false
	}

	snapshot := s.users
	removed := snapshot[idx]
	s.users = slices.Delete(slices.Clone(snapshot), idx, idx+1)
	s.version++

	removal := domain.Removal{
		User:       removed,
		Index:      idx,
		Snapshot:   snapshot,
		Version:    s.version,
		Generation: s.generation,
	}
	event := s.eventLocked(domain.EventUserRemoved, id)
	s.mu.Unlock()

	s.publish(event)
	return removal, true
}

// Rollback undoes a removal. When nothing else changed the collection since,
// the snapshot is restored as is; otherwise the user is put back after the
// closest predecessor that is still present, or before the closest successor
// when no predecessor survived. A reset since the removal makes the rollback
// a no-op.
func (s *UserStore) Rollback(removal domain.Removal) bool {
	s.mu.Lock()
	if removal.Generation != s.generation {
		s.mu.Unlock()
		s.logger.Debug("collection reset since removal, rollback skipped", "user_id", removal.User.ID)
		return false
	}
	if domain.IndexOf(s.users, removal.User.ID) >= 0 {
		s.mu.Unlock()
		return false
	}

	if removal.Version == s.version {
		s.users = removal.Snapshot
	} else {
		s.users = reinsert(s.users, removal)
	}
	s.version++
	event := s.eventLocked(domain.EventUserRestored, removal.User.ID)
	s.mu.Unlock()

	s.publish(event)
	return true
}

func reinsert(current []domain.User, removal domain.Removal) []domain.User {
	pos := -1
	for i := removal.Index - 1; i >= 0 && pos < 0; i-- {
		if j := domain.IndexOf(current, removal.Snapshot[i].ID); j >= 0 {
			pos = j + 1
		}
	}
	for i := removal.Index + 1; i < len(removal.Snapshot) && pos < 0; i++ {
		if j := domain.IndexOf(current, removal.Snapshot[i].ID); j >= 0 {
			pos = j
		}
	}
	if pos < 0 {
		pos = min(removal.Index, len(current))
	}
	return slices.Insert(slices.Clone(current), pos, removal.User)
}

// FetchNextPage loads the page under the cursor and appends it. Only one
// fetch runs at a time, and none runs while the store is in error.
func (s *UserStore) FetchNextPage(ctx context.Context) error {
	s.mu.Lock()
	if s.status == domain.StatusError {
		s.mu.Unlock()
		return apperrors.ErrPaginationDisabled
	}
	f, err := s.startFetchLocked(ctx)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	return s.runFetch(f)
}

// Refetch retries the page that failed, clearing the error state.
func (s *UserStore) Refetch(ctx context.Context) error {
	s.mu.Lock()
	if s.status == domain.StatusError {
		s.status = domain.StatusLoading
		s.lastErr = nil
		s.version++
	}
	f, err := s.startFetchLocked(ctx)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	return s.runFetch(f)
}

type pendingFetch struct {
	ctx        context.Context
	cancel     context.CancelFunc
	page       int
	generation uint64
}

// startFetchLocked claims the single fetch slot. mu must be held.
func (s *UserStore) startFetchLocked(ctx context.Context) (pendingFetch, error) {
	if s.fetching {
		return pendingFetch{}, apperrors.ErrFetchInFlight
	}
	if s.cursor.Exhausted() {
		return pendingFetch{}, apperrors.ErrNoMorePages
	}

	// The fetch outlives the caller's request; only a reset cancels it.
	fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.fetching = true
	s.cancelFetch = cancel
	s.version++
	return pendingFetch{
		ctx:        fetchCtx,
		cancel:     cancel,
		page:       s.cursor.Page(),
		generation: s.generation,
	}, nil
}

func (s *UserStore) runFetch(f pendingFetch) error {
	s.logger.Debug("fetching page", "page", f.page, "generation", f.generation)
	result, err := s.fetcher.FetchPage(f.ctx, f.page)
	f.cancel()

	s.mu.Lock()
	if f.generation != s.generation || s.cursor.Page() != f.page {
		if f.generation == s.generation {
			// The cursor moved under the fetch; the slot is still ours.
			s.fetching = false
			s.cancelFetch = nil
			s.version++
		}
		s.mu.Unlock()
		s.metrics.PageFetched(OutcomeStale)
		s.logger.Debug("discarding stale page", "page", f.page, "generation", f.generation)
		return apperrors.ErrFetchInvalidated
	}
	s.fetching = false
	s.cancelFetch = nil

	if err != nil {
		wrapped := fmt.Errorf("%w: page %d: %w", apperrors.ErrFetchFailure, f.page, err)
		s.failLocked(wrapped)
		event := s.eventLocked(domain.EventFetchFailed, "")
		s.mu.Unlock()

		s.metrics.PageFetched(OutcomeFailure)
		s.logger.Warn("page fetch failed", "page", f.page, "error", err)
		s.publish(event)
		return wrapped
	}

	s.appendLocked(result.Users, result.Next)
	event := s.eventLocked(domain.EventPageAppended, "")
	s.mu.Unlock()

	s.metrics.PageFetched(OutcomeSuccess)
	s.logger.Info("page loaded",
		"page", f.page,
		"users", len(result.Users),
		"has_next", !result.Next.Exhausted(),
	)
	s.publish(event)
	return nil
}

// Snapshot returns the current collection. The users slice must not be
// modified by the caller.
func (s *UserStore) Snapshot() domain.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.Collection{
		Users:      s.users,
		Cursor:     s.cursor,
		Status:     s.status,
		Fetching:   s.fetching,
		Err:        s.lastErr,
		Version:    s.version,
		Generation: s.generation,
	}
}

func (s *UserStore) eventLocked(eventType domain.EventType, userID string) domain.Event {
	return domain.Event{
		Type:    eventType,
		Version: s.version,
		Status:  s.status,
		UserID:  userID,
	}
}

func (s *UserStore) publish(event domain.Event) {
	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.Broadcast(event); err != nil {
		s.logger.Warn("failed to broadcast event", "event_type", event.Type, "error", err)
	}
}

type noopMetrics struct{}

func (noopMetrics) PageFetched(string)     {}
func (noopMetrics) DeletionSettled(string) {}
