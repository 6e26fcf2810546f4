package ports

import (
	"context"

	"github.com/lorrc/user-directory/internal/core/domain"
)

// PageFetcher is the page-fetch collaborator. page starts at domain.FirstPage.
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) (*domain.Page, error)
}

// DeletionIntent receives the intent to delete a user. There is no backing
// store behind it; an error only ever comes from an injected failure or an
// optional journal.
type DeletionIntent interface {
	RequestDeletion(ctx context.Context, user domain.User) error
}

// DeletionJournal lists recorded deletion intents, newest first.
type DeletionJournal interface {
	List(ctx context.Context, limit int) ([]domain.DeletionRecord, error)
}

// PageCacheInvalidator drops cached pages so the next fetch goes to the source.
type PageCacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// EventBroadcaster pushes change events to connected viewers.
type EventBroadcaster interface {
	Broadcast(event domain.Event) error
}

// UserStore defines the port for the canonical paginated collection.
type UserStore interface {
	Initialize()
	AppendPage(users []domain.User, next domain.Cursor)
	ReportFailure(err error)
	Reset(ctx context.Context) error
	RemoveByIdentity(id string) bool
	FetchNextPage(ctx context.Context) error
	Refetch(ctx context.Context) error
	Snapshot() domain.Collection
	OptimisticStore
}

// ViewComputer derives the displayed sequence from a collection snapshot.
type ViewComputer interface {
	Compute(c domain.Collection, filter string, key domain.SortKey) []domain.User
}

// OptimisticStore is the part of the store the mutation coordinator writes to.
type OptimisticStore interface {
	Remove(id string) (domain.Removal, bool)
	Rollback(removal domain.Removal) bool
}

// MetricsRecorder counts outcomes of the asynchronous operations.
type MetricsRecorder interface {
	PageFetched(outcome string)
	DeletionSettled(outcome string)
}

// UserDeleter defines the port for optimistic deletes.
type UserDeleter interface {
	DeleteUser(ctx context.Context, id string) (*Deletion, error)
	Shutdown()
}

// Deletion tracks one optimistic delete until its intent settles.
type Deletion struct {
	User domain.User
	done chan struct{}
	err  error
}

// NewDeletion returns a pending deletion for user.
func NewDeletion(user domain.User) *Deletion {
	return &Deletion{User: user, done: make(chan struct{})}
}

// Settle records the outcome and releases waiters. It must be called once.
func (d *Deletion) Settle(err error) {
	d.err = err
	close(d.done)
}

// Done is closed once the intent has settled.
func (d *Deletion) Done() <-chan struct{} { return d.done }

// Err returns the intent's error after Done is closed.
func (d *Deletion) Err() error {
	<-d.done
	return d.err
}
