package domain

// FirstPage is the page token every fresh collection starts from.
const FirstPage = 1

// Cursor identifies the next page to fetch. The zero value is the exhausted
// marker: the source reported no further pages.
type Cursor int

// CursorExhausted marks a collection that has loaded its last page.
const CursorExhausted Cursor = 0

// NewCursor returns a cursor pointing at page.
func NewCursor(page int) Cursor {
	if page < FirstPage {
		return CursorExhausted
	}
	return Cursor(page)
}

// NextCursor derives the cursor that follows the page the source reported as
// current. Pages past maxPage are never requested.
func NextCursor(current, maxPage int) Cursor {
	if current > maxPage {
		return CursorExhausted
	}
	return NewCursor(current + 1)
}

// Exhausted reports whether no further page can be fetched.
func (c Cursor) Exhausted() bool { return c == CursorExhausted }

// Page returns the page token, or 0 when exhausted.
func (c Cursor) Page() int { return int(c) }

// Page is one successful response of the page-fetch collaborator.
type Page struct {
	Users  []User
	Number int
	Next   Cursor
}

// Status is the load state of the collection.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// Collection is an immutable snapshot of the paginated user collection.
// Version increases on every mutation; Generation increases on every reset.
type Collection struct {
	Users      []User
	Cursor     Cursor
	Status     Status
	Fetching   bool
	Err        error
	Version    uint64
	Generation uint64
}

// HasNextPage reports whether another page may be requested.
func (c Collection) HasNextPage() bool {
	return !c.Cursor.Exhausted()
}

// Len returns the number of loaded users.
func (c Collection) Len() int { return len(c.Users) }

// Removal records an optimistic removal so it can be rolled back. Snapshot is
// the collection as it was right before the removal.
type Removal struct {
	User       User
	Index      int
	Snapshot   []User
	Version    uint64
	Generation uint64
}
