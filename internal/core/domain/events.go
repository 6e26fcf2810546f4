package domain

// EventType defines the type of real-time event.
type EventType string

const (
	EventPageAppended    EventType = "PAGE_APPENDED"
	EventFetchFailed     EventType = "FETCH_FAILED"
	EventCollectionReset EventType = "COLLECTION_RESET"
	EventUserRemoved     EventType = "USER_REMOVED"
	EventUserRestored    EventType = "USER_RESTORED"
	EventViewChanged     EventType = "VIEW_CHANGED"
)

// Event is the payload pushed to connected viewers. Clients re-read the view
// when Version moves past what they rendered.
type Event struct {
	Type    EventType `json:"type"`
	Version uint64    `json:"version"`
	Status  Status    `json:"status,omitempty"`
	UserID  string    `json:"userId,omitempty"`
}
