package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeletionRecord is a journaled deletion intent.
type DeletionRecord struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"userId"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Country     string    `json:"country"`
	RequestedAt time.Time `json:"requestedAt"`
}
