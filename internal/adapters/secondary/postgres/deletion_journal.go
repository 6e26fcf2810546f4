package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/user-directory/internal/core/domain"
	"github.com/lorrc/user-directory/internal/core/ports"
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// DeletionJournal records deletion intents in the user_deletions table.
type DeletionJournal struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var (
	_ ports.DeletionIntent  = (*DeletionJournal)(nil)
	_ ports.DeletionJournal = (*DeletionJournal)(nil)
)

// NewDeletionJournal creates a journal backed by pool.
func NewDeletionJournal(pool *pgxpool.Pool, logger *slog.Logger) *DeletionJournal {
	return &DeletionJournal{
		pool:   pool,
		logger: logger.With("component", "deletion_journal"),
	}
}

// RequestDeletion inserts a journal row for user.
func (j *DeletionJournal) RequestDeletion(ctx context.Context, user domain.User) error {
	const query = `
INSERT INTO user_deletions (id, user_id, first_name, last_name, country)
VALUES ($1, $2, $3, $4, $5)
`
	id := uuid.New()
	if _, err := j.pool.Exec(ctx, query, id, user.ID, user.FirstName, user.LastName, user.Country); err != nil {
		return fmt.Errorf("journaling deletion of %s: %w", user.ID, err)
	}

	j.logger.InfoContext(ctx, "deletion journaled", "journal_id", id, "user_id", user.ID)
	return nil
}

// List returns the most recent deletions, newest first.
func (j *DeletionJournal) List(ctx context.Context, limit int) ([]domain.DeletionRecord, error) {
	const query = `
SELECT id, user_id, first_name, last_name, country, requested_at
FROM user_deletions
ORDER BY requested_at DESC, id
LIMIT $1
`
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := j.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing deletions: %w", err)
	}
	defer rows.Close()

	records := make([]domain.DeletionRecord, 0, limit)
	for rows.Next() {
		var r domain.DeletionRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.FirstName, &r.LastName, &r.Country, &r.RequestedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Ping checks connectivity for health probes.
func (j *DeletionJournal) Ping(ctx context.Context) error {
	return j.pool.Ping(ctx)
}
