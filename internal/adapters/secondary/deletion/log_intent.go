package deletion

import (
	"context"
	"log/slog"

	"github.com/lorrc/user-directory/internal/core/domain"
	"github.com/lorrc/user-directory/internal/core/ports"
)

// LogIntent is a deletion intent with no backing store: it only logs.
type LogIntent struct {
	logger *slog.Logger
}

var _ ports.DeletionIntent = (*LogIntent)(nil)

// NewLogIntent creates a log-only deletion intent.
func NewLogIntent(logger *slog.Logger) *LogIntent {
	return &LogIntent{logger: logger.With("component", "deletion_intent")}
}

// RequestDeletion logs the deletion. It fails only if ctx is already done.
func (i *LogIntent) RequestDeletion(ctx context.Context, user domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	i.logger.InfoContext(ctx, "deletion requested",
		"user_id", user.ID,
		"first_name", user.FirstName,
		"last_name", user.LastName,
	)
	return nil
}
