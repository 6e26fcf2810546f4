package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/lorrc/user-directory/internal/adapters/secondary/postgres"
	"github.com/lorrc/user-directory/internal/core/domain"
)

// DeletionsOptions holds flags for the deletions command.
type DeletionsOptions struct {
	*RootOptions
	Limit int
}

// NewDeletionsCommand creates the deletions command.
func NewDeletionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeletionsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "deletions",
		Short: "List recorded deletion intents, newest first",
		Long: `List the deletion intents recorded in the journal database.

Requires DATABASE_URL.

Examples:
  userdir deletions
  userdir deletions --limit 10 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeletions(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", postgres.DefaultListLimit, "maximum number of records")

	return cmd
}

func runDeletions(ctx context.Context, opts *DeletionsOptions, cmd *cobra.Command) error {
	db := opts.Config.Database
	if db.URL == "" {
		return NewExitError(ExitCommandError, "DATABASE_URL is not set")
	}
	if opts.Limit < 1 {
		return NewExitError(ExitCommandError, "--limit must be at least 1")
	}

	pool, err := postgres.Connect(ctx, postgres.PoolConfig{
		URL:             db.URL,
		MaxConns:        1,
		ConnMaxLifetime: db.ConnMaxLifetime,
		ConnMaxIdleTime: db.ConnMaxIdleTime,
	})
	if err != nil {
		return WrapExitError(ExitFailure, "failed to connect to database", err)
	}
	defer pool.Close()

	records, err := postgres.NewDeletionJournal(pool, opts.Logger).List(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list deletions", err)
	}
	if records == nil {
		records = []domain.DeletionRecord{}
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), records)
	}
	return RenderDeletions(cmd.OutOrStdout(), records)
}
