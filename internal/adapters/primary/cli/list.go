package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/lorrc/user-directory/internal/adapters/secondary/randomuser"
	"github.com/lorrc/user-directory/internal/config"
	"github.com/lorrc/user-directory/internal/core/domain"
	apperrors "github.com/lorrc/user-directory/internal/core/errors"
	"github.com/lorrc/user-directory/internal/core/services"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Pages  int
	Filter string
	Sort   string
	Color  bool
}

// ListResult is the JSON output of the list command.
type ListResult struct {
	Users       []domain.User `json:"users"`
	Count       int           `json:"count"`
	Total       int           `json:"total"`
	HasNextPage bool          `json:"hasNextPage"`
	Filter      string        `json:"filter,omitempty"`
	Sort        string        `json:"sort"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Fetch users and print the filtered, sorted table",
		Long: `Fetch pages of users from the source and print the derived view.

Pages are fetched in order until --pages have loaded or the source runs out.
The filter keeps users whose country contains the text, ignoring case.

Examples:
  userdir list
  userdir list --pages 3 --filter per --sort last_name
  userdir list --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Pages, "pages", "p", 1, "number of pages to fetch")
	cmd.Flags().StringVarP(&opts.Filter, "filter", "f", "", "country filter")
	cmd.Flags().StringVarP(&opts.Sort, "sort", "s", "", "sort field (country|first_name|last_name)")
	cmd.Flags().BoolVar(&opts.Color, "color", false, "shade alternate rows")

	return cmd
}

func runList(ctx context.Context, opts *ListOptions, cmd *cobra.Command) error {
	if opts.Pages < 1 {
		return NewExitError(ExitCommandError, "--pages must be at least 1")
	}

	view := domain.NewViewState()
	view.SetFilter(opts.Filter)
	if opts.Sort != "" {
		field, err := domain.ParseSortField(opts.Sort)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --sort", err)
		}
		view.Sort.Activate(field)
	}
	if opts.Color {
		view.ToggleColor()
	}

	cfg := opts.Config
	client := randomuser.NewClient(sourceConfig(cfg), &http.Client{Timeout: cfg.Source.Timeout}, opts.Logger)
	store := services.NewUserStore(client, nil, nil, opts.Logger)

	for range opts.Pages {
		err := store.FetchNextPage(ctx)
		if errors.Is(err, apperrors.ErrNoMorePages) {
			break
		}
		if err != nil {
			return WrapExitError(ExitFailure, "failed to fetch users", err)
		}
	}

	snapshot := store.Snapshot()
	key := view.Sort.Key()
	rows := services.NewViewPipeline(cfg.LocaleTag()).Compute(snapshot, view.Filter, key)

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), ListResult{
			Users:       rows,
			Count:       len(rows),
			Total:       snapshot.Len(),
			HasNextPage: snapshot.HasNextPage(),
			Filter:      view.Filter,
			Sort:        key.String(),
		})
	}
	return RenderUsers(cmd.OutOrStdout(), rows, snapshot.Len(), view.ColorEnabled)
}

func sourceConfig(cfg *config.Config) randomuser.Config {
	return randomuser.Config{
		BaseURL:  cfg.Source.BaseURL,
		PageSize: cfg.Source.PageSize,
		Seed:     cfg.Source.Seed,
		MaxPage:  cfg.Source.MaxPage,
		Timeout:  cfg.Source.Timeout,
		RPS:      cfg.Source.RPS,
		Burst:    cfg.Source.Burst,
	}
}
