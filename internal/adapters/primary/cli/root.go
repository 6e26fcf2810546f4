package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/lorrc/user-directory/internal/config"
)

// RootOptions holds global flags and the dependencies shared by all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	Config *config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the userdir CLI.
func NewRootCommand(cfg *config.Config, logger *slog.Logger) *cobra.Command {
	opts := &RootOptions{Config: cfg, Logger: logger}

	cmd := &cobra.Command{
		Use:   "userdir",
		Short: "Browse the random user directory",
		Long:  "Fetch pages of users, filter them by country and sort them from the command line.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if !opts.Verbose {
				opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log to stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewDeletionsCommand(opts))

	return cmd
}
