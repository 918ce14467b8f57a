package app

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/agentstation/favmerge/cmd/favmerge/cmd/completion"
	"github.com/agentstation/favmerge/cmd/favmerge/cmd/export"
	"github.com/agentstation/favmerge/cmd/favmerge/cmd/merge"
	"github.com/agentstation/favmerge/cmd/favmerge/cmd/show"
	"github.com/agentstation/favmerge/cmd/favmerge/cmd/validate"
	"github.com/agentstation/favmerge/internal/cmd/cmdutil"
	"github.com/agentstation/favmerge/internal/cmd/output"
)

// Execute runs the favmerge CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	// Read an explicit config file before commands take their defaults from it
	if path := configFileFromArgs(args); path != "" {
		config, err := LoadConfig(path)
		if err != nil {
			return err
		}
		a.config = config
	}

	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)

	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "favmerge",
		Short:   "Merge favorites thread exports into one database",
		Version: a.version,
		Long: `favmerge reconciles favorites thread lists exported from several places
into a single database.

Inputs may be favmerge databases (json, yaml, sqlite) or the favorites
page saved as HTML or MHTML. Threads are matched by URL; tags are
unioned, empty fields are filled and real disagreements are settled
interactively or by a configured resolver.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	// Add command groups
	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands:",
	})

	// Add global flags; defaults come from the loaded config
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.config.ConfigFile, "config", a.config.ConfigFile, "config file (default is $HOME/.favmerge.yaml)")
	flags.BoolVarP(&a.config.Verbose, "verbose", "v", a.config.Verbose, "verbose output (shortcut for --log-level=debug)")
	flags.BoolVarP(&a.config.Quiet, "quiet", "q", a.config.Quiet, "minimal output (shortcut for --log-level=warn)")
	flags.BoolVar(&a.config.NoColor, "no-color", a.config.NoColor, "disable colored output")
	flags.StringVarP(&a.config.Format, "format", "o", a.config.Format, "output format: table, json, yaml, wide, markdown")
	flags.StringVar(&a.config.LogLevel, "log-level", a.config.LogLevel, "log level: trace, debug, info, warn, error (overrides -v/-q)")

	_ = rootCmd.RegisterFlagCompletionFunc("format", cmdutil.CompleteValues(
		string(output.FormatTable), string(output.FormatWide), string(output.FormatJSON),
		string(output.FormatYAML), string(output.FormatMarkdown)))
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", cmdutil.CompleteValues(
		"trace", "debug", "info", "warn", "error"))

	rootCmd.SetVersionTemplate("favmerge {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	if _, err := output.ParseFormat(a.config.Format); err != nil {
		return err
	}

	// Reinitialize logger with flag values
	logger := NewLogger(a.config)
	a.logger = &logger

	a.logger.Debug().
		Str("command", cmd.Name()).
		Str("config", a.config.ConfigFile).
		Msg("Starting command")
	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(merge.NewCommand(a))
	rootCmd.AddCommand(show.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(validate.NewCommand(a))
	rootCmd.AddCommand(export.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(completion.NewCommand())
	rootCmd.AddCommand(a.newVersionCommand())
}

// newVersionCommand creates the version command.
func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "favmerge %s\n", a.version)
			if a.config.Verbose {
				_, _ = fmt.Fprintf(w, "  commit:   %s\n", a.commit)
				_, _ = fmt.Fprintf(w, "  built:    %s\n", a.date)
				_, _ = fmt.Fprintf(w, "  built by: %s\n", a.builtBy)
				_, _ = fmt.Fprintf(w, "  go:       %s\n", runtime.Version())
				_, _ = fmt.Fprintf(w, "  platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			}
		},
	}
}

// ExitOnError is a helper that prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
