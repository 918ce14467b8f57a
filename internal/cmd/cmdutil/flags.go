// Package cmdutil provides shared flags for favmerge commands.
package cmdutil

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/favmerge/internal/appcontext"
	"github.com/agentstation/favmerge/pkg/constants"
	"github.com/agentstation/favmerge/pkg/persistence"
)

// StoreFlags select the dataset a command reads or writes.
type StoreFlags struct {
	Path   string
	Format string
}

// AddStoreFlags adds --db and --store to a command, defaulting to the
// configured database.
func AddStoreFlags(cmd *cobra.Command, settings appcontext.Settings) *StoreFlags {
	flags := &StoreFlags{}

	path := settings.Database
	if path == "" {
		path = constants.DatabaseFileName
	}

	cmd.Flags().StringVar(&flags.Path, "db", path,
		"Favorites database (json, yaml or sqlite)")
	cmd.Flags().StringVar(&flags.Format, "store", settings.Store,
		"Store format: json, yaml, sqlite (default: from file extension)")
	_ = cmd.RegisterFlagCompletionFunc("store", CompleteValues(StoreFormats()...))

	return flags
}

// StoreFormats lists the store format names accepted by --store.
func StoreFormats() []string {
	return []string{
		persistence.FormatJSON.String(),
		persistence.FormatYAML.String(),
		persistence.FormatSQLite.String(),
	}
}

// CompleteValues returns a shell completion function offering a fixed set
// of flag values.
func CompleteValues(values ...string) cobra.CompletionFunc {
	return func(*cobra.Command, []string, string) ([]cobra.Completion, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

// Open opens the selected store.
func (f *StoreFlags) Open() (persistence.Store, error) {
	format, err := persistence.ParseFormat(f.Format)
	if err != nil {
		return nil, err
	}
	return persistence.Open(f.Path, format)
}
