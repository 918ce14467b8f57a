// Package export implements the favmerge export command.
package export

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/favmerge/internal/appcontext"
	"github.com/agentstation/favmerge/internal/cmd/cmdutil"
	"github.com/agentstation/favmerge/pkg/logging"
	"github.com/agentstation/favmerge/pkg/persistence"
	"github.com/agentstation/favmerge/pkg/sources"
)

// NewCommand creates the export command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:     "export SOURCE DEST",
		GroupID: "management",
		Short:   "Convert a favorites file to another format",
		Long: `Export reads any supported favorites file and writes it as a favmerge
database. SOURCE may be .json, .yaml, .db, .html or .mhtml; DEST is
written as json, yaml or sqlite according to its extension or --to.`,
		Example: `  favmerge export fav.html fav_database.json   # Convert a markup export
  favmerge export fav_database.json favs.db    # Move the database into SQLite`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithLogger(cmd.Context(), app.Logger())
			ctx = logging.WithOperation(ctx, "export")
			logger := logging.FromContext(ctx)

			in, err := sources.Load(ctx, args[0])
			if err != nil {
				return err
			}
			if err := in.Dataset.Validate(in.Name); err != nil {
				return err
			}

			format, err := persistence.ParseFormat(to)
			if err != nil {
				return err
			}
			store, err := persistence.Open(args[1], format)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Save(ctx, in.Dataset); err != nil {
				return err
			}

			logger.Info().
				Str("source", args[0]).
				Str("dest", store.Path()).
				Str("format", store.Format().String()).
				Int("threads", in.Dataset.Len()).
				Msg("Exported dataset")
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d threads to %s\n", in.Dataset.Len(), store.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", app.Settings().Store, "Destination format: json, yaml, sqlite (default: from extension)")
	_ = cmd.RegisterFlagCompletionFunc("to", cmdutil.CompleteValues(cmdutil.StoreFormats()...))

	return cmd
}
