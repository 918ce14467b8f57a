// Package show implements the favmerge show command.
package show

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/favmerge/internal/appcontext"
	"github.com/agentstation/favmerge/internal/cmd/cmdutil"
	"github.com/agentstation/favmerge/internal/cmd/output"
	"github.com/agentstation/favmerge/internal/matcher"
	"github.com/agentstation/favmerge/pkg/errors"
	"github.com/agentstation/favmerge/pkg/favorites"
	"github.com/agentstation/favmerge/pkg/logging"
	"github.com/agentstation/favmerge/pkg/persistence"
)

// Flags holds the show command flags.
type Flags struct {
	Store   *cmdutil.StoreFlags
	Tag     string
	Search  string
	Limit   int
	History bool
}

// NewCommand creates the show command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "show",
		GroupID: "core",
		Short:   "List threads in the database",
		Example: `  favmerge show                        # All threads
  favmerge show --tag news -o wide     # Threads tagged news, all fields
  favmerge show --search '*/thread/4*' # Threads whose URL matches a glob
  favmerge show --db favs.db --history # Merge history of a SQLite database`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app, flags)
		},
	}

	flags.Store = cmdutil.AddStoreFlags(cmd, app.Settings())
	cmd.Flags().StringVar(&flags.Tag, "tag", "", "Only threads with this tag")
	cmd.Flags().StringVar(&flags.Search, "search", "", "Only threads whose URL or title matches this text, glob or regex")
	cmd.Flags().IntVarP(&flags.Limit, "limit", "l", 0, "Limit number of results")
	cmd.Flags().BoolVar(&flags.History, "history", false, "Show merge history (sqlite only)")

	return cmd
}

func run(cmd *cobra.Command, app appcontext.Interface, flags *Flags) error {
	ctx := logging.WithLogger(cmd.Context(), app.Logger())
	format := app.Settings().Format

	store, err := flags.Store.Open()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if flags.History {
		recorder, ok := store.(persistence.HistoryRecorder)
		if !ok {
			return errors.NewValidationError("history", store.Path(),
				"only sqlite databases keep merge history")
		}
		entries, err := recorder.History(ctx, flags.Limit)
		if err != nil {
			return err
		}
		return output.Write(cmd.OutOrStdout(), format, output.HistoryList(entries))
	}

	d, err := store.Load(ctx)
	if err != nil {
		return err
	}
	records, err := Filter(d.Records, flags.Tag, flags.Search, flags.Limit)
	if err != nil {
		return err
	}
	return output.Write(cmd.OutOrStdout(), format, records)
}

// Filter returns the records carrying tag whose URL or title matches the
// search pattern, capped at limit when limit is positive.
func Filter(records []favorites.Record, tag, search string, limit int) (output.RecordList, error) {
	m, err := matcher.New(search)
	if err != nil {
		return nil, err
	}

	filtered := output.RecordList{}
	for _, r := range records {
		if tag != "" && !favorites.HasTag(r.Tags, tag) {
			continue
		}
		if !m.MatchAny(r.Key, r.Title) {
			continue
		}
		filtered = append(filtered, r)
		if limit > 0 && len(filtered) == limit {
			break
		}
	}
	return filtered, nil
}
