// Package merge implements the favmerge merge command.
package merge

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/agentstation/favmerge/internal/appcontext"
	"github.com/agentstation/favmerge/internal/cmd/cmdutil"
	"github.com/agentstation/favmerge/internal/cmd/output"
	"github.com/agentstation/favmerge/pkg/errors"
	"github.com/agentstation/favmerge/pkg/logging"
	engine "github.com/agentstation/favmerge/pkg/merge"
	"github.com/agentstation/favmerge/pkg/persistence"
	"github.com/agentstation/favmerge/pkg/provenance"
	"github.com/agentstation/favmerge/pkg/sources"
)

// Flags holds the merge command flags.
type Flags struct {
	Store      *cmdutil.StoreFlags
	Out        string
	DryRun     bool
	Resolver   string
	Answers    string
	Atomic     bool
	Provenance string
}

// NewCommand creates the merge command with app dependencies.
func NewCommand(app appcontext.Interface) *cobra.Command {
	settings := app.Settings()
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "merge FILE...",
		GroupID: "core",
		Short:   "Merge favorites exports into the database",
		Long: `Merge reads one or more favorites files and folds them into the base
database in the order given.

New threads are appended. Threads already in the database keep their
title and description unless the incoming value fills an empty field;
titles from HTML and MHTML exports replace stored titles. Any other
disagreement is a conflict that the resolver settles field by field.

Supported inputs: .json, .yaml/.yml, .db/.sqlite, .html/.htm, .mht/.mhtml.
When the base database does not exist a new one is created. Nothing is
saved when the merge is abandoned.`,
		Example: `  favmerge merge fav.html                          # Merge into fav_database.json
  favmerge merge --db favs.db a.json b.mhtml       # Merge two files into SQLite
  favmerge merge --resolver incoming fav.html      # Take incoming values on conflict
  favmerge merge --answers answers.yaml fav.json   # Scripted conflict answers
  favmerge merge --dry-run *.html                  # Count new threads only`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, flags, args)
		},
	}

	flags.Store = cmdutil.AddStoreFlags(cmd, settings)

	resolver := settings.Resolver
	if resolver == "" {
		resolver = ResolverPrompt
	}

	cmd.Flags().StringVar(&flags.Out, "out", "",
		"Write the merged database here instead of --db")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false,
		"Report how many threads would be added without merging")
	cmd.Flags().StringVar(&flags.Resolver, "resolver", resolver,
		"Conflict resolver: prompt, base, incoming, abort")
	cmd.Flags().StringVar(&flags.Answers, "answers", "",
		"YAML file with per-thread conflict answers")
	cmd.Flags().BoolVar(&flags.Atomic, "atomic", settings.Atomic,
		"Leave the database untouched when the merge is abandoned")
	cmd.Flags().StringVar(&flags.Provenance, "provenance", "",
		"Write field provenance to this YAML file")
	_ = cmd.RegisterFlagCompletionFunc("resolver",
		cmdutil.CompleteValues(ResolverPrompt, "base", "incoming", "abort"))
	_ = cmd.MarkFlagFilename("answers", "yaml", "yml")

	return cmd
}

func run(cmd *cobra.Command, app appcontext.Interface, flags *Flags, paths []string) error {
	ctx := logging.WithLogger(cmd.Context(), app.Logger())
	ctx = logging.WithOperation(ctx, "merge")
	logger := logging.FromContext(ctx)
	format := app.Settings().Format

	// Step 1: Open and load the base database
	store, err := flags.Store.Open()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("Failed to close store")
		}
	}()

	base, err := persistence.LoadOrNew(ctx, store)
	if err != nil {
		return err
	}
	if base.Len() == 0 {
		logger.Info().Str("path", store.Path()).Msg("Starting a new database")
	}

	// Step 2: Load incoming files
	incoming, err := sources.LoadAll(ctx, paths...)
	if err != nil {
		return err
	}

	// Step 3: Dry run stops at the preview
	if flags.DryRun {
		summary := engine.Preview(base, incoming...)
		return output.Write(cmd.OutOrStdout(), format, output.PreviewReport(summary))
	}

	// Step 4: Merge
	resolver, release, err := buildResolver(flags.Resolver, flags.Answers, cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer release()
	opts := []engine.Option{
		engine.WithResolver(resolver),
		engine.WithProvenance(flags.Provenance != ""),
	}
	if flags.Atomic {
		opts = append(opts, engine.WithAtomic())
	}
	merger, err := engine.New(opts...)
	if err != nil {
		return err
	}

	result, err := merger.Merge(ctx, base, incoming...)
	if err != nil {
		if errors.IsAborted(err) {
			logger.Warn().Msg("Merge cancelled, nothing saved")
		}
		return err
	}

	// Step 5: Save
	if err := save(ctx, store, flags.Out, result); err != nil {
		return err
	}
	if flags.Provenance != "" {
		if err := provenance.Save(flags.Provenance, result.Provenance); err != nil {
			return err
		}
	}

	logger.Info().Str("summary", result.Summary()).Msg("Saved merged database")
	return output.Write(cmd.OutOrStdout(), format, (*output.MergeReport)(result))
}

// save writes the merged dataset to the base store, or to out when set,
// and records the run in stores that keep history.
func save(ctx context.Context, base persistence.Store, out string, result *engine.Result) error {
	target := base
	if out != "" && out != base.Path() {
		s, err := persistence.Open(out, "")
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		target = s
	}

	if err := target.Save(ctx, result.Dataset); err != nil {
		return err
	}
	if h, ok := target.(persistence.HistoryRecorder); ok {
		if err := h.RecordMerge(ctx, result); err != nil {
			return err
		}
	}
	return nil
}
