// Package validate implements the favmerge validate command.
package validate

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentstation/favmerge/internal/appcontext"
	"github.com/agentstation/favmerge/internal/cmd/emoji"
	"github.com/agentstation/favmerge/internal/cmd/output"
	"github.com/agentstation/favmerge/pkg/constants"
	"github.com/agentstation/favmerge/pkg/errors"
	"github.com/agentstation/favmerge/pkg/logging"
	"github.com/agentstation/favmerge/pkg/sources"
)

// FileResult is the validation outcome for one file.
type FileResult struct {
	File     string   `json:"file" yaml:"file"`
	Format   string   `json:"format" yaml:"format"`
	Kind     string   `json:"kind" yaml:"kind"`
	Threads  int      `json:"threads" yaml:"threads"`
	Tags     int      `json:"tags" yaml:"tags"`
	Valid    bool     `json:"valid" yaml:"valid"`
	Problems []string `json:"problems,omitempty" yaml:"problems,omitempty"`
}

// Results renders validation outcomes.
type Results []FileResult

// Tables implements output.Tabular.
func (r Results) Tables(wide bool) []output.Data {
	d := output.Data{
		Headers: []string{"", "File", "Format", "Kind", "Threads", "Tags"},
		ColumnAlignment: []output.Align{
			output.AlignCenter, output.AlignLeft, output.AlignLeft,
			output.AlignLeft, output.AlignRight, output.AlignRight,
		},
	}
	problems := output.Data{Title: "Problems", Headers: []string{"File", "Problem"}}

	for _, f := range r {
		status := emoji.Success
		if !f.Valid {
			status = emoji.Error
		}
		d.Rows = append(d.Rows, []string{
			status, f.File, f.Format, f.Kind, strconv.Itoa(f.Threads), strconv.Itoa(f.Tags),
		})
		for _, p := range f.Problems {
			problems.Rows = append(problems.Rows, []string{f.File, p})
		}
	}

	if len(problems.Rows) == 0 {
		return []output.Data{d}
	}
	return []output.Data{d, problems}
}

// NewCommand creates the validate command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "validate [FILE...]",
		GroupID: "management",
		Short:   "Check favorites files for malformed data",
		Long: `Validate parses each file and checks that thread URLs are unique and
that every tag a thread uses is listed in the tag vocabulary.

With no arguments the configured database is validated.`,
		Example: `  favmerge validate                     # Validate fav_database.json
  favmerge validate fav.html fav.json   # Validate inputs before merging`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				db := app.Settings().Database
				if db == "" {
					db = constants.DatabaseFileName
				}
				args = []string{db}
			}
			return run(cmd, app, args)
		},
	}
}

func run(cmd *cobra.Command, app appcontext.Interface, paths []string) error {
	ctx := logging.WithLogger(cmd.Context(), app.Logger())
	ctx = logging.WithOperation(ctx, "validate")

	results := make(Results, 0, len(paths))
	invalid := 0
	for _, path := range paths {
		res := FileResult{File: path}
		if format, err := sources.FormatFromPath(path); err == nil {
			res.Format = format.String()
		}

		in, err := sources.Load(ctx, path)
		if err == nil {
			res.Kind = in.Kind.String()
			res.Threads = in.Dataset.Len()
			res.Tags = len(in.Dataset.Tags)
			err = in.Dataset.Validate(in.Name)
		}

		switch {
		case err == nil:
			res.Valid = true
		case errors.IsMalformedInput(err):
			var malformed *errors.MalformedInputError
			if errors.As(err, &malformed) {
				res.Problems = malformed.Problems
			}
		default:
			res.Problems = []string{err.Error()}
		}
		if !res.Valid {
			invalid++
		}
		results = append(results, res)
	}

	if err := output.Write(cmd.OutOrStdout(), app.Settings().Format, results); err != nil {
		return err
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d files failed validation: %w", invalid, len(paths), errors.ErrMalformedInput)
	}
	return nil
}
