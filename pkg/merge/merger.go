package merge

import (
	"context"
	"fmt"
	"time"

	"github.com/agentstation/favmerge/pkg/differ"
	"github.com/agentstation/favmerge/pkg/errors"
	"github.com/agentstation/favmerge/pkg/favorites"
	"github.com/agentstation/favmerge/pkg/logging"
	"github.com/agentstation/favmerge/pkg/provenance"
)

// BaseSource labels the base dataset in errors and provenance.
const BaseSource = "base"

// Merger folds incoming datasets into a base dataset.
// A Merger holds no per-merge state and may be reused.
type Merger struct {
	resolver Resolver
	atomic   bool
	tracking bool
	differ   differ.Differ
}

// New creates a Merger with options.
func New(opts ...Option) (*Merger, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &Merger{
		resolver: options.resolver,
		atomic:   options.atomic,
		tracking: options.tracking,
		differ:   options.differ,
	}, nil
}

// mergeContext holds shared state for one Merge call.
type mergeContext struct {
	base       *favorites.Dataset
	provenance provenance.Tracker
}

// Merge folds each incoming dataset into base, in the order given, mutating
// base in place. Every record of a dataset is merged or queued before the
// conflicts of that dataset are resolved, and each resolution is committed
// before the next case is shown, so later datasets see earlier answers.
//
// Invalid inputs are rejected with a *errors.MalformedInputError before base
// is touched. A resolver error stops the merge with a *errors.AbortError;
// work committed up to that point stays in base unless WithAtomic was set.
// ctx is only handed to the resolver.
func (m *Merger) Merge(ctx context.Context, base *favorites.Dataset, incoming ...favorites.Incoming) (*Result, error) {
	result := NewResult()
	ctx = logging.WithMergeID(ctx, result.ID.String())
	logger := logging.FromContext(ctx)

	// Step 1: Validate everything up front
	if err := validateInputs(base, incoming); err != nil {
		logger.Warn().Err(err).Msg("Rejected merge input")
		return nil, err
	}

	// Step 2: Snapshot for the changeset and for atomic restore
	before := base.Clone()
	mctx := &mergeContext{
		base:       base,
		provenance: provenance.NewTracker(m.tracking),
	}

	// Step 3: Merge datasets strictly in order
	for _, in := range incoming {
		stats, err := m.mergeDataset(logging.WithSource(ctx, in.Name), mctx, in)
		result.Sources = append(result.Sources, stats)
		if err != nil {
			if m.atomic {
				base.Restore(before)
				logger.Info().Msg("Restored base dataset after failed merge")
			}
			return nil, err
		}
	}

	// Step 4: Build result
	result.Dataset = base
	result.Changeset = m.differ.Datasets(before, base)
	result.Provenance = mctx.provenance.Map()
	result.Finalize()

	logger.Info().
		Int("sources", len(incoming)).
		Int("records", base.Len()).
		Dur("duration", result.Duration).
		Msg("Merge completed")

	return result, nil
}

// validateInputs checks the base and every incoming dataset.
func validateInputs(base *favorites.Dataset, incoming []favorites.Incoming) error {
	if base == nil {
		return &errors.ValidationError{Field: "base", Message: "cannot be nil"}
	}
	if err := base.Validate(BaseSource); err != nil {
		return err
	}
	for i, in := range incoming {
		if in.Dataset == nil {
			return &errors.ValidationError{
				Field:   fmt.Sprintf("incoming[%d]", i),
				Value:   in.Name,
				Message: "dataset cannot be nil",
			}
		}
		if !in.Kind.Valid() {
			return &errors.ValidationError{
				Field:   fmt.Sprintf("incoming[%d].kind", i),
				Value:   in.Kind,
				Message: "must be advisory or authoritative",
			}
		}
		if err := in.Dataset.Validate(in.Name); err != nil {
			return err
		}
	}
	return nil
}

// mergeDataset merges one incoming dataset and resolves its conflict queue.
func (m *Merger) mergeDataset(ctx context.Context, mctx *mergeContext, in favorites.Incoming) (SourceStats, error) {
	logger := logging.FromContext(ctx)
	stats := SourceStats{
		Source:  in.Name,
		Kind:    in.Kind,
		Records: in.Dataset.Len(),
	}
	vocabulary := len(favorites.NormalizeTags(mctx.base.Tags))

	// Match and merge every record, queueing conflicts
	var queue []ConflictCase
	for _, rec := range in.Dataset.Records {
		existing, ok := mctx.base.Get(rec.Key)
		if !ok {
			mctx.base.Put(rec.Clone())
			m.track(mctx, in.Name, favorites.Record{Key: rec.Key}, rec.Normalized(), "inserted")
			stats.Added++
			logger.Debug().Str("key", rec.Key).Msg("Inserted record")
			continue
		}

		fr := MergeFields(existing, rec, in.Kind)
		mctx.base.Put(fr.Merged)
		m.track(mctx, in.Name, existing, fr.Merged, mergeReason(in.Kind))

		switch {
		case fr.HasConflicts():
			queue = append(queue, newConflictCase(in, existing, rec, fr))
			stats.Conflicts++
			logger.Debug().Str("key", rec.Key).Int("fields", len(fr.Conflicts)).Msg("Queued conflict")
		case !fr.Merged.Equal(existing.Normalized()):
			stats.Updated++
			logger.Debug().Str("key", rec.Key).Msg("Merged record")
		default:
			stats.Unchanged++
		}
	}

	// Union the vocabulary
	mctx.base.AddTags(in.Dataset.Tags...)
	stats.TagsAdded = len(mctx.base.Tags) - vocabulary

	// Resolve conflicts in encounter order
	for i := range queue {
		queue[i].Position = i + 1
		queue[i].Total = len(queue)
	}
	for _, c := range queue {
		if err := m.resolve(ctx, mctx, c); err != nil {
			logger.Warn().Err(err).Str("key", c.Key).Msg("Merge aborted")
			return stats, err
		}
		stats.Resolved++
	}

	logger.Info().
		Str("kind", in.Kind.String()).
		Int("added", stats.Added).
		Int("updated", stats.Updated).
		Int("conflicts", stats.Conflicts).
		Int("tags_added", stats.TagsAdded).
		Msg("Merged dataset")

	return stats, nil
}

// resolve asks the resolver about one case and commits the answer.
func (m *Merger) resolve(ctx context.Context, mctx *mergeContext, c ConflictCase) error {
	answer, err := m.resolver.Resolve(logging.WithRecord(ctx, c.Key), c)
	if err != nil {
		return errors.NewAbortError(c.Source, c.Key, err)
	}
	if err := answer.validate(c); err != nil {
		return errors.NewAbortError(c.Source, c.Key, err)
	}

	rec, ok := mctx.base.Get(c.Key)
	if !ok {
		return errors.NewNotFoundError("record", c.Key)
	}
	answer.apply(c, &rec)
	mctx.base.Put(rec)

	if m.tracking {
		now := time.Now()
		for _, f := range c.Fields() {
			d := c.Disputes[f]
			choice := answer[f]
			value := d.Base
			if choice == ChooseIncoming {
				value = d.Incoming
			}
			mctx.provenance.Track(c.Key, f.String(), provenance.Provenance{
				Source:        c.Source,
				Value:         value,
				PreviousValue: d.Base,
				Reason:        "resolved: " + choice.String(),
				Disputed:      true,
				Timestamp:     now,
			})
		}
	}

	logging.FromContext(ctx).Debug().Str("key", c.Key).Msg("Resolved conflict")
	return nil
}

// track records provenance for every field that changed between before and after.
func (m *Merger) track(mctx *mergeContext, source string, before, after favorites.Record, reason string) {
	if !m.tracking {
		return
	}
	update := m.differ.Record(before, after)
	if update == nil {
		return
	}
	now := time.Now()
	for _, change := range update.Changes {
		mctx.provenance.Track(after.Key, change.Path, provenance.Provenance{
			Source:        source,
			Value:         change.NewValue,
			PreviousValue: change.OldValue,
			Reason:        reason,
			Timestamp:     now,
		})
	}
}

func mergeReason(kind favorites.SourceKind) string {
	if kind == favorites.Authoritative {
		return "merged (authoritative title)"
	}
	return "merged"
}
