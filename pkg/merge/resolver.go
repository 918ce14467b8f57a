package merge

import (
	"context"

	"github.com/agentstation/favmerge/pkg/errors"
)

// ErrAbort is returned by a Resolver to abandon the merge.
var ErrAbort = errors.ErrResolutionAborted

// Resolver answers conflict cases. Resolve is called at most once per case,
// in queue order, and may block (for example on user input). Any error
// aborts the merge.
type Resolver interface {
	Resolve(ctx context.Context, c ConflictCase) (Resolution, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, c ConflictCase) (Resolution, error)

// Resolve calls f(ctx, c).
func (f ResolverFunc) Resolve(ctx context.Context, c ConflictCase) (Resolution, error) {
	return f(ctx, c)
}

// PreferBase keeps the base value of every disputed field.
func PreferBase() Resolver {
	return ResolverFunc(func(_ context.Context, c ConflictCase) (Resolution, error) {
		return All(c, ChooseBase), nil
	})
}

// PreferIncoming takes the incoming value of every disputed field.
func PreferIncoming() Resolver {
	return ResolverFunc(func(_ context.Context, c ConflictCase) (Resolution, error) {
		return All(c, ChooseIncoming), nil
	})
}

// AbortOnConflict abandons the merge at the first conflict.
func AbortOnConflict() Resolver {
	return ResolverFunc(func(context.Context, ConflictCase) (Resolution, error) {
		return nil, ErrAbort
	})
}

// Answers maps record keys to scripted resolutions.
type Answers map[string]Resolution

// Scripted answers conflicts from a fixed table keyed by record key. A case
// with no scripted answer is handed to fallback, or aborts the merge when
// fallback is nil.
func Scripted(answers Answers, fallback Resolver) Resolver {
	return ResolverFunc(func(ctx context.Context, c ConflictCase) (Resolution, error) {
		if r, ok := answers[c.Key]; ok {
			return r, nil
		}
		if fallback != nil {
			return fallback.Resolve(ctx, c)
		}
		return nil, errors.NewNotFoundError("scripted answer", c.Key)
	})
}

// ResolverByName returns a built-in resolver: "base", "incoming" or "abort".
func ResolverByName(name string) (Resolver, error) {
	switch name {
	case "base":
		return PreferBase(), nil
	case "incoming":
		return PreferIncoming(), nil
	case "abort", "":
		return AbortOnConflict(), nil
	}
	return nil, errors.NewValidationError("resolver", name, "must be base, incoming or abort")
}
