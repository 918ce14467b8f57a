package merge

import (
	"github.com/agentstation/favmerge/pkg/differ"
	"github.com/agentstation/favmerge/pkg/errors"
)

// options configures a Merger.
type options struct {
	resolver Resolver
	atomic   bool
	tracking bool
	differ   differ.Differ
}

func defaultOptions() *options {
	return &options{
		resolver: AbortOnConflict(),
		tracking: true,
		differ:   differ.New(),
	}
}

// Option is a function that configures a Merger.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// newOptions returns merger options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithResolver sets the conflict resolution provider. The default aborts on
// the first conflict.
func WithResolver(resolver Resolver) Option {
	return func(o *options) error {
		if resolver == nil {
			return &errors.ValidationError{
				Field:   "resolver",
				Message: "cannot be nil",
			}
		}
		o.resolver = resolver
		return nil
	}
}

// WithAtomic makes Merge all-or-nothing: on any error the base dataset is
// restored to its state before the call.
func WithAtomic() Option {
	return func(o *options) error {
		o.atomic = true
		return nil
	}
}

// WithProvenance enables or disables field-level tracking.
func WithProvenance(enabled bool) Option {
	return func(o *options) error {
		o.tracking = enabled
		return nil
	}
}

// WithDiffer sets the differ used to build the result changeset.
func WithDiffer(d differ.Differ) Option {
	return func(o *options) error {
		if d == nil {
			return &errors.ValidationError{
				Field:   "differ",
				Message: "cannot be nil",
			}
		}
		o.differ = d
		return nil
	}
}
