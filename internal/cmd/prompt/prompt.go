// Package prompt asks the user to settle merge conflicts on the terminal.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/agentstation/favmerge/internal/cmd/emoji"
	"github.com/agentstation/favmerge/pkg/logging"
	"github.com/agentstation/favmerge/pkg/merge"
)

// Resolver is an interactive merge.Resolver. Each disputed field of a case
// is shown with both values and the user picks one, or aborts the merge.
type Resolver struct {
	in  *bufio.Reader
	out io.Writer

	lines chan line // fed by a reader goroutine started on first use
	err   error     // sticky read error once input is exhausted

	done      chan struct{}
	closeOnce sync.Once
}

type line struct {
	text string
	err  error
}

// New creates a Resolver reading answers from in and writing prompts to out.
func New(in io.Reader, out io.Writer) *Resolver {
	return &Resolver{
		in:   bufio.NewReader(in),
		out:  out,
		done: make(chan struct{}),
	}
}

// Close stops the reader goroutine once its pending read returns. Resolve
// must not be called after Close.
func (r *Resolver) Close() error {
	r.closeOnce.Do(func() { close(r.done) })
	return nil
}

// Resolve implements merge.Resolver. End of input aborts the merge.
func (r *Resolver) Resolve(ctx context.Context, c merge.ConflictCase) (merge.Resolution, error) {
	r.printf("\n%s Conflict %d/%d in %s (%s)\n", emoji.Warning, c.Position, c.Total, c.Source, c.Kind)
	r.printf("   %s\n", c.Key)

	resolution := make(merge.Resolution, len(c.Disputes))
	for _, field := range c.Fields() {
		d := c.Disputes[field]
		r.printf("\n   %s\n", field)
		r.printf("     [b] base:     %s\n", display(d.Base))
		r.printf("     [i] incoming: %s\n", display(d.Incoming))

		choice, err := r.ask(ctx, field)
		if err != nil {
			logging.FromContext(ctx).Debug().
				Str("key", c.Key).
				Str("field", field.String()).
				Msg("Conflict prompt abandoned")
			return nil, err
		}
		resolution[field] = choice
	}
	return resolution, nil
}

// ask reads answers until one is valid.
func (r *Resolver) ask(ctx context.Context, field merge.Field) (merge.Choice, error) {
	for {
		if err := ctx.Err(); err != nil {
			return merge.ChooseBase, err
		}

		r.printf("   Keep which %s? [B/i/abort] ", field)
		text, err := r.readLine(ctx)
		if ctx.Err() != nil {
			return merge.ChooseBase, ctx.Err()
		}
		answer := strings.ToLower(strings.TrimSpace(text))
		if err != nil && answer == "" {
			r.printf("\n")
			return merge.ChooseBase, merge.ErrAbort
		}

		switch answer {
		case "", "b", "1":
			return merge.ChooseBase, nil
		case "i", "2":
			return merge.ChooseIncoming, nil
		case "a", "q", "abort", "cancel":
			return merge.ChooseBase, merge.ErrAbort
		}

		choice, parseErr := merge.ParseChoice(answer)
		if parseErr == nil {
			return choice, nil
		}
		r.printf("   %s Please answer b (base), i (incoming) or abort.\n", emoji.Error)
	}
}

// readLine returns the next input line, or ctx's error if ctx ends first.
func (r *Resolver) readLine(ctx context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	if r.lines == nil {
		r.lines = make(chan line, 1)
		go r.scan()
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l := <-r.lines:
		if l.err != nil {
			r.err = l.err
		}
		return l.text, l.err
	}
}

// scan feeds lines until input ends or the resolver is closed. A line read
// after nobody is listening is dropped.
func (r *Resolver) scan() {
	for {
		text, err := r.in.ReadString('\n')
		select {
		case r.lines <- line{text: text, err: err}:
		case <-r.done:
			return
		}
		if err != nil {
			return
		}
	}
}

func (r *Resolver) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

func display(s string) string {
	if s == "" {
		return "(empty)"
	}
	return s
}
