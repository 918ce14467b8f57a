package merge

import (
	"context"
	"io"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/favmerge/internal/cmd/output"
	"github.com/agentstation/favmerge/internal/cmd/prompt"
	"github.com/agentstation/favmerge/pkg/errors"
	engine "github.com/agentstation/favmerge/pkg/merge"
)

// ResolverPrompt selects the interactive terminal resolver.
const ResolverPrompt = "prompt"

// buildResolver returns the resolver named by name, answering from the
// answers file first when one is given. The returned release func must be
// called once the merge is done.
func buildResolver(name, answersPath string, in io.Reader, out io.Writer) (engine.Resolver, func(), error) {
	release := func() {}
	var resolver engine.Resolver
	if name == ResolverPrompt {
		resolver = promptResolver(in, out)
		if c, ok := resolver.(io.Closer); ok {
			release = func() { _ = c.Close() }
		}
	} else {
		r, err := engine.ResolverByName(name)
		if err != nil {
			return nil, nil, err
		}
		resolver = r
	}

	if answersPath == "" {
		return resolver, release, nil
	}
	answers, err := loadAnswers(answersPath)
	if err != nil {
		release()
		return nil, nil, err
	}
	return engine.Scripted(answers, resolver), release, nil
}

// promptResolver asks on the terminal. When stdin is not a terminal the
// first conflict fails instead of blocking on input that never comes.
func promptResolver(in io.Reader, out io.Writer) engine.Resolver {
	if f, ok := in.(*os.File); ok && !output.IsTerminal(f) {
		return engine.ResolverFunc(func(context.Context, engine.ConflictCase) (engine.Resolution, error) {
			return nil, errors.NewValidationError("resolver", ResolverPrompt,
				"interactive prompt needs a terminal; use --resolver base, incoming or abort, or --answers")
		})
	}
	return prompt.New(in, out)
}

// loadAnswers reads a YAML file mapping record keys to per-field choices:
//
//	https://example.com/thread/1:
//	  title: incoming
//	  description: base
func loadAnswers(path string) (engine.Answers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	var answers engine.Answers
	if err := yaml.Unmarshal(data, &answers); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return answers, nil
}
