// Package matcher matches thread URLs and titles against search patterns.
// A pattern is plain text, a shell-style glob or a regular expression;
// matching is always case-insensitive.
package matcher

import (
	"regexp"
	"strings"

	"github.com/agentstation/favmerge/pkg/errors"
)

// PatternType represents the kind of search pattern.
type PatternType int

const (
	// Substring matches inputs containing the pattern.
	Substring PatternType = iota
	// Glob uses shell-style patterns (*, ?, []) over the whole input.
	Glob
	// Regex uses regular expressions.
	Regex
)

// String returns a string representation of the PatternType.
func (pt PatternType) String() string {
	switch pt {
	case Substring:
		return "substring"
	case Glob:
		return "glob"
	case Regex:
		return "regex"
	default:
		return "unknown"
	}
}

// Matcher matches strings against one compiled pattern.
type Matcher struct {
	pattern     string
	patternType PatternType
	needle      string
	compiled    *regexp.Regexp
}

// New compiles pattern, detecting its type.
func New(pattern string) (*Matcher, error) {
	m := &Matcher{
		pattern:     pattern,
		patternType: Detect(pattern),
	}

	var expr string
	switch m.patternType {
	case Substring:
		m.needle = strings.ToLower(pattern)
		return m, nil
	case Glob:
		expr = GlobToRegex(pattern)
	case Regex:
		expr = pattern
	}

	compiled, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return nil, errors.NewValidationError("search", pattern, "invalid "+m.patternType.String()+" pattern: "+err.Error())
	}
	m.compiled = compiled
	return m, nil
}

// Match reports whether input matches. An empty pattern matches everything.
func (m *Matcher) Match(input string) bool {
	if m.compiled != nil {
		return m.compiled.MatchString(input)
	}
	return strings.Contains(strings.ToLower(input), m.needle)
}

// MatchAny reports whether any of inputs matches.
func (m *Matcher) MatchAny(inputs ...string) bool {
	for _, input := range inputs {
		if m.Match(input) {
			return true
		}
	}
	return false
}

// Pattern returns the original pattern string.
func (m *Matcher) Pattern() string {
	return m.pattern
}

// Type returns the detected pattern type.
func (m *Matcher) Type() PatternType {
	return m.patternType
}

// Detect guesses the type of pattern. Dots and slashes are common in URLs,
// so they do not make a pattern a regex.
func Detect(pattern string) PatternType {
	regexIndicators := []string{
		"^", "$", `\d`, `\w`, `\s`, `\D`, `\W`, `\S`,
		"(?", "{", "}", "+", "|", "(", ")", ".*",
	}
	for _, indicator := range regexIndicators {
		if strings.Contains(pattern, indicator) {
			return Regex
		}
	}

	if strings.ContainsAny(pattern, "*?[") {
		return Glob
	}
	return Substring
}

// GlobToRegex converts a glob pattern to an anchored regex. Unlike
// filepath.Match, * also crosses slashes, so "*/thread/*" matches URLs.
func GlobToRegex(glob string) string {
	var regex strings.Builder
	regex.WriteString("^")

	for i := 0; i < len(glob); i++ {
		switch glob[i] {
		case '*':
			regex.WriteString(".*")
		case '?':
			regex.WriteString(".")
		case '[':
			j := i + 1
			if j < len(glob) && (glob[j] == '!' || glob[j] == '^') {
				regex.WriteString("[^")
				j++
			} else {
				regex.WriteString("[")
			}
			for ; j < len(glob) && glob[j] != ']'; j++ {
				if glob[j] == '\\' && j+1 < len(glob) {
					regex.WriteByte(glob[j])
					j++
				}
				regex.WriteByte(glob[j])
			}
			if j < len(glob) {
				regex.WriteString("]")
				i = j
			} else {
				// Unclosed class, match "[" literally
				return "^" + regexp.QuoteMeta(glob) + "$"
			}
		case '\\':
			if i+1 < len(glob) {
				i++
				regex.WriteString(regexp.QuoteMeta(string(glob[i])))
			}
		default:
			regex.WriteString(regexp.QuoteMeta(string(glob[i])))
		}
	}

	regex.WriteString("$")
	return regex.String()
}
