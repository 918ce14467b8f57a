// Package emoji provides status symbols for CLI output.
package emoji

// Symbols shared by the prompt and report output.
const (
	// Success marks a file or step that passed.
	Success = "✓"

	// Error marks a failed check or an answer that was not understood.
	Error = "✗"

	// Warning marks something that needs the user's attention, such as a
	// conflict awaiting an answer.
	Warning = "!"
)
