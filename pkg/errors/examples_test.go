package errors_test

import (
	"fmt"

	"github.com/agentstation/favmerge/pkg/errors"
)

// Example demonstrates basic error creation and checking.
func Example() {
	err := &errors.NotFoundError{
		Resource: "record",
		ID:       "https://example.com/t/1",
	}

	if errors.IsNotFound(err) {
		fmt.Println("Record not found")
	}

	// Output: Record not found
}

// Example_abort shows how a caller tells an abandoned merge apart from other failures.
func Example_abort() {
	var err error = errors.NewAbortError("old.json", "https://example.com/t/1", errors.ErrResolutionAborted)

	switch {
	case errors.IsAborted(err):
		fmt.Println("merge cancelled by user")
	case errors.IsMalformedInput(err):
		fmt.Println("input rejected")
	default:
		fmt.Println("merge failed")
	}

	// Output: merge cancelled by user
}

// Example_malformedInput shows a rejected dataset.
func Example_malformedInput() {
	err := errors.NewMalformedInputError("fav.html", []string{"duplicate key https://example.com/t/1"})
	fmt.Println(err)

	// Output: malformed dataset fav.html: duplicate key https://example.com/t/1
}
