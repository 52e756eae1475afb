package preview

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// ProblemsError is returned when a preview found problems with a template. The
// problems are also written to the preview's Errors section.
type ProblemsError struct {
	Template string
	Problems []error
}

// Error implements error.
func (e *ProblemsError) Error() string {
	msgs := lo.Map(e.Problems, func(err error, _ int) string { return err.Error() })
	return fmt.Sprintf("template %s has %d problem(s): %s", e.Template, len(e.Problems), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual problems to errors.Is and errors.As.
func (e *ProblemsError) Unwrap() []error {
	return e.Problems
}

// InvalidPlaceholdersError reports placeholders used by a body which are not in
// the permitted set.
type InvalidPlaceholdersError struct {
	Placeholders []string
}

// Error implements error.
func (e *InvalidPlaceholdersError) Error() string {
	return fmt.Sprintf("Invalid placeholder(s): %s.", listOrNone(e.Placeholders))
}
