package tiny

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/vito/tiny/pkg/ast"
)

// SourceLocatable is any error or node that knows where it came from.
type SourceLocatable interface {
	GetSourceLocation() *ast.SourceLocation
}

// SourceError represents an error with source location information
type SourceError struct {
	Inner    error
	Location *ast.SourceLocation
	Source   string // The contents of the tree file
}

// NewSourceError creates a new SourceError
func NewSourceError(inner error, location *ast.SourceLocation, source string) *SourceError {
	return &SourceError{
		Inner:    inner,
		Location: location,
		Source:   source,
	}
}

// WithSource attaches source to err if anything in its chain carries a
// location. Other errors are returned unchanged.
func WithSource(err error, source string) error {
	if err == nil {
		return nil
	}
	var sourceErr *SourceError
	if errors.As(err, &sourceErr) {
		return err
	}
	var located SourceLocatable
	if errors.As(err, &located) && located.GetSourceLocation() != nil {
		return NewSourceError(err, located.GetSourceLocation(), source)
	}
	return err
}

func (e *SourceError) Unwrap() error {
	return e.Inner
}

func (e *SourceError) Error() string {
	if e.Location == nil {
		return e.Inner.Error()
	}

	return e.FormatWithHighlighting()
}

// FormatWithHighlighting returns the error with the offending line and a
// caret underline
func (e *SourceError) FormatWithHighlighting() string {
	lines := strings.Split(e.Source, "\n")
	if e.Location == nil || e.Location.Line < 1 || e.Location.Line > len(lines) {
		return e.Inner.Error()
	}

	const (
		red   = "\033[31m"
		blue  = "\033[34m"
		bold  = "\033[1m"
		reset = "\033[0m"
		dim   = "\033[2m"
	)

	var result strings.Builder

	result.WriteString(fmt.Sprintf("%s%sError:%s %s\n", bold, red, reset, e.Inner))
	result.WriteString(fmt.Sprintf("  %s%s--> %s%s\n", dim, blue, e.Location, reset))
	result.WriteString(fmt.Sprintf(" %s%s |%s\n", dim, padLeft("", 3), reset))

	startLine := max(1, e.Location.Line-2)
	endLine := min(len(lines), e.Location.Line+2)

	for i := startLine; i <= endLine; i++ {
		lineNo := padLeft(fmt.Sprintf("%d", i), 3)
		if i != e.Location.Line {
			result.WriteString(fmt.Sprintf(" %s%s | %s%s\n", dim, lineNo, lines[i-1], reset))
			continue
		}

		result.WriteString(fmt.Sprintf(" %s%s%s%s | %s%s\n", dim, blue, bold, lineNo, reset, lines[i-1]))

		// 1 space + 3 for line number + " | " + column offset
		padding := strings.Repeat(" ", 1+3+3+max(0, e.Location.Column-1))
		underline := strings.Repeat("^", max(1, e.Location.Length))
		result.WriteString(fmt.Sprintf("%s%s%s%s%s\n", dim, padding, red, underline, reset))
	}

	result.WriteString(fmt.Sprintf(" %s%s |%s\n", dim, padLeft("", 3), reset))

	return result.String()
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}
