package scan

import "fmt"

// NestingError reports unbalanced conditional directives. It is fatal for the
// whole run.
type NestingError struct {
	File      string
	Line      int
	Directive DirectiveKind
	// Unclosed is set when an #if is still open at end of file; Line is
	// then the line of that #if.
	Unclosed bool
}

func (e *NestingError) Error() string {
	if e.Unclosed {
		return fmt.Sprintf("%s:%d: Nesting error (unclosed %s)", e.File, e.Line, e.Directive)
	}
	return fmt.Sprintf("%s:%d: Nesting error (%s without #if)", e.File, e.Line, e.Directive)
}
