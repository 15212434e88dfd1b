package coref

import (
	"fmt"
	"strings"
)

// MalformedConceptError reports a concept line that does not follow `c="..." L:T L:T||t="..."`.
type MalformedConceptError struct {
	Line   string
	Reason string
	Err    error
}

func (e *MalformedConceptError) Error() string {
	msg := fmt.Sprintf("malformed concept line %q: %s", e.Line, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedConceptError) Unwrap() error {
	return e.Err
}

// CrossLineSpanError reports a concept whose start and end markers are on different lines.
type CrossLineSpanError struct {
	SampleID  string
	StartLine int
	EndLine   int
	Line      string
}

func (e *CrossLineSpanError) Error() string {
	return fmt.Sprintf("sample %s: concept spans lines %d to %d: %q", e.SampleID, e.StartLine, e.EndLine, e.Line)
}

// OffsetMismatchError reports declared concept tokens that differ from the tokens at the declared offsets.
type OffsetMismatchError struct {
	SampleID string
	Declared []string
	Resolved []string
	Line     string
}

func (e *OffsetMismatchError) Error() string {
	return fmt.Sprintf("sample %s: declared tokens [%s] resolve to [%s]: %q",
		e.SampleID, strings.Join(e.Declared, " "), strings.Join(e.Resolved, " "), e.Line)
}
