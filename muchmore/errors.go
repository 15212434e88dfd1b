package muchmore

import "fmt"

// MalformedAnnotationError reports a document without a root element, with invalid XML or with a
// missing mandatory block. It is fatal for that document only.
type MalformedAnnotationError struct {
	Sentence string
	Block    string
	Reason   string
	Err      error
}

func (e *MalformedAnnotationError) Error() string {
	msg := "malformed annotation"
	if e.Sentence != "" {
		msg += fmt.Sprintf(" in sentence %s", e.Sentence)
	}
	if e.Block != "" {
		msg += fmt.Sprintf(" <%s>", e.Block)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedAnnotationError) Unwrap() error {
	return e.Err
}

// UnsupportedAnnotationError reports content in a block the model does not carry.
type UnsupportedAnnotationError struct {
	Sentence string
	Block    string
	Count    int
}

func (e *UnsupportedAnnotationError) Error() string {
	return fmt.Sprintf("sentence %s: <%s> holds %d elements, expected none", e.Sentence, e.Block, e.Count)
}
