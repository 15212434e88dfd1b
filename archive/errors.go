package archive

import "fmt"

// EncodingError reports a member whose decoded text does not survive the output round trip.
// It is fatal for the whole archive.
type EncodingError struct {
	Member     string
	Encoding   string
	Guess      string
	Confidence int
	Err        error
}

func (e *EncodingError) Error() string {
	msg := fmt.Sprintf("member %s does not round-trip as %s (detected %s, confidence %d)",
		e.Member, e.Encoding, e.Guess, e.Confidence)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}
