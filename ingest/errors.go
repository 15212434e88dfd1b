package ingest

import "fmt"

// MemberError attaches the archive and member name to a failure while processing one member or sample.
type MemberError struct {
	Archive string
	Member  string
	Err     error
}

func (e *MemberError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Archive, e.Member, e.Err)
}

func (e *MemberError) Unwrap() error {
	return e.Err
}
