package align

import "fmt"

// CountMismatchError is returned when an alignment does not reproduce the expected corpus counts.
type CountMismatchError struct {
	Content  string
	Field    string
	Expected int
	Got      int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("%s: %s count %d, expected %d", e.Content, e.Field, e.Got, e.Expected)
}
