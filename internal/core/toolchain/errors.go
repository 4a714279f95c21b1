package toolchain

import (
	"errors"
	"fmt"
)

// ErrInvalidFormat is wrapped by every ParseError.
var ErrInvalidFormat = errors.New("invalid toolchain format")

// ParseError reports selector or version text that does not follow the
// grammar. Text is the offending input, verbatim.
type ParseError struct {
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid toolchain %q: %s", e.Text, e.Reason)
	}
	return fmt.Sprintf("invalid toolchain %q: expected a.b.c, a.b, a, main-snapshot[-YYYY-MM-DD], a.b-snapshot[-YYYY-MM-DD], latest or all", e.Text)
}

func (e *ParseError) Unwrap() error {
	return ErrInvalidFormat
}

// IncomparableError is returned when two versions from different families
// are compared. Seeing it outside a test means a caller forgot to narrow a
// candidate set to one family.
type IncomparableError struct {
	A, B Version
}

func (e *IncomparableError) Error() string {
	return fmt.Sprintf("cannot order %s (%s) against %s (%s)", e.A, e.A.Family(), e.B, e.B.Family())
}
