package analytics

import (
	"errors"
	"fmt"
)

// ErrorKind classifies expected analytics failures.
type ErrorKind string

const (
	KindInsufficientData ErrorKind = "InsufficientData"
	KindNoData           ErrorKind = "NoData"
	KindDegenerateInput  ErrorKind = "DegenerateInput"
)

// Error is returned for conditions where the data cannot support a result.
// It is data, not a fault: callers branch on Kind and may omit the section.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInsufficientData = &Error{Kind: KindInsufficientData, Message: "insufficient data"}
	ErrNoData           = &Error{Kind: KindNoData, Message: "no data"}
	ErrDegenerateInput  = &Error{Kind: KindDegenerateInput, Message: "degenerate input"}
)

// KindOf extracts the analytics error kind from err.
func KindOf(err error) (ErrorKind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return "", false
}

func insufficient(op string, have, need int) *Error {
	return &Error{
		Kind:    KindInsufficientData,
		Op:      op,
		Message: fmt.Sprintf("need at least %d records, have %d", need, have),
	}
}

func degenerate(op string) *Error {
	return &Error{
		Kind:    KindDegenerateInput,
		Op:      op,
		Message: "all records share one date, regression undefined",
	}
}
