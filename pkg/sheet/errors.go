package sheet

import (
	"errors"
	"fmt"
)

var (
	// ErrRefused marks a protected mutation the user is not allowed to perform.
	ErrRefused = errors.New("operation refused")
	// ErrIndexOutOfRange is returned for row/column/cell indexes outside the worksheet.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrMalformed marks stored columns/rows that could not be decoded.
	ErrMalformed = errors.New("malformed stored data")
)

// RefusalError carries the user-facing reason a mutation was refused.
type RefusalError struct {
	Op     string
	Reason string
}

func (e *RefusalError) Error() string {
	return e.Reason
}

func (e *RefusalError) Is(target error) bool {
	return target == ErrRefused
}

func refuse(op, reason string) error {
	return &RefusalError{Op: op, Reason: reason}
}

func outOfRange(kind string, index, length int) error {
	return fmt.Errorf("%w: %s %d (have %d)", ErrIndexOutOfRange, kind, index, length)
}
