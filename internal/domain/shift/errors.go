package shift

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyClockedIn = errors.New("already clocked in")
	ErrNoActiveShift    = errors.New("no active shift")
	ErrStorageCorrupt   = errors.New("stored shift data is corrupt")
	ErrInvalidExpense   = errors.New("invalid expense")

	errMissingStartTime = errors.New("start time missing")
)

// CorruptError names the persisted key whose value could not be decoded.
type CorruptError struct {
	Key string
	Err error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Key, ErrStorageCorrupt, e.Err)
}

func (e *CorruptError) Is(target error) bool {
	return target == ErrStorageCorrupt
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}
