package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured means the spreadsheet id or service credentials are missing.
	ErrNotConfigured = errors.New("backing store not configured")
	// ErrBackendUnavailable wraps transient network and quota failures.
	ErrBackendUnavailable = errors.New("backing store unavailable")
	ErrEntityNotFound     = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrIllegalTransition  = errors.New("illegal custody transition")
	ErrMalformedRow       = errors.New("malformed row")
)

// MalformedRowError reports a row that violates a decode invariant.
type MalformedRowError struct {
	Sheet  string
	Row    int // 1-based sheet row, 0 when unknown
	Reason string
}

func (e *MalformedRowError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("malformed row %s!%d: %s", e.Sheet, e.Row, e.Reason)
	}
	return fmt.Sprintf("malformed %s row: %s", e.Sheet, e.Reason)
}

func (e *MalformedRowError) Is(target error) bool {
	return target == ErrMalformedRow
}
