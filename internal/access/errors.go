package access

import (
	"errors"
	"fmt"
)

// ErrNotFound covers both "does not exist" and "exists but the principal may
// not see it". Callers must never distinguish the two (anti-enumeration).
var ErrNotFound = errors.New("not found")

// ErrAlreadyGranted marks an idempotent grant re-applied with the same role.
// Services treat it as success.
var ErrAlreadyGranted = errors.New("already granted")

// InvariantError reports a mutation that would break a standing constraint.
// It always carries enough detail for the caller to correct the request.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return "invariant violation: " + e.Reason
}

func Invariantf(format string, args ...any) error {
	return &InvariantError{Reason: fmt.Sprintf(format, args...)}
}
