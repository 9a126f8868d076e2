package ledger

import (
	"errors"
	"fmt"
)

// Sentinel errors reported by the ledger package.
var (
	// ErrCardNotFound indicates the referenced mess card does not exist.
	ErrCardNotFound = errors.New("card not found")
	// ErrPermissionDenied indicates the caller lacks the required role.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInsufficientBalance indicates a debit would overdraw the card.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrCardInactive indicates the card is blocked for spending.
	ErrCardInactive = errors.New("card is inactive")
)

// ValidationError reports invalid caller input. It is safe to show to users.
type ValidationError struct {
	Field  string // Offending input field.
	Reason string // Human-readable reason.
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StorageError wraps a persistence failure. The cause is logged by the
// processor and never shown to users; callers see only the operation name.
type StorageError struct {
	Op  string // Failing operation, e.g. "append ledger entry".
	Err error  // Underlying cause.
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure: %s", e.Op)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsStorage reports whether err is a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
