package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced entity is missing.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness violation, e.g. a category name
	// that already exists under case-insensitive comparison.
	ErrDuplicate = errors.New("already exists")
	// ErrForbidden indicates the caller's role does not grant the section.
	ErrForbidden = errors.New("section not allowed for role")
)

// ValidationError reports bad input. It is recoverable, carries a
// human-readable reason and never follows a state change.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PersistenceError reports a failed remote store call. Recoverable by
// retrying; the caller decides whether to retry.
type PersistenceError struct {
	Collection string
	Op         string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NewPersistenceError wraps a store failure.
func NewPersistenceError(op, collection string, err error) error {
	return &PersistenceError{Collection: collection, Op: op, Err: err}
}

// IsPersistence reports whether err is a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// ImportFormatError reports a malformed snapshot document. The import is
// aborted and prior state retained.
type ImportFormatError struct {
	Reason string
}

func (e *ImportFormatError) Error() string {
	return "import: " + e.Reason
}

// NewImportFormatError builds an ImportFormatError.
func NewImportFormatError(reason string) error {
	return &ImportFormatError{Reason: reason}
}

// UserSafeMessage maps an error to a message suitable for display.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case IsValidation(err):
		return err.Error()
	case errors.Is(err, ErrNotFound):
		return "Data tidak ditemukan"
	case errors.Is(err, ErrDuplicate):
		return "Data sudah ada"
	case errors.Is(err, ErrForbidden):
		return "Anda tidak punya akses ke bagian ini"
	case IsPersistence(err):
		return "Gagal menyimpan data, silakan coba lagi"
	default:
		return "Terjadi kesalahan, silakan coba lagi"
	}
}
