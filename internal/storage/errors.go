package storage

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the local and R2 stores. Callers match them with
// errors.Is through the StorageError wrapper.
var (
	// ErrNotFound is returned when a requested object doesn't exist.
	ErrNotFound = errors.New("object not found")

	// ErrKeyExists is returned when writing to an occupied key with
	// overwrite disabled.
	ErrKeyExists = errors.New("object already exists at this key")

	// ErrInvalidKey is returned for empty keys and keys that resolve
	// outside the store root.
	ErrInvalidKey = errors.New("invalid storage key")

	// ErrTooLarge is returned when an object exceeds PutOptions.MaxSize.
	ErrTooLarge = errors.New("object exceeds maximum size")

	// ErrAccessDenied is returned when the bucket provider refuses the
	// operation.
	ErrAccessDenied = errors.New("access denied")
)

// StorageError wraps a storage failure with the operation and key involved.
// It unwraps to the underlying sentinel for errors.Is checks.
type StorageError struct {
	Op  string // "Put", "Get", "Delete", "URL", "Exists"
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether the error chain contains ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
