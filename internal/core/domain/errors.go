package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyInput         = errors.New("empty input")
	ErrUnsupportedFormat  = errors.New("unsupported format")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrTemporary          = errors.New("temporary failure")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrStorageKeyConflict = errors.New("storage key conflict")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
