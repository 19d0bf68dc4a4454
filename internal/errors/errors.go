package errors

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Sentinel errors shared across repositories and services.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// NotFound wraps ErrNotFound with the entity kind and id for logging.
func NotFound(kind string, id uint64) error {
	return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
}

// IsNotFound reports whether err originates from a missing record,
// either our own sentinel or gorm's.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports whether err is a uniqueness violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey)
}
