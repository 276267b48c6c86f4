package repository

import (
	"errors"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"

	"gorm.io/gorm"
)

// duplicate translates a storage-layer uniqueness violation into a
// business-level conflict so raw driver errors never reach callers. Any
// other error passes through unchanged.
func duplicate(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.NewConflictError(format, args...)
	}
	return err
}
