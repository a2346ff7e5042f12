package database

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrDuplicateKey        = errors.New("duplicate key")
	ErrForeignKeyViolation = errors.New("foreign key violation")
	ErrCheckViolation      = errors.New("check constraint violation")
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// CheckPostgresError maps constraint violations reported by lib/pq onto the
// sentinel errors above. Other errors are returned unchanged.
func CheckPostgresError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case codeUniqueViolation:
		return fmt.Errorf("%w [%s]", ErrDuplicateKey, pqErr.Detail)
	case codeForeignKeyViolation:
		return fmt.Errorf("%w [%s]", ErrForeignKeyViolation, pqErr.Detail)
	case codeCheckViolation:
		return fmt.Errorf("%w [%s]", ErrCheckViolation, pqErr.Detail)
	}
	return err
}
