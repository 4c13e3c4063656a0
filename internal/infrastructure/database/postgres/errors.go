// internal/infrastructure/database/postgres/errors.go
package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/your-org/storefront/internal/pkg/apperror"
)

// Postgres SQLSTATE codes treated as transient contention
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeForeignKeyViolation  = "23503"
)

// translate maps driver errors onto domain error kinds. Contention becomes Conflict so the
// transaction runner retries it; anything unknown is wrapped with op for the logs.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return apperror.Conflict(err, "%s: concurrent update, please retry", op)
		case codeUniqueViolation:
			return apperror.Conflict(err, "%s: duplicate record", op)
		case codeCheckViolation:
			return apperror.InvalidState("%s: value out of range (%s)", op, pgErr.ConstraintName)
		case codeForeignKeyViolation:
			return apperror.InvalidState("%s: record is still referenced (%s)", op, pgErr.ConstraintName)
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}
