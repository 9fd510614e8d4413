package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Sentinel errors mapped from driver failures.
var (
	ErrNotFound            = errors.New("postgres: record not found")
	ErrForeignKeyViolation = errors.New("postgres: foreign key violation")
	ErrUniqueViolation     = errors.New("postgres: unique violation")
)

// PostgreSQL SQLSTATE codes.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
)

// MapError wraps a gorm/pgx error with a sentinel the repositories can match.
// The original error stays in the chain.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeForeignKeyViolation:
			return fmt.Errorf("%s: %w: %w", op, ErrForeignKeyViolation, err)
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w: %w", op, ErrUniqueViolation, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// SQLState returns the SQLSTATE code carried by err, or "".
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
