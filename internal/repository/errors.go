package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

const pgUniqueViolation = "23505"

// UniqueViolation reports which field collided with an existing row.
type UniqueViolation struct {
	Field string
	Err   error
}

func (e *UniqueViolation) Error() string {
	return fmt.Sprintf("unique constraint violated on %s", e.Field)
}

func (e *UniqueViolation) Unwrap() error {
	return e.Err
}

// translate maps driver errors onto the package's error values.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if field, ok := uniqueField(err); ok {
		return &UniqueViolation{Field: field, Err: err}
	}
	return err
}

func uniqueField(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return "", false
		}
		column := pgErr.ColumnName
		if column == "" {
			// gorm names unique indexes idx_<table>_<column>
			column = strings.TrimPrefix(pgErr.ConstraintName, "idx_"+pgErr.TableName+"_")
		}
		return camelCase(column), true
	}

	// sqlite: "UNIQUE constraint failed: merchants.phone_number"
	const marker = "UNIQUE constraint failed: "
	msg := err.Error()
	if i := strings.Index(msg, marker); i >= 0 {
		target := strings.SplitN(msg[i+len(marker):], ",", 2)[0]
		if dot := strings.LastIndex(target, "."); dot >= 0 {
			target = target[dot+1:]
		}
		return camelCase(strings.TrimSpace(target)), true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "field", true
	}
	return "", false
}

func camelCase(snake string) string {
	parts := strings.Split(snake, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}
