package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	pkgerrors "github.com/shiksha-labs/prashnagen/pkg/errors"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// IsUniqueViolation reports whether err is a unique constraint violation. When
// constraintName is provided the error must also reference that constraint.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if !matchesViolation(err, pgUniqueViolation, "duplicate key value", "UNIQUE constraint failed") {
		return false
	}
	return constraintName == "" || strings.Contains(err.Error(), constraintName) || constraintMatches(err, constraintName)
}

// IsForeignKeyViolation reports whether err references a missing parent row.
func IsForeignKeyViolation(err error) bool {
	return matchesViolation(err, pgForeignKeyViolation, "violates foreign key constraint", "FOREIGN KEY constraint failed")
}

// IsCheckViolation reports whether err came from a CHECK constraint.
func IsCheckViolation(err error) bool {
	return matchesViolation(err, pgCheckViolation, "violates check constraint", "CHECK constraint failed")
}

// IsNotFound reports whether err is gorm's record-not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func matchesViolation(err error, sqlState string, markers ...string) bool {
	if err == nil {
		return false
	}
	if pkgerrors.PostgresCode(err) == sqlState {
		return true
	}
	msg := err.Error()
	for _, marker := range markers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func constraintMatches(err error, constraintName string) bool {
	return pkgerrors.Dump(err).PGConstraint == constraintName
}
