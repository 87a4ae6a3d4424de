package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/shiksha-labs/prashnagen/pkg/pagination"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// WithTx returns a copy bound to the transaction handle; nil keeps the current handle.
func (b Base) WithTx(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Keyset orders newest first on (created_at, id) and applies the cursor and buffered limit.
// column prefixes may be empty or a table alias such as "q.".
func Keyset(q *gorm.DB, prefix string, cursor *pagination.Cursor, limit int) *gorm.DB {
	if cursor != nil {
		q = q.Where("("+prefix+"created_at < ?) OR ("+prefix+"created_at = ? AND "+prefix+"id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	return q.Order(prefix + "created_at DESC").Order(prefix + "id DESC").Limit(pagination.LimitWithBuffer(limit))
}
