package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shiksha-labs/prashnagen/pkg/db/dbtest"
	"github.com/shiksha-labs/prashnagen/pkg/db/models"
	"github.com/shiksha-labs/prashnagen/pkg/pagination"
)

type ctxKey struct{}

func TestBaseDB_BindsContext(t *testing.T) {
	db := dbtest.Open(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	withCtx := base.DB(ctx)
	require.NotNil(t, withCtx.Statement)
	require.Equal(t, ctx, withCtx.Statement.Context)

	require.Same(t, db, base.DB(nil))
	require.Same(t, db, base.WithTx(nil).db)
}

func TestKeysetWalksNewestFirst(t *testing.T) {
	db := dbtest.Open(t)
	start := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&models.Board{
			ID:        uuid.New(),
			Name:      "Board " + string(rune('A'+i)),
			Code:      "B",
			IsActive:  true,
			CreatedAt: start.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	var seen []string
	var cursor *pagination.Cursor
	for {
		var rows []models.Board
		require.NoError(t, Keyset(db.Model(&models.Board{}), "", cursor, 2).Find(&rows).Error)
		page := pagination.BuildPage(rows, 2, func(b models.Board) pagination.Cursor {
			return pagination.Cursor{CreatedAt: b.CreatedAt, ID: b.ID}
		})
		for _, b := range page.Items {
			seen = append(seen, b.Name)
		}
		if page.NextCursor == "" {
			break
		}
		var err error
		cursor, err = pagination.ParseCursor(page.NextCursor)
		require.NoError(t, err)
	}
	require.Equal(t, []string{"Board E", "Board D", "Board C", "Board B", "Board A"}, seen)
}
