package repository

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"votechain-client/database"
	"votechain-client/migrations"
	"votechain-client/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := database.Open(database.DriverSQLite, dsn)
	require.NoError(t, err)
	require.NoError(t, migrations.Migrate(db, slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func TestReceiptRepository_SaveAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewReceiptRepository(setupDB(t))
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"p1", "p2", "p1"} {
		rec := &model.ArchivedReceipt{
			PollID:    id,
			PollTitle: "poll " + id,
			Receipt:   fmt.Sprintf("token-%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Save(ctx, rec))
		assert.NotZero(t, rec.ID)
	}

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "token-2", all[0].Receipt)
	assert.Equal(t, "token-0", all[2].Receipt)

	limited, err := repo.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	byPoll, err := repo.ListByPoll(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, byPoll, 2)
	assert.Equal(t, "poll p1", byPoll[0].PollTitle)
	assert.Nil(t, byPoll[0].Valid)
}

func TestReceiptRepository_SaveDefaultsCreatedAt(t *testing.T) {
	repo := NewReceiptRepository(setupDB(t))
	rec := &model.ArchivedReceipt{PollID: "p1", Receipt: "t"}

	require.NoError(t, repo.Save(context.Background(), rec))
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestReceiptRepository_MarkVerified(t *testing.T) {
	ctx := context.Background()
	repo := NewReceiptRepository(setupDB(t))
	require.NoError(t, repo.Save(ctx, &model.ArchivedReceipt{PollID: "p1", Receipt: "gAAAA=="}))

	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkVerified(ctx, "p1", "gAAAA==", true, at))

	got, err := repo.ListByPoll(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Valid)
	assert.True(t, *got[0].Valid)
	require.NotNil(t, got[0].VerifiedAt)
	assert.True(t, at.Equal(*got[0].VerifiedAt))

	err = repo.MarkVerified(ctx, "p2", "gAAAA==", false, at)
	assert.ErrorIs(t, err, ErrReceiptNotFound)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, migrations.Migrate(db, slog.New(slog.NewTextHandler(io.Discard, nil))))
	assert.True(t, db.Migrator().HasIndex(&database.Receipt{}, "idx_receipts_poll_created"))
}
