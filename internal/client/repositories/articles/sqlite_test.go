package articles

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/nexuzy/artsync/internal/client/models"
	"github.com/nexuzy/artsync/internal/common"
)

func setupDB(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE articles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			mould TEXT NOT NULL,
			size TEXT NOT NULL,
			gender TEXT NOT NULL,
			created_by TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			image_path TEXT NOT NULL DEFAULT '',
			sync_state INTEGER NOT NULL DEFAULT 0
		)`)
	require.NoError(t, err)

	return NewSQLiteRepository(db)
}

func makeArticle(id string) *models.Article {
	now := time.Now().UTC()
	return &models.Article{
		ID: id, Name: "Runner", Mould: "RX", Size: "M", Gender: "Male",
		CreatedBy: "alice", CreatedAt: now, UpdatedAt: now,
		SyncState: models.SyncPending,
	}
}

func TestInsertAndGet(t *testing.T) {
	repo := setupDB(t)
	ctx := context.Background()

	a := makeArticle("ART-abc123def456")
	require.NoError(t, repo.Insert(ctx, a))

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Name, got.Name)
	assert.True(t, got.UpdatedAt.Equal(a.UpdatedAt))
	assert.Equal(t, models.SyncPending, got.SyncState)

	err = repo.Insert(ctx, a)
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	_, err = repo.GetByID(ctx, "ART-000000000000")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpsertReplaces(t *testing.T) {
	repo := setupDB(t)
	ctx := context.Background()

	a := makeArticle("ART-abc123def456")
	require.NoError(t, repo.Insert(ctx, a))

	a.Name = "Runner v2"
	a.UpdatedAt = a.UpdatedAt.Add(time.Second)
	require.NoError(t, repo.Upsert(ctx, a))

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Runner v2", got.Name)
	assert.True(t, got.UpdatedAt.Equal(a.UpdatedAt))
}

func TestInsertIfAbsent(t *testing.T) {
	repo := setupDB(t)
	ctx := context.Background()

	a := makeArticle("ART-abc123def456")
	inserted, err := repo.InsertIfAbsent(ctx, a)
	require.NoError(t, err)
	assert.True(t, inserted)

	other := makeArticle(a.ID)
	other.Name = "imported copy"
	inserted, err = repo.InsertIfAbsent(ctx, other)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Runner", got.Name)
}

func TestListPending(t *testing.T) {
	repo := setupDB(t)
	ctx := context.Background()

	older := makeArticle("ART-bbb222bbb222")
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	require.NoError(t, repo.Insert(ctx, older))

	newer := makeArticle("ART-aaa111aaa111")
	require.NoError(t, repo.Insert(ctx, newer))

	synced := makeArticle("ART-ccc333ccc333")
	synced.SyncState = models.SyncSynced
	require.NoError(t, repo.Insert(ctx, synced))

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	// Oldest first.
	assert.Equal(t, "ART-bbb222bbb222", pending[0].ID)
	assert.Equal(t, "ART-aaa111aaa111", pending[1].ID)
}

func TestMarkSynced(t *testing.T) {
	repo := setupDB(t)
	ctx := context.Background()

	a := makeArticle("ART-abc123def456")
	require.NoError(t, repo.Insert(ctx, a))

	// A mismatched version must not flip the state.
	flipped, err := repo.MarkSynced(ctx, a.ID, a.UpdatedAt.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, flipped)

	flipped, err = repo.MarkSynced(ctx, a.ID, a.UpdatedAt)
	require.NoError(t, err)
	assert.True(t, flipped)

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncSynced, got.SyncState)

	// Already synced: nothing to flip.
	flipped, err = repo.MarkSynced(ctx, a.ID, a.UpdatedAt)
	require.NoError(t, err)
	assert.False(t, flipped)
}

func TestSetImageURL(t *testing.T) {
	repo := setupDB(t)
	ctx := context.Background()

	a := makeArticle("ART-abc123def456")
	a.ImagePath = "/tmp/shoe.png"
	require.NoError(t, repo.Insert(ctx, a))

	applied, err := repo.SetImageURL(ctx, a.ID, "https://cdn/shoe.png", "/tmp/shoe.png")
	require.NoError(t, err)
	assert.True(t, applied)

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/shoe.png", got.ImagePath)
	// The image swap does not count as an edit.
	assert.True(t, got.UpdatedAt.Equal(a.UpdatedAt))
	assert.Equal(t, models.SyncPending, got.SyncState)
}

func TestSetImageURL_KeepsConcurrentEdit(t *testing.T) {
	repo := setupDB(t)
	ctx := context.Background()

	a := makeArticle("ART-abc123def456")
	a.ImagePath = "/tmp/old.png"
	require.NoError(t, repo.Insert(ctx, a))

	// The user picked a new image after the old one went out for upload.
	a.ImagePath = "/tmp/new.png"
	require.NoError(t, repo.Upsert(ctx, a))

	applied, err := repo.SetImageURL(ctx, a.ID, "https://cdn/old.png", "/tmp/old.png")
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/new.png", got.ImagePath)
}

func TestDelete(t *testing.T) {
	repo := setupDB(t)
	ctx := context.Background()

	a := makeArticle("ART-abc123def456")
	require.NoError(t, repo.Insert(ctx, a))

	require.NoError(t, repo.Delete(ctx, a.ID))
	assert.ErrorIs(t, repo.Delete(ctx, a.ID), common.ErrNotFound)
}

func TestCounts(t *testing.T) {
	repo := setupDB(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, makeArticle("ART-aaa111aaa111")))
	synced := makeArticle("ART-bbb222bbb222")
	synced.SyncState = models.SyncSynced
	require.NoError(t, repo.Insert(ctx, synced))

	total, pending, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, pending)
}
