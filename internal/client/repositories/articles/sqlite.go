package articles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nexuzy/artsync/internal/client/models"
	"github.com/nexuzy/artsync/internal/common"
	"github.com/nexuzy/artsync/internal/dbx"
)

// Timestamps are stored as RFC3339Nano text so that the equality check in
// MarkSynced is exact across write/read round trips.
const timeLayout = time.RFC3339Nano

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const articleColumns = `id, name, mould, size, gender, created_by, created_at, updated_at, image_path, sync_state`

func (r *SQLiteRepository) Insert(ctx context.Context, a *models.Article) error {
	query := `INSERT INTO articles (` + articleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Name, a.Mould, a.Size, a.Gender, a.CreatedBy,
		encodeTime(a.CreatedAt), encodeTime(a.UpdatedAt), a.ImagePath, int(a.SyncState))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: article %s", common.ErrAlreadyExists, a.ID)
		}
		return fmt.Errorf("%w: inserting article: %v", common.ErrLocalStore, err)
	}
	return nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, a *models.Article) error {
	query := `INSERT INTO articles (` + articleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			mould = excluded.mould,
			size = excluded.size,
			gender = excluded.gender,
			created_by = excluded.created_by,
			updated_at = excluded.updated_at,
			image_path = excluded.image_path,
			sync_state = excluded.sync_state`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Name, a.Mould, a.Size, a.Gender, a.CreatedBy,
		encodeTime(a.CreatedAt), encodeTime(a.UpdatedAt), a.ImagePath, int(a.SyncState))
	if err != nil {
		return fmt.Errorf("%w: upserting article: %v", common.ErrLocalStore, err)
	}
	return nil
}

func (r *SQLiteRepository) InsertIfAbsent(ctx context.Context, a *models.Article) (bool, error) {
	query := `INSERT INTO articles (` + articleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query,
		a.ID, a.Name, a.Mould, a.Size, a.Gender, a.CreatedBy,
		encodeTime(a.CreatedAt), encodeTime(a.UpdatedAt), a.ImagePath, int(a.SyncState))
	if err != nil {
		return false, fmt.Errorf("%w: importing article: %v", common.ErrLocalStore, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected: %v", common.ErrLocalStore, err)
	}
	return ra == 1, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	a, err := scanArticle(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: reading article: %v", common.ErrLocalStore, err)
	}
	return a, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles ORDER BY created_at DESC`
	return r.queryArticles(ctx, query)
}

func (r *SQLiteRepository) ListPending(ctx context.Context) ([]models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE sync_state = ? ORDER BY created_at ASC`
	return r.queryArticles(ctx, query, int(models.SyncPending))
}

func (r *SQLiteRepository) queryArticles(ctx context.Context, query string, args ...any) ([]models.Article, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: selecting articles: %v", common.ErrLocalStore, err)
	}
	defer rows.Close()

	var result []models.Article
	for rows.Next() {
		a, err := scanArticle(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning article: %v", common.ErrLocalStore, err)
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating articles: %v", common.ErrLocalStore, err)
	}
	return result, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string, expectedUpdatedAt time.Time) (bool, error) {
	query := `UPDATE articles SET sync_state = ?
		WHERE id = ? AND sync_state = ? AND updated_at = ?`
	res, err := r.db.ExecContext(ctx, query,
		int(models.SyncSynced), id, int(models.SyncPending), encodeTime(expectedUpdatedAt))
	if err != nil {
		return false, fmt.Errorf("%w: marking article synced: %v", common.ErrLocalStore, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected: %v", common.ErrLocalStore, err)
	}
	return ra == 1, nil
}

func (r *SQLiteRepository) SetImageURL(ctx context.Context, id string, url string, uploadedFrom string) (bool, error) {
	query := `UPDATE articles SET image_path = ? WHERE id = ? AND image_path = ?`
	res, err := r.db.ExecContext(ctx, query, url, id, uploadedFrom)
	if err != nil {
		return false, fmt.Errorf("%w: setting image url: %v", common.ErrLocalStore, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected: %v", common.ErrLocalStore, err)
	}
	return ra == 1, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting article: %v", common.ErrLocalStore, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %v", common.ErrLocalStore, err)
	}
	if ra != 1 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) Counts(ctx context.Context) (int, int, error) {
	var total, pending int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&total)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: counting articles: %v", common.ErrLocalStore, err)
	}
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM articles WHERE sync_state = ?`, int(models.SyncPending)).Scan(&pending)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: counting pending articles: %v", common.ErrLocalStore, err)
	}
	return total, pending, nil
}

func scanArticle(scan func(dest ...any) error) (*models.Article, error) {
	var (
		a                    models.Article
		createdAt, updatedAt string
		state                int
	)
	if err := scan(&a.ID, &a.Name, &a.Mould, &a.Size, &a.Gender, &a.CreatedBy,
		&createdAt, &updatedAt, &a.ImagePath, &state); err != nil {
		return nil, err
	}
	var err error
	if a.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, fmt.Errorf("decoding created_at: %w", err)
	}
	if a.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, fmt.Errorf("decoding updated_at: %w", err)
	}
	a.SyncState = models.SyncState(state)
	return &a, nil
}
