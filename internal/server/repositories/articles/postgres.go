package articles

import (
	"context"
	"fmt"

	"github.com/nexuzy/artsync/internal/common"
	"github.com/nexuzy/artsync/internal/dbx"
	"github.com/nexuzy/artsync/internal/mirrorapi"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, a *mirrorapi.Article) error {
	query :=
		`INSERT INTO articles (id, name, mould, size, gender, created_by, created_at, updated_at, image_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			mould = EXCLUDED.mould,
			size = EXCLUDED.size,
			gender = EXCLUDED.gender,
			created_by = EXCLUDED.created_by,
			updated_at = EXCLUDED.updated_at,
			image_url = EXCLUDED.image_url
		 `

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Name, a.Mould, a.Size, a.Gender, a.CreatedBy, a.CreatedAt, a.UpdatedAt, a.ImageURL)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if ra == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, afterID string, limit int) ([]mirrorapi.Article, error) {
	query :=
		`SELECT id, name, mould, size, gender, created_by, created_at, updated_at, image_url
		 FROM articles
		 WHERE id > $1
		 ORDER BY id
		 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []mirrorapi.Article
	for rows.Next() {
		var a mirrorapi.Article
		if err := rows.Scan(&a.ID, &a.Name, &a.Mould, &a.Size, &a.Gender,
			&a.CreatedBy, &a.CreatedAt, &a.UpdatedAt, &a.ImageURL); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
