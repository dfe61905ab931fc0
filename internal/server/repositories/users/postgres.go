package users

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

func (r *PostgresRepository) Upsert(ctx context.Context, u *mirrorapi.User) error {
	query :=
		`INSERT INTO users (id, username, role, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			role = EXCLUDED.role
		 `

	_, err := r.db.ExecContext(ctx, query, u.ID, u.Username, u.Role, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
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

func (r *PostgresRepository) List(ctx context.Context, afterID string, limit int) ([]mirrorapi.User, error) {
	query :=
		`SELECT id, username, role, created_at
		 FROM users
		 WHERE id > $1
		 ORDER BY id
		 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []mirrorapi.User
	for rows.Next() {
		var u mirrorapi.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
