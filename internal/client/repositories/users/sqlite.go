package users

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

const timeLayout = time.RFC3339Nano

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const userColumns = `id, username, password_hash, role, last_login, created_at`

func (r *SQLiteRepository) Insert(ctx context.Context, u *models.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Username, u.PasswordHash, u.Role, encodeNullTime(u.LastLogin), encodeTime(u.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.username") {
			return fmt.Errorf("%w: %s", common.ErrUsernameTaken, u.Username)
		}
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: user %s", common.ErrAlreadyExists, u.ID)
		}
		return fmt.Errorf("%w: inserting user: %v", common.ErrLocalStore, err)
	}
	return nil
}

func (r *SQLiteRepository) InsertIfAbsent(ctx context.Context, u *models.User) (bool, error) {
	// Conflicts on either id or username count as "present".
	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`
	res, err := r.db.ExecContext(ctx, query,
		u.ID, u.Username, u.PasswordHash, u.Role, encodeNullTime(u.LastLogin), encodeTime(u.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("%w: importing user: %v", common.ErrLocalStore, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected: %v", common.ErrLocalStore, err)
	}
	return ra == 1, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.getOne(ctx, query, id)
}

func (r *SQLiteRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return r.getOne(ctx, query, username)
}

func (r *SQLiteRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	u, err := scanUser(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: reading user: %v", common.ErrLocalStore, err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: selecting users: %v", common.ErrLocalStore, err)
	}
	defer rows.Close()

	var result []models.User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning user: %v", common.ErrLocalStore, err)
		}
		result = append(result, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating users: %v", common.ErrLocalStore, err)
	}
	return result, nil
}

func (r *SQLiteRepository) UpdateLastLogin(ctx context.Context, id string) error {
	query := `UPDATE users SET last_login = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, encodeTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("%w: updating last login: %v", common.ErrLocalStore, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting user: %v", common.ErrLocalStore, err)
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

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func encodeNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func scanUser(scan func(dest ...any) error) (*models.User, error) {
	var (
		u         models.User
		lastLogin sql.NullString
		createdAt string
	)
	if err := scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &lastLogin, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if u.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("decoding created_at: %w", err)
	}
	if lastLogin.Valid {
		t, err := time.Parse(timeLayout, lastLogin.String)
		if err != nil {
			return nil, fmt.Errorf("decoding last_login: %w", err)
		}
		u.LastLogin = &t
	}
	return &u, nil
}
