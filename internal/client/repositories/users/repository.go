// Package users implements local-store persistence for User records.
package users

import (
	"context"

	"github.com/nexuzy/artsync/internal/client/models"
)

type Repository interface {
	// Insert adds a new user. common.ErrUsernameTaken is returned when the
	// username is already in use, common.ErrAlreadyExists for a duplicate id.
	Insert(ctx context.Context, u *models.User) error

	// InsertIfAbsent inserts the record only when no local record with that
	// id exists, reporting whether a row was written.
	InsertIfAbsent(ctx context.Context, u *models.User) (bool, error)

	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetAll(ctx context.Context) ([]models.User, error)

	UpdateLastLogin(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
