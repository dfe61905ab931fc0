// Package users implements mirror-side persistence for user documents. The
// mirror never receives or stores password hashes.
package users

import (
	"context"

	"github.com/nexuzy/artsync/internal/mirrorapi"
)

type Repository interface {
	Upsert(ctx context.Context, u *mirrorapi.User) error

	// Delete removes the document. common.ErrNotFound when absent.
	Delete(ctx context.Context, id string) error

	// List returns up to limit documents with id > afterID, ordered by id.
	List(ctx context.Context, afterID string, limit int) ([]mirrorapi.User, error)
}
