// Package articles implements mirror-side persistence for article documents.
package articles

import (
	"context"

	"github.com/nexuzy/artsync/internal/mirrorapi"
)

type Repository interface {
	// Upsert creates or fully replaces the document with the given id. The
	// newest client write always wins; there is no version comparison.
	Upsert(ctx context.Context, a *mirrorapi.Article) error

	// Delete removes the document. common.ErrNotFound when absent.
	Delete(ctx context.Context, id string) error

	// List returns up to limit documents with id > afterID, ordered by id.
	List(ctx context.Context, afterID string, limit int) ([]mirrorapi.Article, error)
}
