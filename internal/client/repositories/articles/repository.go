// Package articles implements local-store persistence for Article records.
package articles

import (
	"context"
	"time"

	"github.com/nexuzy/artsync/internal/client/models"
)

// Repository describes the article operations the UI and the sync engine
// consume. Implementations are backed by the local SQLite database.
type Repository interface {
	// Insert adds a new article in PENDING state. The id must be unique;
	// common.ErrAlreadyExists is returned otherwise.
	Insert(ctx context.Context, a *models.Article) error

	// Upsert creates or fully replaces an article by id.
	Upsert(ctx context.Context, a *models.Article) error

	// InsertIfAbsent inserts the record only when no local record with
	// that id exists, reporting whether a row was written. Used by
	// cold-start import: local data is never overwritten by import.
	InsertIfAbsent(ctx context.Context, a *models.Article) (bool, error)

	GetByID(ctx context.Context, id string) (*models.Article, error)
	GetAll(ctx context.Context) ([]models.Article, error)

	// ListPending returns all articles with sync_state = PENDING, oldest
	// first.
	ListPending(ctx context.Context) ([]models.Article, error)

	// MarkSynced flips the record to SYNCED only if it still carries the
	// expected updatedAt, so an edit made during a push keeps the record
	// pending. It reports whether the flip happened.
	MarkSynced(ctx context.Context, id string, expectedUpdatedAt time.Time) (bool, error)

	// SetImageURL replaces the image path with the uploaded remote URL
	// without touching updatedAt or the sync state. Persisted before the
	// remote write so a retried pass does not re-upload. The write only
	// applies while the record still carries uploadedFrom, so an edit made
	// during the upload keeps its newer local reference. Reports whether
	// the update applied.
	SetImageURL(ctx context.Context, id string, url string, uploadedFrom string) (bool, error)

	// Delete removes the article locally. Remote propagation is the sync
	// engine's concern.
	Delete(ctx context.Context, id string) error

	// Counts returns total and pending article counts.
	Counts(ctx context.Context) (total int, pending int, err error)
}
