// Package remote is the client's operation surface over the remote mirror:
// per-collection upsert, delete and list. All operations are safe to retry;
// upsert and delete are idempotent by id, list has no side effects.
package remote

import (
	"context"

	"github.com/nexuzy/artsync/internal/client/models"
)

type Mirror interface {
	UpsertArticle(ctx context.Context, a *models.Article) error
	DeleteArticle(ctx context.Context, id string) error
	// ListArticles drains the collection, paging internally until exhausted.
	ListArticles(ctx context.Context) ([]models.Article, error)

	UpsertUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]models.User, error)
}
