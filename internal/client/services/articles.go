// Package services holds the client's application logic between the CLI and
// the local store. All writes land locally first; remote propagation is the
// sync engine's job and never blocks a user action.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nexuzy/artsync/internal/client/models"
	"github.com/nexuzy/artsync/internal/client/repositories/articles"
	"github.com/nexuzy/artsync/internal/common"
	"github.com/nexuzy/artsync/internal/dbx"
	"github.com/nexuzy/artsync/internal/logging"
)

// SyncTrigger is the slice of the sync engine the services need: nudging a
// pass after a local write and immediate propagation of deletes and user
// records.
type SyncTrigger interface {
	Kick()
	PropagateArticleDelete(ctx context.Context, id string) error
	PropagateUserDelete(ctx context.Context, id string) error
	PushUser(ctx context.Context, u *models.User) error
}

// id collisions are practically impossible; the retry covers them anyway.
const idRetries = 3

type ArticleService struct {
	db     *sql.DB
	sync   SyncTrigger
	logger logging.Logger

	newID func() string
	now   func() time.Time
}

func NewArticleService(db *sql.DB, sync SyncTrigger, logger logging.Logger) *ArticleService {
	return &ArticleService{
		db:     db,
		sync:   sync,
		logger: logger.With("component", "articles"),
		newID:  common.NewArticleID,
		now:    time.Now,
	}
}

func (s *ArticleService) getArticleRepo(db dbx.DBTX) articles.Repository {
	return articles.NewSQLiteRepository(db)
}

type ArticleInput struct {
	Name      string
	Mould     string
	Size      string
	Gender    string
	ImagePath string
}

// Create validates the input, stores the article locally in PENDING state
// and nudges the sync engine. The article id is generated here; callers
// never pick ids.
func (s *ArticleService) Create(ctx context.Context, in ArticleInput, createdBy string) (*models.Article, error) {
	now := s.now().UTC()
	a := &models.Article{
		Name:      in.Name,
		Mould:     in.Mould,
		Size:      in.Size,
		Gender:    in.Gender,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
		ImagePath: in.ImagePath,
		SyncState: models.SyncPending,
	}

	repo := s.getArticleRepo(s.db)
	for attempt := 0; attempt < idRetries; attempt++ {
		a.ID = s.newID()
		if err := a.Validate(); err != nil {
			return nil, err
		}
		err := repo.Insert(ctx, a)
		if err == nil {
			s.logger.Info(ctx, "article created", "id", a.ID)
			s.sync.Kick()
			return a, nil
		}
		if !errors.Is(err, common.ErrAlreadyExists) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: could not allocate a unique article id", common.ErrLocalStore)
}

// Update replaces the article's editable attributes. Empty input fields keep
// the stored value. Every update puts the record back into PENDING state
// with a fresh UpdatedAt, so the sync engine pushes the newest version.
// The read-modify-write runs in a single transaction so a concurrent sync
// pass cannot interleave between the read and the write.
func (s *ArticleService) Update(ctx context.Context, id string, in ArticleInput) (*models.Article, error) {
	var a *models.Article

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.getArticleRepo(tx)

		var err error
		a, err = repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if in.Name != "" {
			a.Name = in.Name
		}
		if in.Mould != "" {
			a.Mould = in.Mould
		}
		if in.Size != "" {
			a.Size = in.Size
		}
		if in.Gender != "" {
			a.Gender = in.Gender
		}
		if in.ImagePath != "" {
			a.ImagePath = in.ImagePath
		}
		if err := a.Validate(); err != nil {
			return err
		}

		a.UpdatedAt = s.now().UTC()
		a.SyncState = models.SyncPending
		return repo.Upsert(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "article updated", "id", a.ID)
	s.sync.Kick()
	return a, nil
}

// Delete removes the article locally and attempts immediate remote
// propagation. The local delete is authoritative: a failed or offline
// remote delete is logged by the engine and never undoes the local one.
func (s *ArticleService) Delete(ctx context.Context, id string) error {
	if err := s.getArticleRepo(s.db).Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "article deleted", "id", id)
	_ = s.sync.PropagateArticleDelete(ctx, id)
	return nil
}

func (s *ArticleService) Get(ctx context.Context, id string) (*models.Article, error) {
	return s.getArticleRepo(s.db).GetByID(ctx, id)
}

func (s *ArticleService) List(ctx context.Context) ([]models.Article, error) {
	return s.getArticleRepo(s.db).GetAll(ctx)
}

// Status reports total and pending article counts for the status display.
func (s *ArticleService) Status(ctx context.Context) (total int, pending int, err error) {
	return s.getArticleRepo(s.db).Counts(ctx)
}
