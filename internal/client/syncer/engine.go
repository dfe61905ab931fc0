// Package syncer contains the offline-first synchronization engine.
//
// The local store is the single source of truth; the mirror is a passive
// copy plus a secondary source during cold-start import. Conflict policy is
// strictly local-wins: the most recent local write fully overwrites whatever
// the mirror holds for that id, with no version check. This is safe only
// under a single active writer per record.
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/nexuzy/artsync/internal/client/imagecache"
	"github.com/nexuzy/artsync/internal/client/models"
	"github.com/nexuzy/artsync/internal/client/remote"
	"github.com/nexuzy/artsync/internal/client/repositories/articles"
	"github.com/nexuzy/artsync/internal/client/repositories/users"
	"github.com/nexuzy/artsync/internal/client/upload"
	"github.com/nexuzy/artsync/internal/common"
	"github.com/nexuzy/artsync/internal/logging"
)

// Engine drives cold-start import, outbound push of pending records,
// immediate delete propagation and the periodic reconciliation loop.
type Engine struct {
	articles articles.Repository
	users    users.Repository
	mirror   remote.Mirror
	uploader upload.Uploader
	online   func() bool
	images   *imagecache.Cache // optional
	logger   logging.Logger
	interval time.Duration

	// passMu guards the whole reconciliation pass: the timer must not
	// start a new pass while a previous one is still running.
	passMu sync.Mutex
	kick   chan struct{}
}

type Options struct {
	Articles articles.Repository
	Users    users.Repository
	Mirror   remote.Mirror
	Uploader upload.Uploader
	// Online is the connectivity monitor's cached signal.
	Online   func() bool
	Images   *imagecache.Cache
	Logger   logging.Logger
	Interval time.Duration
}

func New(opts Options) *Engine {
	return &Engine{
		articles: opts.Articles,
		users:    opts.Users,
		mirror:   opts.Mirror,
		uploader: opts.Uploader,
		online:   opts.Online,
		images:   opts.Images,
		logger:   opts.Logger.With("component", "syncer"),
		interval: opts.Interval,
		kick:     make(chan struct{}, 1),
	}
}

// PassStats summarizes one reconciliation pass.
type PassStats struct {
	// Skipped is set when another pass was already in progress.
	Skipped        bool
	Pending        int
	Pushed         int
	UploadFailures int
	PushFailures   int
	StaleFlips     int
}

// ImportStats summarizes a cold-start import.
type ImportStats struct {
	// Skipped is set when the local store was not empty.
	Skipped          bool
	UsersImported    int
	ArticlesImported int
	RecordsSkipped   int
}

// Kick requests a reconciliation pass outside the regular cadence, e.g.
// after an explicit user save. Non-blocking; a pending kick is collapsed
// into one.
func (e *Engine) Kick() {
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

// Run executes reconciliation passes on the configured interval, and
// immediately on Kick, until ctx is cancelled. There is no cancellation of
// a pass in flight; all work is re-derivable from PENDING state on the
// next launch.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.runAndLog(ctx)
		case <-e.kick:
			e.runAndLog(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (e *Engine) runAndLog(ctx context.Context) {
	stats, err := e.RunPass(ctx)
	if err != nil {
		e.logger.Debug(ctx, "reconciliation pass skipped", "cause", err)
		return
	}
	if !stats.Skipped && stats.Pending > 0 {
		e.logger.Info(ctx, "reconciliation pass complete",
			"pending", stats.Pending, "pushed", stats.Pushed,
			"upload_failures", stats.UploadFailures, "push_failures", stats.PushFailures)
	}
}

// RunPass performs one outbound push over all PENDING articles. At most one
// pass runs at a time; an overlapping call returns immediately with
// Skipped set. When offline the pass resolves to ErrConnectivityUnavailable
// without touching any record. One record's failure never blocks others.
func (e *Engine) RunPass(ctx context.Context) (PassStats, error) {
	var stats PassStats

	if !e.passMu.TryLock() {
		stats.Skipped = true
		return stats, nil
	}
	defer e.passMu.Unlock()

	if !e.online() {
		return stats, common.ErrConnectivityUnavailable
	}

	pending, err := e.articles.ListPending(ctx)
	if err != nil {
		return stats, err
	}
	stats.Pending = len(pending)

	// Records are pushed sequentially: the FTP endpoint gives no parallel
	// connection guarantee and sequential processing keeps failure
	// attribution per record.
	for i := range pending {
		e.pushOne(ctx, &pending[i], &stats)
	}

	return stats, nil
}

// pushOne resolves the image, pushes the record and flips its sync state.
// The uploaded URL is persisted locally before the remote write so a later
// retry does not re-upload.
func (e *Engine) pushOne(ctx context.Context, a *models.Article, stats *PassStats) {
	if a.HasLocalImage() {
		url, err := e.uploader.Upload(ctx, a.ImagePath)
		if err != nil {
			stats.UploadFailures++
			e.logger.Warn(ctx, "sync failure", "record", a.ID, "operation", "upload_image", "cause", err)
			return
		}
		applied, err := e.articles.SetImageURL(ctx, a.ID, url, a.ImagePath)
		if err != nil {
			stats.PushFailures++
			e.logger.Error(ctx, "sync failure", "record", a.ID, "operation", "persist_image_url", "cause", err)
			return
		}
		if !applied {
			// The image was swapped while we uploaded; the newer local
			// reference stays and goes out on the next pass.
			stats.StaleFlips++
			return
		}
		a.ImagePath = url
	}

	if err := e.mirror.UpsertArticle(ctx, a); err != nil {
		stats.PushFailures++
		e.logger.Warn(ctx, "sync failure", "record", a.ID, "operation", "push", "cause", err)
		return
	}

	flipped, err := e.articles.MarkSynced(ctx, a.ID, a.UpdatedAt)
	if err != nil {
		stats.PushFailures++
		e.logger.Error(ctx, "sync failure", "record", a.ID, "operation", "mark_synced", "cause", err)
		return
	}
	if !flipped {
		// The record was edited while we pushed; it stays pending and the
		// newer version goes out on the next pass.
		stats.StaleFlips++
		return
	}
	stats.Pushed++
}

// ColdStartImport seeds an empty local store from the mirror. It runs at
// most once per process start, only when the store holds no articles and
// connectivity is available. Pre-existing local records of the same id are
// never overwritten. Per-record failures are logged and skipped; a partial
// import is acceptable and importing zero records is not an error.
func (e *Engine) ColdStartImport(ctx context.Context) (ImportStats, error) {
	var stats ImportStats

	total, _, err := e.articles.Counts(ctx)
	if err != nil {
		return stats, err
	}
	if total > 0 {
		stats.Skipped = true
		return stats, nil
	}

	if !e.online() {
		return stats, common.ErrConnectivityUnavailable
	}

	remoteUsers, err := e.mirror.ListUsers(ctx)
	if err != nil {
		e.logger.Warn(ctx, "import failure", "operation", "list_users", "cause", err)
	}
	for i := range remoteUsers {
		u := &remoteUsers[i]
		if u.ID == "" || u.Username == "" || !models.ValidRole(u.Role) {
			stats.RecordsSkipped++
			e.logger.Warn(ctx, "import failure", "record", u.ID, "operation", "import_user", "cause", "malformed record")
			continue
		}
		inserted, err := e.users.InsertIfAbsent(ctx, u)
		if err != nil {
			stats.RecordsSkipped++
			e.logger.Warn(ctx, "import failure", "record", u.ID, "operation", "import_user", "cause", err)
			continue
		}
		if inserted {
			stats.UsersImported++
		}
	}

	remoteArticles, err := e.mirror.ListArticles(ctx)
	if err != nil {
		e.logger.Warn(ctx, "import failure", "operation", "list_articles", "cause", err)
	}
	for i := range remoteArticles {
		a := &remoteArticles[i]
		if err := a.Validate(); err != nil {
			stats.RecordsSkipped++
			e.logger.Warn(ctx, "import failure", "record", a.ID, "operation", "import_article", "cause", err)
			continue
		}
		// Imported records are consistent with the mirror by construction.
		a.SyncState = models.SyncSynced
		inserted, err := e.articles.InsertIfAbsent(ctx, a)
		if err != nil {
			stats.RecordsSkipped++
			e.logger.Warn(ctx, "import failure", "record", a.ID, "operation", "import_article", "cause", err)
			continue
		}
		if inserted {
			stats.ArticlesImported++
		}
	}

	if e.images != nil && len(remoteArticles) > 0 {
		e.images.FillFromArticles(ctx, remoteArticles)
	}

	e.logger.Info(ctx, "cold-start import complete",
		"users", stats.UsersImported, "articles", stats.ArticlesImported, "skipped", stats.RecordsSkipped)
	return stats, nil
}

// PropagateArticleDelete issues the remote delete for an article that was
// just removed locally. When offline the delete is NOT queued: the remote
// copy stays orphaned until it is overwritten or removed by some later
// action.
func (e *Engine) PropagateArticleDelete(ctx context.Context, id string) error {
	if !e.online() {
		e.logger.Warn(ctx, "offline delete not propagated", "record", id, "operation", "delete")
		return common.ErrConnectivityUnavailable
	}
	if err := e.mirror.DeleteArticle(ctx, id); err != nil {
		e.logger.Warn(ctx, "sync failure", "record", id, "operation", "delete", "cause", err)
		return err
	}
	return nil
}

// PropagateUserDelete mirrors PropagateArticleDelete for user records.
func (e *Engine) PropagateUserDelete(ctx context.Context, id string) error {
	if !e.online() {
		e.logger.Warn(ctx, "offline delete not propagated", "record", id, "operation", "delete_user")
		return common.ErrConnectivityUnavailable
	}
	if err := e.mirror.DeleteUser(ctx, id); err != nil {
		e.logger.Warn(ctx, "sync failure", "record", id, "operation", "delete_user", "cause", err)
		return err
	}
	return nil
}

// PushUser propagates a user record to the mirror, best effort. User
// records carry no sync state; a failed push is logged and the mirror
// catches up on the next admin action.
func (e *Engine) PushUser(ctx context.Context, u *models.User) error {
	if !e.online() {
		return common.ErrConnectivityUnavailable
	}
	if err := e.mirror.UpsertUser(ctx, u); err != nil {
		e.logger.Warn(ctx, "sync failure", "record", u.ID, "operation", "push_user", "cause", err)
		return err
	}
	return nil
}
