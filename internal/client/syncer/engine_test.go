package syncer

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/nexuzy/artsync/internal/client/models"
	"github.com/nexuzy/artsync/internal/client/repositories/articles"
	"github.com/nexuzy/artsync/internal/client/repositories/users"
	"github.com/nexuzy/artsync/internal/client/storage"
	"github.com/nexuzy/artsync/internal/common"
	"github.com/nexuzy/artsync/internal/logging"
)

type fakeMirror struct {
	mu       sync.Mutex
	articles map[string]models.Article
	users    map[string]models.User

	upsertErr error
	deleteErr error
	listErr   error

	// onUpsertArticle runs before the article is stored, letting a test
	// mutate local state mid-push.
	onUpsertArticle func(a *models.Article)

	upserted []string
	deleted  []string
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{
		articles: make(map[string]models.Article),
		users:    make(map[string]models.User),
	}
}

func (f *fakeMirror) UpsertArticle(_ context.Context, a *models.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if f.onUpsertArticle != nil {
		f.onUpsertArticle(a)
	}
	f.articles[a.ID] = *a
	f.upserted = append(f.upserted, a.ID)
	return nil
}

func (f *fakeMirror) DeleteArticle(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.articles, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeMirror) ListArticles(_ context.Context) ([]models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var result []models.Article
	for _, a := range f.articles {
		result = append(result, a)
	}
	return result, nil
}

func (f *fakeMirror) UpsertUser(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.users[u.ID] = *u
	return nil
}

func (f *fakeMirror) DeleteUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.users, id)
	return nil
}

func (f *fakeMirror) ListUsers(_ context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var result []models.User
	for _, u := range f.users {
		result = append(result, u)
	}
	return result, nil
}

type fakeUploader struct {
	err   error
	calls []string

	// onUpload runs before the result is returned, letting a test mutate
	// local state while an upload is in flight.
	onUpload func(localPath string)
}

func (f *fakeUploader) Upload(_ context.Context, localPath string) (string, error) {
	f.calls = append(f.calls, localPath)
	if f.onUpload != nil {
		f.onUpload(localPath)
	}
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example.com/" + filepath.Base(localPath), nil
}

type testEnv struct {
	engine   *Engine
	articles articles.Repository
	users    users.Repository
	mirror   *fakeMirror
	uploader *fakeUploader
	online   bool
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)

	require.NoError(t, storage.RunMigrations(context.Background(), db))

	env := &testEnv{
		articles: articles.NewSQLiteRepository(db),
		users:    users.NewSQLiteRepository(db),
		mirror:   newFakeMirror(),
		uploader: &fakeUploader{},
		online:   true,
	}
	env.engine = New(Options{
		Articles: env.articles,
		Users:    env.users,
		Mirror:   env.mirror,
		Uploader: env.uploader,
		Online:   func() bool { return env.online },
		Logger:   logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		Interval: time.Minute,
	})
	return env
}

func testArticle(id string) *models.Article {
	now := time.Now().UTC()
	return &models.Article{
		ID:        id,
		Name:      "Runner Pro",
		Mould:     "RX-100",
		Size:      "M",
		Gender:    "Unisex",
		CreatedBy: "alice",
		CreatedAt: now,
		UpdatedAt: now,
		SyncState: models.SyncPending,
	}
}

func TestRunPass_OfflineLeavesRecordsPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.articles.Insert(ctx, testArticle("ART-abc123def456")))

	env.online = false
	_, err := env.engine.RunPass(ctx)
	require.ErrorIs(t, err, common.ErrConnectivityUnavailable)

	a, err := env.articles.GetByID(ctx, "ART-abc123def456")
	require.NoError(t, err)
	assert.Equal(t, models.SyncPending, a.SyncState)
	assert.Empty(t, env.mirror.upserted)

	env.online = true
	stats, err := env.engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pushed)

	a, err = env.articles.GetByID(ctx, "ART-abc123def456")
	require.NoError(t, err)
	assert.Equal(t, models.SyncSynced, a.SyncState)
	assert.Contains(t, env.mirror.articles, "ART-abc123def456")
}

func TestRunPass_SyncedRecordsAreNotRepushed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.articles.Insert(ctx, testArticle("ART-abc123def456")))

	stats, err := env.engine.RunPass(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Pushed)

	stats, err = env.engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Pending)
	assert.Len(t, env.mirror.upserted, 1)
}

func TestRunPass_MultipleEditsPushOnlyLatest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := testArticle("ART-abc123def456")
	require.NoError(t, env.articles.Insert(ctx, a))

	a.Name = "Runner Pro v2"
	a.UpdatedAt = a.UpdatedAt.Add(time.Second)
	require.NoError(t, env.articles.Upsert(ctx, a))

	a.Name = "Runner Pro v3"
	a.UpdatedAt = a.UpdatedAt.Add(time.Second)
	require.NoError(t, env.articles.Upsert(ctx, a))

	stats, err := env.engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pushed)
	require.Len(t, env.mirror.upserted, 1)
	assert.Equal(t, "Runner Pro v3", env.mirror.articles["ART-abc123def456"].Name)
}

func TestRunPass_EditDuringPushKeepsRecordPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.articles.Insert(ctx, testArticle("ART-abc123def456")))

	env.mirror.onUpsertArticle = func(pushed *models.Article) {
		edited := *pushed
		edited.Name = "edited mid-push"
		edited.UpdatedAt = pushed.UpdatedAt.Add(time.Second)
		edited.SyncState = models.SyncPending
		require.NoError(t, env.articles.Upsert(ctx, &edited))
	}

	stats, err := env.engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Pushed)
	assert.Equal(t, 1, stats.StaleFlips)

	a, err := env.articles.GetByID(ctx, "ART-abc123def456")
	require.NoError(t, err)
	assert.Equal(t, models.SyncPending, a.SyncState)

	// The next pass picks up the newer version.
	env.mirror.onUpsertArticle = nil
	stats, err = env.engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pushed)
	assert.Equal(t, "edited mid-push", env.mirror.articles["ART-abc123def456"].Name)
}

func TestRunPass_LocalImageUploadedBeforePush(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := testArticle("ART-abc123def456")
	a.ImagePath = "/tmp/photos/shoe.png"
	require.NoError(t, env.articles.Insert(ctx, a))

	stats, err := env.engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pushed)
	assert.Equal(t, []string{"/tmp/photos/shoe.png"}, env.uploader.calls)

	got, err := env.articles.GetByID(ctx, "ART-abc123def456")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/shoe.png", got.ImagePath)
	assert.Equal(t, models.SyncSynced, got.SyncState)
	assert.Equal(t, "https://cdn.example.com/shoe.png", env.mirror.articles["ART-abc123def456"].ImagePath)
}

func TestRunPass_ImageSwapDuringUploadKeepsNewImage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := testArticle("ART-abc123def456")
	a.ImagePath = "/tmp/photos/old.png"
	require.NoError(t, env.articles.Insert(ctx, a))

	env.uploader.onUpload = func(string) {
		edited := *a
		edited.ImagePath = "/tmp/photos/new.png"
		edited.UpdatedAt = a.UpdatedAt.Add(time.Second)
		require.NoError(t, env.articles.Upsert(ctx, &edited))
	}

	stats, err := env.engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Pushed)
	assert.Equal(t, 1, stats.StaleFlips)

	// The new local reference survives; the old image's URL never lands.
	got, err := env.articles.GetByID(ctx, "ART-abc123def456")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/photos/new.png", got.ImagePath)
	assert.Equal(t, models.SyncPending, got.SyncState)

	// The next pass uploads the new image and syncs the record.
	env.uploader.onUpload = nil
	stats, err = env.engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pushed)
	assert.Equal(t, []string{"/tmp/photos/old.png", "/tmp/photos/new.png"}, env.uploader.calls)
	assert.Equal(t, "https://cdn.example.com/new.png",
		env.mirror.articles["ART-abc123def456"].ImagePath)
}

func TestRunPass_UploadFailureDoesNotBlockOtherRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	withImage := testArticle("ART-aaa111aaa111")
	withImage.ImagePath = "/tmp/photos/shoe.png"
	withImage.CreatedAt = withImage.CreatedAt.Add(-time.Minute)
	require.NoError(t, env.articles.Insert(ctx, withImage))
	require.NoError(t, env.articles.Insert(ctx, testArticle("ART-bbb222bbb222")))

	env.uploader.err = errors.New("ftp: connection refused")

	stats, err := env.engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 1, stats.Pushed)
	assert.Equal(t, 1, stats.UploadFailures)

	// The failed record keeps its local path and stays pending.
	got, err := env.articles.GetByID(ctx, "ART-aaa111aaa111")
	require.NoError(t, err)
	assert.Equal(t, models.SyncPending, got.SyncState)
	assert.Equal(t, "/tmp/photos/shoe.png", got.ImagePath)
	assert.NotContains(t, env.mirror.articles, "ART-aaa111aaa111")
	assert.Contains(t, env.mirror.articles, "ART-bbb222bbb222")
}

func TestRunPass_UploadedURLSurvivesPushFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := testArticle("ART-abc123def456")
	a.ImagePath = "/tmp/photos/shoe.png"
	require.NoError(t, env.articles.Insert(ctx, a))

	env.mirror.upsertErr = errors.New("mirror down")
	stats, err := env.engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PushFailures)

	// The URL was persisted, so the retry pushes without re-uploading.
	env.mirror.upsertErr = nil
	stats, err = env.engine.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pushed)
	assert.Len(t, env.uploader.calls, 1)
}

func TestRunPass_SkipsWhenPassAlreadyRunning(t *testing.T) {
	env := newTestEnv(t)

	env.engine.passMu.Lock()
	defer env.engine.passMu.Unlock()

	stats, err := env.engine.RunPass(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.Skipped)
}

func TestColdStartImport_SeedsEmptyStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	remote := testArticle("ART-abc123def456")
	remote.SyncState = models.SyncSynced
	env.mirror.articles[remote.ID] = *remote
	env.mirror.users["u1"] = models.User{
		ID: "u1", Username: "bob", Role: models.RoleUser, CreatedAt: time.Now().UTC(),
	}

	stats, err := env.engine.ColdStartImport(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ArticlesImported)
	assert.Equal(t, 1, stats.UsersImported)

	// Imported articles are consistent with the mirror, not pending.
	got, err := env.articles.GetByID(ctx, remote.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncSynced, got.SyncState)

	// Imported users carry no password hash and cannot log in.
	u, err := env.users.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, u.PasswordHash)
}

func TestColdStartImport_SkipsNonEmptyStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	local := testArticle("ART-abc123def456")
	local.Name = "local only"
	require.NoError(t, env.articles.Insert(ctx, local))

	remote := testArticle("ART-abc123def456")
	remote.Name = "remote version"
	env.mirror.articles[remote.ID] = *remote

	stats, err := env.engine.ColdStartImport(ctx)
	require.NoError(t, err)
	assert.True(t, stats.Skipped)

	got, err := env.articles.GetByID(ctx, local.ID)
	require.NoError(t, err)
	assert.Equal(t, "local only", got.Name)
}

func TestColdStartImport_OfflineAndMalformed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.online = false
	_, err := env.engine.ColdStartImport(ctx)
	require.ErrorIs(t, err, common.ErrConnectivityUnavailable)

	env.online = true
	bad := testArticle("not-an-article-id")
	env.mirror.articles[bad.ID] = *bad
	good := testArticle("ART-abc123def456")
	env.mirror.articles[good.ID] = *good

	stats, err := env.engine.ColdStartImport(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ArticlesImported)
	assert.Equal(t, 1, stats.RecordsSkipped)

	_, err = env.articles.GetByID(ctx, bad.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestColdStartImport_DoesNotOverwriteExistingUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seeded := &models.User{
		ID: "u1", Username: "admin", PasswordHash: "$2a$10$seeded",
		Role: models.RoleAdmin, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, env.users.Insert(ctx, seeded))

	env.mirror.users["u1"] = models.User{
		ID: "u1", Username: "admin", Role: models.RoleAdmin, CreatedAt: time.Now().UTC(),
	}

	stats, err := env.engine.ColdStartImport(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.UsersImported)

	u, err := env.users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$seeded", u.PasswordHash)
}

func TestPropagateArticleDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.mirror.articles["ART-abc123def456"] = *testArticle("ART-abc123def456")

	env.online = false
	err := env.engine.PropagateArticleDelete(ctx, "ART-abc123def456")
	require.ErrorIs(t, err, common.ErrConnectivityUnavailable)
	// Offline deletes are not queued; the remote copy stays orphaned.
	assert.Contains(t, env.mirror.articles, "ART-abc123def456")

	env.online = true
	require.NoError(t, env.engine.PropagateArticleDelete(ctx, "ART-abc123def456"))
	assert.NotContains(t, env.mirror.articles, "ART-abc123def456")
}

func TestKickTriggersPass(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, env.articles.Insert(ctx, testArticle("ART-abc123def456")))

	done := make(chan struct{})
	go func() {
		env.engine.Run(ctx)
		close(done)
	}()

	env.engine.Kick()

	require.Eventually(t, func() bool {
		a, err := env.articles.GetByID(ctx, "ART-abc123def456")
		return err == nil && a.SyncState == models.SyncSynced
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
