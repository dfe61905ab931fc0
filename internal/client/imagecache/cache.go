// Package imagecache keeps local copies of uploaded article images so the
// UI can show them on a fresh machine after cold-start import.
package imagecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/nexuzy/artsync/internal/client/models"
	"github.com/nexuzy/artsync/internal/common"
	"github.com/nexuzy/artsync/internal/logging"
	"github.com/nexuzy/artsync/internal/netx"
)

// Stats summarizes one cache fill run.
type Stats struct {
	Total      int
	Downloaded int
	Cached     int
	Failed     int
	NoImage    int
}

type Cache struct {
	dir    string
	client *http.Client
	logger logging.Logger
}

func New(dir string, timeout time.Duration, logger logging.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir %s: %w", dir, err)
	}
	return &Cache{
		dir:    dir,
		client: &http.Client{Timeout: timeout},
		logger: logger.With("component", "imagecache"),
	}, nil
}

// cacheName derives a stable filename from the image URL: a hash of the URL
// plus the original extension, so distinct URLs never collide.
func (c *Cache) cacheName(url string) string {
	sum := sha256.Sum256([]byte(url))
	ext := path.Ext(url)
	if ext == "" {
		ext = ".jpg"
	}
	return hex.EncodeToString(sum[:])[:16] + ext
}

// CachedPath returns the local path of the cached copy and whether it exists.
func (c *Cache) CachedPath(url string) (string, bool) {
	p := filepath.Join(c.dir, c.cacheName(url))
	_, err := os.Stat(p)
	return p, err == nil
}

// Fetch downloads the image to the cache unless it is already present, and
// returns the local path.
func (c *Cache) Fetch(ctx context.Context, url string) (string, error) {
	p, ok := c.CachedPath(url)
	if ok {
		return p, nil
	}
	if err := netx.FetchToFile(ctx, c.client, url, p); err != nil {
		return "", err
	}
	return p, nil
}

// FillFromArticles downloads every missing image referenced by a remote
// URL. Failures are counted and skipped; a partial fill is acceptable.
func (c *Cache) FillFromArticles(ctx context.Context, arts []models.Article) Stats {
	var stats Stats
	for _, a := range arts {
		stats.Total++

		if a.ImagePath == "" || !common.IsRemoteURL(a.ImagePath) {
			stats.NoImage++
			continue
		}
		if _, ok := c.CachedPath(a.ImagePath); ok {
			stats.Cached++
			continue
		}
		if _, err := c.Fetch(ctx, a.ImagePath); err != nil {
			stats.Failed++
			c.logger.Warn(ctx, "image download failed", "article", a.ID, "url", a.ImagePath, "cause", err)
			continue
		}
		stats.Downloaded++
	}
	c.logger.Info(ctx, "image cache fill complete",
		"downloaded", stats.Downloaded, "cached", stats.Cached,
		"failed", stats.Failed, "no_image", stats.NoImage)
	return stats
}
