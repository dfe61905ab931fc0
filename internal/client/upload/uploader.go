// Package upload pushes article images to remote file storage and returns
// a stable public locator for each upload.
package upload

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/nexuzy/artsync/internal/common"
)

// Uploader stores a local file remotely and returns its public URL.
// Failures are reported as wrapped common.ErrAssetUploadFailed values; the
// sync engine treats all of them identically (record stays pending).
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// RemoteName builds a collision-resistant remote filename for a local file:
// a fixed prefix, a timestamp, a random suffix and the original extension.
// Repeated uploads of the same logical image produce fresh names; there is
// no dedup by content.
func RemoteName(localPath string, now time.Time) (string, error) {
	suffix, err := common.MakeRandAlphanum(6)
	if err != nil {
		return "", err
	}
	ext := filepath.Ext(localPath)
	return fmt.Sprintf("article_%s_%s%s", now.Format("20060102_150405"), suffix, ext), nil
}
