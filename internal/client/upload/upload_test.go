package upload

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuzy/artsync/internal/common"
	"github.com/nexuzy/artsync/internal/logging"
)

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRemoteName(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	name, err := RemoteName("/tmp/photos/shoe.png", now)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^article_20240102_030405_[a-z0-9]{6}\.png$`), name)

	// No extension on the source file, none on the remote name.
	name, err = RemoteName("/tmp/photos/shoe", now)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^article_20240102_030405_[a-z0-9]{6}$`), name)
}

func TestRemoteName_Unique(t *testing.T) {
	now := time.Now()
	a, err := RemoteName("/tmp/shoe.png", now)
	require.NoError(t, err)
	b, err := RemoteName("/tmp/shoe.png", now)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestS3Upload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shoe.png")
	require.NoError(t, os.WriteFile(path, []byte("png bytes"), 0o600))

	u := NewS3Uploader(S3Config{
		AccessKey:     "ak",
		SecretKey:     "sk",
		Bucket:        "images",
		Region:        "us-east-1",
		BaseEndpoint:  "http://127.0.0.1:9000",
		KeyPrefix:     "articles/",
		PublicURLBase: "http://127.0.0.1:9000/images/",
	}, discardLogger())

	u.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	var gotBucket, gotKey string
	u.putObject = func(_ context.Context, _ *s3.Client, in *s3.PutObjectInput) error {
		gotBucket = *in.Bucket
		gotKey = *in.Key
		return nil
	}

	url, err := u.Upload(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "images", gotBucket)
	assert.Regexp(t, `^articles/article_20240102_030405_[a-z0-9]{6}\.png$`, gotKey)
	assert.Equal(t, "http://127.0.0.1:9000/images/"+gotKey, url)
}

func TestS3Upload_PutFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shoe.png")
	require.NoError(t, os.WriteFile(path, []byte("png bytes"), 0o600))

	u := NewS3Uploader(S3Config{Bucket: "images", Region: "us-east-1"}, discardLogger())
	u.putObject = func(_ context.Context, _ *s3.Client, _ *s3.PutObjectInput) error {
		return assert.AnError
	}

	_, err := u.Upload(context.Background(), path)
	assert.ErrorIs(t, err, common.ErrAssetUploadFailed)
}

func TestFTPUpload_MissingLocalFile(t *testing.T) {
	u := NewFTPUploader(FTPConfig{Host: "127.0.0.1:21"}, discardLogger())

	_, err := u.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, common.ErrAssetUploadFailed)
}
