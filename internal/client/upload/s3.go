package upload

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nexuzy/artsync/internal/common"
	"github.com/nexuzy/artsync/internal/logging"
)

// S3Config is the connection surface for the S3-compatible asset backend
// (MinIO in development).
type S3Config struct {
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	BaseEndpoint  string
	KeyPrefix     string // destination "directory" inside the bucket
	PublicURLBase string
	Timeout       time.Duration
}

// S3Uploader uploads images to an S3-compatible object store.
type S3Uploader struct {
	cfg    S3Config
	logger logging.Logger

	// test seams
	now       func() time.Time
	putObject func(ctx context.Context, client *s3.Client, in *s3.PutObjectInput) error
}

func NewS3Uploader(cfg S3Config, logger logging.Logger) *S3Uploader {
	return &S3Uploader{
		cfg:    cfg,
		logger: logger.With("component", "s3-uploader"),
		now:    time.Now,
		putObject: func(ctx context.Context, client *s3.Client, in *s3.PutObjectInput) error {
			_, err := client.PutObject(ctx, in)
			return err
		},
	}
}

func (u *S3Uploader) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(u.cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			u.cfg.AccessKey,
			u.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if u.cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(u.cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (u *S3Uploader) Upload(ctx context.Context, localPath string) (string, error) {
	name, err := RemoteName(localPath, u.now())
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrAssetUploadFailed, err)
	}
	key := name
	if u.cfg.KeyPrefix != "" {
		key = strings.TrimRight(u.cfg.KeyPrefix, "/") + "/" + name
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: opening %s: %v", common.ErrAssetUploadFailed, localPath, err)
	}
	defer f.Close()

	client, err := u.client(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: s3 client: %v", common.ErrAssetUploadFailed, err)
	}

	if u.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.cfg.Timeout)
		defer cancel()
	}

	in := &s3.PutObjectInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if err := u.putObject(ctx, client, in); err != nil {
		return "", fmt.Errorf("%w: putting %s: %v", common.ErrAssetUploadFailed, key, err)
	}

	url := strings.TrimRight(u.cfg.PublicURLBase, "/") + "/" + key
	u.logger.Info(ctx, "image uploaded", "key", key, "url", url)
	return url, nil
}
