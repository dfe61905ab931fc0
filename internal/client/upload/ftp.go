package upload

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/nexuzy/artsync/internal/common"
	"github.com/nexuzy/artsync/internal/logging"
)

// FTPConfig is the connection surface for the FTP asset backend.
type FTPConfig struct {
	Host          string // host:port
	User          string
	Pass          string
	RemoteDir     string // upload destination path on the server
	PublicURLBase string // URL prefix for generated locators
	Timeout       time.Duration
	PassiveMode   bool // use extended passive mode; disable for strict firewalls
}

// FTPUploader uploads images over FTP. A fresh connection is made per
// upload; the sync engine runs uploads sequentially so there is no benefit
// in pooling, and a dead cached connection would just add a failure mode.
type FTPUploader struct {
	cfg    FTPConfig
	logger logging.Logger

	// test seam
	now func() time.Time
}

func NewFTPUploader(cfg FTPConfig, logger logging.Logger) *FTPUploader {
	return &FTPUploader{cfg: cfg, logger: logger.With("component", "ftp-uploader"), now: time.Now}
}

func (u *FTPUploader) Upload(ctx context.Context, localPath string) (string, error) {
	name, err := RemoteName(localPath, u.now())
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrAssetUploadFailed, err)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: opening %s: %v", common.ErrAssetUploadFailed, localPath, err)
	}
	defer f.Close()

	opts := []ftp.DialOption{
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(u.cfg.Timeout),
	}
	if !u.cfg.PassiveMode {
		opts = append(opts, ftp.DialWithDisabledEPSV(true))
	}

	conn, err := ftp.Dial(u.cfg.Host, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: connecting to %s: %v", common.ErrAssetUploadFailed, u.cfg.Host, err)
	}
	defer func() { _ = conn.Quit() }()

	if err := conn.Login(u.cfg.User, u.cfg.Pass); err != nil {
		return "", fmt.Errorf("%w: login: %v", common.ErrAssetUploadFailed, err)
	}

	if err := conn.ChangeDir(u.cfg.RemoteDir); err != nil {
		// Directory may not exist yet; try creating it once.
		if mkErr := conn.MakeDir(u.cfg.RemoteDir); mkErr != nil {
			return "", fmt.Errorf("%w: remote dir %s: %v", common.ErrAssetUploadFailed, u.cfg.RemoteDir, err)
		}
		if err := conn.ChangeDir(u.cfg.RemoteDir); err != nil {
			return "", fmt.Errorf("%w: remote dir %s: %v", common.ErrAssetUploadFailed, u.cfg.RemoteDir, err)
		}
	}

	if err := conn.Stor(name, f); err != nil {
		return "", fmt.Errorf("%w: storing %s: %v", common.ErrAssetUploadFailed, name, err)
	}

	url := strings.TrimRight(u.cfg.PublicURLBase, "/") + "/" + name
	u.logger.Info(ctx, "image uploaded", "file", name, "url", url)
	return url, nil
}
