// Package models defines the client-side data models kept in the local
// store and mirrored to the remote document store.
package models

import (
	"fmt"
	"time"

	"github.com/nexuzy/artsync/internal/common"
)

// SyncState tracks whether the local version of a record has been
// successfully mirrored remotely.
type SyncState int

const (
	SyncPending SyncState = 0
	SyncSynced  SyncState = 1
)

func (s SyncState) String() string {
	if s == SyncSynced {
		return "synced"
	}
	return "pending"
}

// ValidGenders and ValidSizes are the accepted values for the corresponding
// article attributes.
var (
	ValidGenders = []string{"Male", "Female", "Unisex"}
	ValidSizes   = []string{"XS", "S", "M", "L", "XL", "XXL", "Free"}
)

// Article is an inventory record. The local store is the source of truth;
// SyncState is PENDING after every local create/update and flips to SYNCED
// only once the exact version (by UpdatedAt) is acknowledged by the mirror.
type Article struct {
	ID        string
	Name      string
	Mould     string
	Size      string
	Gender    string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time

	// ImagePath is empty, a local file path awaiting upload, or a remote
	// URL once uploaded. It only ever moves forward: local path -> URL.
	ImagePath string

	SyncState SyncState
}

// HasLocalImage reports whether the article carries an image that still
// needs to be uploaded before the record may be pushed to the mirror.
func (a *Article) HasLocalImage() bool {
	return a.ImagePath != "" && !common.IsRemoteURL(a.ImagePath)
}

// Validate checks the display attributes and the id format. It does not
// check id uniqueness; that is enforced against the local store.
func (a *Article) Validate() error {
	if err := common.CheckArticleID(a.ID); err != nil {
		return err
	}
	if a.Name == "" || a.Mould == "" || a.Size == "" || a.Gender == "" {
		return fmt.Errorf("%w: name, mould, size and gender are required", common.ErrValidation)
	}
	if !contains(ValidGenders, a.Gender) {
		return fmt.Errorf("%w: gender must be one of %v", common.ErrValidation, ValidGenders)
	}
	if !contains(ValidSizes, a.Size) {
		return fmt.Errorf("%w: size must be one of %v", common.ErrValidation, ValidSizes)
	}
	if a.CreatedBy == "" {
		return fmt.Errorf("%w: created_by is required", common.ErrValidation)
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
