// Package common defines shared constants and sentinel errors used across
// the client and mirror-server layers of artsync. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Local store integrity failures. Unlike sync errors these are escalated
	// to the caller of the triggering action, never swallowed.
	ErrLocalStore = errors.New("local store failure")

	// Sync-pass errors, all non-fatal to the pass.
	ErrConnectivityUnavailable = errors.New("connectivity unavailable")
	ErrRemoteRejected          = errors.New("remote write rejected")
	ErrAssetUploadFailed       = errors.New("asset upload failed")

	// Validation / identity errors.
	ErrValidation       = errors.New("validation error")
	ErrInvalidArticleID = errors.New("invalid article id")
	ErrInvalidRole      = errors.New("invalid role")
	ErrWeakPassword     = errors.New("password must be at least 6 characters and contain letters and digits")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrAdminOnly        = errors.New("admin access required")

	// Auth errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrLoginLockout = errors.New("too many failed attempts, try again later")
)
