package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nexuzy/artsync/internal/client/models"
	"github.com/nexuzy/artsync/internal/client/repositories/users"
	"github.com/nexuzy/artsync/internal/common"
	"github.com/nexuzy/artsync/internal/logging"
)

const (
	maxLoginAttempts = 5
	lockoutWindow    = 5 * time.Minute
	minPasswordLen   = 6
)

// failedLogins tracks attempts per username within the lockout window.
// In-memory only: a restart clears the counters, which is acceptable for a
// single-operator desktop client.
type failedLogins struct {
	count int
	first time.Time
}

type AuthService struct {
	users  users.Repository
	sync   SyncTrigger
	logger logging.Logger

	mu       sync.Mutex
	attempts map[string]*failedLogins

	now func() time.Time
}

func NewAuthService(repo users.Repository, sync SyncTrigger, logger logging.Logger) *AuthService {
	return &AuthService{
		users:    repo,
		sync:     sync,
		logger:   logger.With("component", "auth"),
		attempts: make(map[string]*failedLogins),
		now:      time.Now,
	}
}

// Login verifies credentials against the local store. After
// maxLoginAttempts failures within lockoutWindow the username is locked out
// until the window expires. Unknown usernames and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, error) {
	if s.lockedOut(username) {
		return nil, fmt.Errorf("%w: try again later", common.ErrLoginLockout)
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil || u.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		s.recordFailure(username)
		s.logger.Warn(ctx, "login rejected", "username", username)
		return nil, fmt.Errorf("%w: invalid credentials", common.ErrUnauthorized)
	}

	s.clearFailures(username)
	if err := s.users.UpdateLastLogin(ctx, u.ID); err != nil {
		s.logger.Warn(ctx, "recording last login failed", "username", username, "cause", err)
	}
	s.logger.Info(ctx, "login ok", "username", username, "role", u.Role)
	return u, nil
}

func (s *AuthService) lockedOut(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.attempts[username]
	if !ok {
		return false
	}
	if s.now().Sub(f.first) > lockoutWindow {
		delete(s.attempts, username)
		return false
	}
	return f.count >= maxLoginAttempts
}

func (s *AuthService) recordFailure(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.attempts[username]
	if !ok || s.now().Sub(f.first) > lockoutWindow {
		s.attempts[username] = &failedLogins{count: 1, first: s.now()}
		return
	}
	f.count++
}

func (s *AuthService) clearFailures(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, username)
}

// CheckPasswordStrength enforces the account password policy: at least
// minPasswordLen characters containing both a letter and a digit.
func CheckPasswordStrength(password string) error {
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: at least %d characters required", common.ErrWeakPassword, minPasswordLen)
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return fmt.Errorf("%w: both letters and digits required", common.ErrWeakPassword)
	}
	return nil
}

// CreateUser adds a new account. Admin only. The record is pushed to the
// mirror best effort; the mirror never receives the password hash.
func (s *AuthService) CreateUser(ctx context.Context, actor *models.User, username, password, role string) (*models.User, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, common.ErrAdminOnly
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", common.ErrValidation)
	}
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidRole, role)
	}
	if err := CheckPasswordStrength(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         strings.ToLower(role),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Insert(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "user created", "username", username, "role", u.Role)
	_ = s.sync.PushUser(ctx, u)
	return u, nil
}

// DeleteUser removes an account locally and propagates the delete to the
// mirror best effort. Admin only; admins cannot delete themselves.
func (s *AuthService) DeleteUser(ctx context.Context, actor *models.User, id string) error {
	if actor == nil || !actor.IsAdmin() {
		return common.ErrAdminOnly
	}
	if actor.ID == id {
		return fmt.Errorf("%w: cannot delete the active account", common.ErrValidation)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "user deleted", "id", id)
	_ = s.sync.PropagateUserDelete(ctx, id)
	return nil
}

// ListUsers returns all accounts. Admin only.
func (s *AuthService) ListUsers(ctx context.Context, actor *models.User) ([]models.User, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, common.ErrAdminOnly
	}
	return s.users.GetAll(ctx)
}

// EnsureAdmin seeds the configured admin account on first launch. An
// existing account with that username is left untouched, password included.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" {
		return nil
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil
	}
	if err := CheckPasswordStrength(password); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		CreatedAt:    s.now().UTC(),
	}
	_, err = s.users.InsertIfAbsent(ctx, u)
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "admin account seeded", "username", username)
	return nil
}
