// Package credential owns the password and reset-token lifecycle of a user.
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/khoido2003/natour-api/internal/models"
	appErrors "github.com/khoido2003/natour-api/pkg/errors"
)

const (
	DefaultCost          = 12
	DefaultResetTokenTTL = 10 * time.Minute

	resetTokenBytes = 32
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
	// tokens signed in the same second as a password change must stay valid
	changeBackdate = time.Second
)

// Config tunes a Manager. Zero values fall back to the defaults.
type Config struct {
	BcryptCost    int
	ResetTokenTTL time.Duration
	Now           func() time.Time
}

// Manager hashes and verifies passwords and issues reset tokens.
type Manager struct {
	cost     int
	resetTTL time.Duration
	now      func() time.Time
}

// NewManager constructs a Manager.
func NewManager(cfg Config) *Manager {
	m := &Manager{cost: cfg.BcryptCost, resetTTL: cfg.ResetTokenTTL, now: cfg.Now}
	if m.cost < bcrypt.MinCost || m.cost > bcrypt.MaxCost {
		m.cost = DefaultCost
	}
	if m.resetTTL <= 0 {
		m.resetTTL = DefaultResetTokenTTL
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// HashAndStorePassword replaces a pending plaintext password with its hash.
// It does nothing when no new password was supplied. For existing users the
// change timestamp moves forward, which invalidates older sessions.
func (m *Manager) HashAndStorePassword(user *models.User, isNew bool) error {
	if user == nil || user.Password == "" {
		return nil
	}
	if len(user.Password) > maxPasswordBytes {
		return appErrors.Clone(appErrors.ErrValidation, "password must be at most 72 bytes")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), m.cost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user.PasswordHash = string(hash)
	user.Password = ""
	user.PasswordConfirm = ""

	if !isNew {
		changedAt := m.now().UTC().Add(-changeBackdate)
		user.PasswordChangedAt = &changedAt
	}
	return nil
}

// VerifyPassword reports whether candidate matches storedHash. A hash that
// cannot be parsed yields ErrCredentialStorageCorrupted rather than false.
func (m *Manager) VerifyPassword(candidate, storedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(candidate))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, appErrors.Wrap(err, appErrors.ErrCredentialStorageCorrupted.Code, appErrors.ErrCredentialStorageCorrupted.Status, appErrors.ErrCredentialStorageCorrupted.Message)
	}
}

// IsSessionStale reports whether the password changed after a session token
// was issued. issuedAt is in Unix seconds.
func (m *Manager) IsSessionStale(user *models.User, issuedAt int64) bool {
	if user == nil || user.PasswordChangedAt == nil {
		return false
	}
	return user.PasswordChangedAt.Unix() > issuedAt
}

// IssuePasswordResetToken stores the digest of a fresh token on user and
// returns the plaintext, which is never stored.
func (m *Manager) IssuePasswordResetToken(user *models.User) (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate reset token")
	}
	plain := hex.EncodeToString(buf)

	digest := HashResetToken(plain)
	expires := m.now().UTC().Add(m.resetTTL)
	user.PasswordResetToken = &digest
	user.PasswordResetExpires = &expires

	return plain, nil
}

// HashResetToken returns the stored form of a plaintext reset token.
func HashResetToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// VerifyResetToken checks candidate against the token stored on user.
func (m *Manager) VerifyResetToken(user *models.User, candidate string) error {
	if user == nil || user.PasswordResetToken == nil || user.PasswordResetExpires == nil {
		return appErrors.ErrResetTokenInvalid
	}

	digest := HashResetToken(candidate)
	if subtle.ConstantTimeCompare([]byte(digest), []byte(*user.PasswordResetToken)) != 1 {
		return appErrors.ErrResetTokenInvalid
	}
	if !m.now().Before(*user.PasswordResetExpires) {
		return appErrors.ErrResetTokenExpired
	}
	return nil
}

// ClearResetToken removes any pending reset token from user.
func (m *Manager) ClearResetToken(user *models.User) {
	user.PasswordResetToken = nil
	user.PasswordResetExpires = nil
}

// ResetTokenTTL is how long an issued reset token stays valid.
func (m *Manager) ResetTokenTTL() time.Duration {
	return m.resetTTL
}
