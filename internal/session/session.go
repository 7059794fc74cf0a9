// Package session implements the shared-secret login gate and the in-memory
// session registry backing it.
//
// Sessions are opaque UUID tokens mapped to an expiry time. A token is valid
// until it expires (24 hours by default) or is explicitly logged out. Nothing
// is persisted; restarting the process invalidates all sessions.
package session

import (
	"crypto/subtle"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTTL is how long a session stays valid after login
const DefaultTTL = 24 * time.Hour

// Manager tracks authenticated sessions keyed by opaque token
type Manager struct {
	Secret string
	TTL    time.Duration
	Logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]time.Time // token -> expiry
}

// NewManager creates a session manager for the given shared secret.
// If the secret is a bcrypt hash ($2a$/$2b$/$2y$ prefix), login compares
// with bcrypt; otherwise it uses constant-time byte equality.
func NewManager(secret string, logger *slog.Logger) *Manager {
	return &Manager{
		Secret:   secret,
		TTL:      DefaultTTL,
		Logger:   logger,
		sessions: make(map[string]time.Time),
	}
}

// Login checks the supplied password against the configured secret.
// On success it establishes a new session and returns its token.
// On mismatch it returns ok=false and logs an audit event.
func (m *Manager) Login(password string) (string, bool) {
	if !m.compare(password) {
		m.Logger.Warn("failed login attempt")
		return "", false
	}

	token := uuid.NewString()

	m.mu.Lock()
	m.sessions[token] = time.Now().Add(m.TTL)
	m.mu.Unlock()

	m.Logger.Info("successful login")
	return token, true
}

// Logout invalidates the given token. Unknown tokens are a no-op.
func (m *Manager) Logout(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// Check reports whether the token belongs to an unexpired session.
// Expired entries are pruned on lookup.
func (m *Manager) Check(token string) bool {
	if token == "" {
		return false
	}

	m.mu.RLock()
	expiry, exists := m.sessions[token]
	m.mu.RUnlock()

	if !exists {
		return false
	}

	if time.Now().After(expiry) {
		m.mu.Lock()
		delete(m.sessions, token)
		m.mu.Unlock()
		return false
	}

	return true
}

// compare checks the password against the configured secret
func (m *Manager) compare(password string) bool {
	if isBcryptHash(m.Secret) {
		return bcrypt.CompareHashAndPassword([]byte(m.Secret), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(m.Secret), []byte(password)) == 1
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") ||
		strings.HasPrefix(s, "$2b$") ||
		strings.HasPrefix(s, "$2y$")
}
