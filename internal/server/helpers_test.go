package server

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"hookman/internal/dispatch"
	"hookman/internal/session"
	"hookman/internal/store"
)

const testPassword = "test-password"

// setupTestServer builds a server with a temp SQLite store, a session
// manager using testPassword, and a real dispatcher.
func setupTestServer(t *testing.T) *Server {
	t.Helper()

	tmpDir := t.TempDir()
	st, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	sessions := session.NewManager(testPassword, logger)
	dispatcher := dispatch.NewDispatcher(logger)

	return NewServer(st, sessions, dispatcher, logger)
}

// authCookie returns a session cookie for an authenticated request
func authCookie(t *testing.T, s *Server) *http.Cookie {
	t.Helper()

	token, ok := s.Sessions.Login(testPassword)
	if !ok {
		t.Fatal("Failed to log in test session")
	}

	return &http.Cookie{Name: SessionCookie, Value: token}
}
