package session

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func TestManager_Login_CorrectPassword(t *testing.T) {
	m := NewManager("topsecret", testLogger())

	token, ok := m.Login("topsecret")
	if !ok {
		t.Fatal("Expected login to succeed")
	}
	if token == "" {
		t.Error("Expected non-empty session token")
	}

	if !m.Check(token) {
		t.Error("Expected session to be authenticated after login")
	}
}

func TestManager_Login_WrongPassword(t *testing.T) {
	m := NewManager("topsecret", testLogger())

	token, ok := m.Login("wrong")
	if ok {
		t.Error("Expected login to fail")
	}
	if token != "" {
		t.Errorf("Expected empty token on failure, got %q", token)
	}
}

func TestManager_Login_BcryptSecret(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("topsecret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	m := NewManager(string(hash), testLogger())

	if _, ok := m.Login("topsecret"); !ok {
		t.Error("Expected login against bcrypt hash to succeed")
	}
	if _, ok := m.Login("wrong"); ok {
		t.Error("Expected login with wrong password to fail")
	}
}

func TestManager_Logout(t *testing.T) {
	m := NewManager("topsecret", testLogger())

	token, ok := m.Login("topsecret")
	if !ok {
		t.Fatal("Expected login to succeed")
	}

	m.Logout(token)

	if m.Check(token) {
		t.Error("Expected session to be invalid after logout")
	}

	// Logging out an unknown token is a no-op
	m.Logout("does-not-exist")
}

func TestManager_Check_UnknownToken(t *testing.T) {
	m := NewManager("topsecret", testLogger())

	if m.Check("") {
		t.Error("Expected empty token to be unauthenticated")
	}
	if m.Check("unknown") {
		t.Error("Expected unknown token to be unauthenticated")
	}
}

func TestManager_Check_Expiry(t *testing.T) {
	m := NewManager("topsecret", testLogger())
	m.TTL = 10 * time.Millisecond

	token, ok := m.Login("topsecret")
	if !ok {
		t.Fatal("Expected login to succeed")
	}

	time.Sleep(20 * time.Millisecond)

	if m.Check(token) {
		t.Error("Expected session to expire")
	}
}

func TestManager_TokensAreUnique(t *testing.T) {
	m := NewManager("topsecret", testLogger())

	first, _ := m.Login("topsecret")
	second, _ := m.Login("topsecret")

	if first == second {
		t.Error("Expected distinct tokens for separate logins")
	}
}
