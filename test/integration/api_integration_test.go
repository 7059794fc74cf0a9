package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hookman/internal/dispatch"
	"hookman/internal/server"
	"hookman/internal/session"
	"hookman/internal/store"
)

const testPassword = "integration-secret"

// setupAPI builds the full stack (store, sessions, dispatcher, router)
// behind a real HTTP listener and returns its base URL plus a cookie-jar
// client.
func setupAPI(t *testing.T) (string, *http.Client) {
	t.Helper()

	tmpDir := t.TempDir()
	st, err := store.New(filepath.Join(tmpDir, "webhooks.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	sessions := session.NewManager(testPassword, logger)
	dispatcher := dispatch.NewDispatcher(logger)
	srv := server.NewServer(st, sessions, dispatcher, logger)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	client := ts.Client()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("Failed to create cookie jar: %v", err)
	}
	client.Jar = jar

	return ts.URL, client
}

func doJSON(t *testing.T, client *http.Client, method, url, body string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}

	var decoded map[string]any
	if len(data) > 0 && data[0] == '{' {
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Failed to decode response %q: %v", data, err)
		}
	}

	return resp.StatusCode, decoded
}

func login(t *testing.T, client *http.Client, baseURL string) {
	t.Helper()

	code, body := doJSON(t, client, "POST", baseURL+"/api/login",
		fmt.Sprintf(`{"password":%q}`, testPassword))
	if code != http.StatusOK {
		t.Fatalf("Login failed with status %d: %v", code, body)
	}
}

// TestFullLifecycle walks the whole flow: login, create, list, update,
// trigger, delete, logout.
func TestFullLifecycle(t *testing.T) {
	baseURL, client := setupAPI(t)

	// Unauthenticated access is rejected
	code, body := doJSON(t, client, "GET", baseURL+"/api/webhooks", "")
	if code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 before login, got %d: %v", code, body)
	}

	login(t, client, baseURL)

	// Target for the trigger step
	var receivedEnvelope map[string]any
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&receivedEnvelope)
		_, _ = w.Write([]byte("delivered"))
	}))
	defer target.Close()

	// Create
	code, body = doJSON(t, client, "POST", baseURL+"/api/webhooks",
		fmt.Sprintf(`{"name":"deploy","url":%q,"method":"post","description":"deploy hook"}`, target.URL))
	if code != http.StatusOK || body["success"] != true {
		t.Fatalf("Create failed with status %d: %v", code, body)
	}
	id := int64(body["id"].(float64))

	// List shows the record with an upper-cased method
	resp, err := client.Get(baseURL + "/api/webhooks")
	if err != nil {
		t.Fatalf("List request failed: %v", err)
	}
	var webhooks []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&webhooks); err != nil {
		t.Fatalf("Failed to decode list: %v", err)
	}
	resp.Body.Close()
	if len(webhooks) != 1 || webhooks[0]["method"] != "POST" {
		t.Fatalf("Unexpected list contents: %v", webhooks)
	}

	// Update
	code, body = doJSON(t, client, "PUT", fmt.Sprintf("%s/api/webhooks/%d", baseURL, id),
		fmt.Sprintf(`{"name":"deploy-renamed","url":%q,"method":"POST"}`, target.URL))
	if code != http.StatusOK {
		t.Fatalf("Update failed with status %d: %v", code, body)
	}

	// Trigger
	code, body = doJSON(t, client, "POST", fmt.Sprintf("%s/api/webhooks/%d/trigger", baseURL, id), "")
	if code != http.StatusOK {
		t.Fatalf("Trigger failed with status %d: %v", code, body)
	}
	if body["status_code"] != float64(200) || body["response_text"] != "delivered" {
		t.Errorf("Unexpected trigger result: %v", body)
	}
	if receivedEnvelope["source"] != "webhook-manager" || receivedEnvelope["webhook_name"] != "deploy-renamed" {
		t.Errorf("Unexpected dispatch envelope: %v", receivedEnvelope)
	}
	if ts, _ := receivedEnvelope["timestamp"].(string); ts == "" {
		t.Error("Expected timestamp in dispatch envelope")
	} else if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("Expected RFC3339 timestamp, got %q", ts)
	}

	// Delete
	code, body = doJSON(t, client, "DELETE", fmt.Sprintf("%s/api/webhooks/%d", baseURL, id), "")
	if code != http.StatusOK {
		t.Fatalf("Delete failed with status %d: %v", code, body)
	}

	// Triggering the deleted webhook is a 404
	code, body = doJSON(t, client, "POST", fmt.Sprintf("%s/api/webhooks/%d/trigger", baseURL, id), "")
	if code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d: %v", code, body)
	}

	// Logout drops the session
	code, _ = doJSON(t, client, "POST", baseURL+"/api/logout", "")
	if code != http.StatusOK {
		t.Fatalf("Logout failed with status %d", code)
	}
	code, _ = doJSON(t, client, "GET", baseURL+"/api/webhooks", "")
	if code != http.StatusUnauthorized {
		t.Errorf("Expected 401 after logout, got %d", code)
	}
}

// TestPersistenceAcrossRestart verifies records survive reopening the store
func TestPersistenceAcrossRestart(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "webhooks.db")

	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	id, err := st.Create(t.Context(), store.Input{Name: "survivor", URL: "https://example.com"})
	if err != nil {
		t.Fatalf("Failed to create webhook: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}

	reopened, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	webhook, err := reopened.Get(t.Context(), id)
	if err != nil {
		t.Fatalf("Failed to get webhook after reopen: %v", err)
	}
	if webhook.Name != "survivor" {
		t.Errorf("Expected persisted webhook, got %+v", webhook)
	}
}
