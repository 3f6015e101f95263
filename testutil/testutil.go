// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wynnextras/server/cliparse"
	"github.com/wynnextras/server/db"
	"github.com/wynnextras/server/mojang"
)

// SetupTestDB creates a fresh in-memory sqlite database with the full
// schema. The pool is pinned to one connection so the in-memory database
// is shared by every statement in the test.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3318,
		DatabaseURL:      ":memory:",
		DatabaseType:     "sqlite",
		AuthCacheTTL:     20 * time.Second,
		ApproveThreshold: 3,
		LockThreshold:    10,
	}
}

// FakeVerifier is a canned Verifier for handler tests. Known usernames
// resolve to deterministic identities; unknown ones fail like a rejected
// Mojang handshake. Setting Err forces that error for every call.
type FakeVerifier struct {
	Identities map[string]mojang.Identity
	Err        error
}

func NewFakeVerifier(usernames ...string) *FakeVerifier {
	f := &FakeVerifier{Identities: make(map[string]mojang.Identity)}
	for _, username := range usernames {
		f.Identities[username] = mojang.Identity{
			UUID:     TestUUID(username),
			Username: username,
		}
	}
	return f
}

func (f *FakeVerifier) Verify(ctx context.Context, username, serverID string) (mojang.Identity, error) {
	if f.Err != nil {
		return mojang.Identity{}, f.Err
	}
	if identity, ok := f.Identities[username]; ok {
		return identity, nil
	}
	return mojang.Identity{}, mojang.ErrAuthFailed
}

// TestUUID derives a stable normalized UUID from a username.
func TestUUID(username string) string {
	sum := md5.Sum([]byte(username))
	return hex.EncodeToString(sum[:])
}

// AddVerifiedUser marks a username as trusted directly in the database
func AddVerifiedUser(t *testing.T, conn *sql.DB, username string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO verified_user (username, added_at)
		VALUES ($1, $2)
	`, username, time.Now())
	if err != nil {
		t.Fatalf("Failed to add verified user: %v", err)
	}
}

// AuthHeaders builds the session handshake headers for a username
func AuthHeaders(username string) map[string]string {
	return map[string]string{
		"Username":  username,
		"Server-ID": "server-" + username,
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
