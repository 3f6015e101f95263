// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wynnextras/server/models"
	"github.com/wynnextras/server/testutil"
)

func uploadAspects(t *testing.T, handler *AspectHandler, username string, aspects []models.AspectData) {
	t.Helper()
	body := models.AspectUploadRequest{
		PlayerName: username,
		ModVersion: "1.4.2",
		Aspects:    aspects,
	}
	req := testutil.MakeRequest("POST", "/user", body, testutil.AuthHeaders(username))
	w := httptest.NewRecorder()
	handler.Upload(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)
}

func TestAspectUploadAndGet(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	verifier := testutil.NewFakeVerifier("Alice")
	handler := NewAspectHandler(conn, verifier)

	uploadAspects(t, handler, "Alice", []models.AspectData{
		{Name: "Aspect of Grace", Rarity: "Fabled", Amount: 3},
		{Name: "Aspect of the Berserker", Rarity: "Mythic", Amount: 1},
	})

	req := testutil.MakeRequest("GET", "/user?playerUuid="+testutil.TestUUID("Alice"), nil, nil)
	w := httptest.NewRecorder()
	handler.Get(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.PlayerAspectsResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.PlayerName != "Alice" || resp.ModVersion != "1.4.2" {
		t.Errorf("Unexpected player metadata: %+v", resp)
	}
	if len(resp.Aspects) != 2 {
		t.Fatalf("Expected 2 aspects, got %d", len(resp.Aspects))
	}
	if resp.LastUpdated == 0 {
		t.Error("Expected lastUpdated to be set")
	}
}

func TestAspectUploadUpserts(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	verifier := testutil.NewFakeVerifier("Alice")
	handler := NewAspectHandler(conn, verifier)

	uploadAspects(t, handler, "Alice", []models.AspectData{
		{Name: "Aspect of Grace", Rarity: "Fabled", Amount: 3},
	})
	// Re-upload with a higher count replaces, not duplicates
	uploadAspects(t, handler, "Alice", []models.AspectData{
		{Name: "Aspect of Grace", Rarity: "Fabled", Amount: 5},
	})

	var rows, amount int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM personal_aspect`).Scan(&rows); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	if err := conn.QueryRow(`SELECT amount FROM personal_aspect`).Scan(&amount); err != nil {
		t.Fatalf("Failed to read amount: %v", err)
	}
	if rows != 1 {
		t.Errorf("Expected 1 row after re-upload, got %d", rows)
	}
	if amount != 5 {
		t.Errorf("Expected amount 5, got %d", amount)
	}
}

// dashedUUID formats a normalized UUID in the canonical 8-4-4-4-12 form.
func dashedUUID(u string) string {
	return u[:8] + "-" + u[8:12] + "-" + u[12:16] + "-" + u[16:20] + "-" + u[20:]
}

func TestAspectGetValidation(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	handler := NewAspectHandler(conn, testutil.NewFakeVerifier())

	// Missing playerUuid
	req := testutil.MakeRequest("GET", "/user", nil, nil)
	w := httptest.NewRecorder()
	handler.Get(w, req)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	// Malformed playerUuid
	req = testutil.MakeRequest("GET", "/user?playerUuid=deadbeef", nil, nil)
	w = httptest.NewRecorder()
	handler.Get(w, req)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	// Unknown player
	req = testutil.MakeRequest("GET", "/user?playerUuid="+testutil.TestUUID("Nobody"), nil, nil)
	w = httptest.NewRecorder()
	handler.Get(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestAspectGetNormalizesUUID(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	verifier := testutil.NewFakeVerifier("Alice")
	handler := NewAspectHandler(conn, verifier)

	uploadAspects(t, handler, "Alice", []models.AspectData{
		{Name: "Aspect of Grace", Rarity: "Fabled", Amount: 3},
	})

	// The canonical dashed, mixed-case form addresses the same rows
	dashed := strings.ToUpper(dashedUUID(testutil.TestUUID("Alice")))
	req := testutil.MakeRequest("GET", "/user?playerUuid="+dashed, nil, nil)
	w := httptest.NewRecorder()
	handler.Get(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.PlayerAspectsResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.PlayerUUID != testutil.TestUUID("Alice") {
		t.Errorf("Expected normalized UUID in response, got %q", resp.PlayerUUID)
	}
	if len(resp.Aspects) != 1 {
		t.Errorf("Expected 1 aspect, got %d", len(resp.Aspects))
	}
}

func TestAspectUploadStoresVerifiedName(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	verifier := testutil.NewFakeVerifier("Alice")
	handler := NewAspectHandler(conn, verifier)

	// The body's playerName must not override the verified identity
	body := models.AspectUploadRequest{
		PlayerName: "xX_Admin_Xx",
		ModVersion: "1.4.2",
		Aspects: []models.AspectData{
			{Name: "Aspect of Grace", Rarity: "Fabled", Amount: 3},
		},
	}
	req := testutil.MakeRequest("POST", "/user", body, testutil.AuthHeaders("Alice"))
	w := httptest.NewRecorder()
	handler.Upload(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var stored string
	if err := conn.QueryRow(`SELECT player_name FROM personal_aspect`).Scan(&stored); err != nil {
		t.Fatalf("Failed to read player name: %v", err)
	}
	if stored != "Alice" {
		t.Errorf("Expected verified name Alice, got %q", stored)
	}
}

func TestAspectLeaderboard(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	verifier := testutil.NewFakeVerifier("Alice", "Bob")
	handler := NewAspectHandler(conn, verifier)

	uploadAspects(t, handler, "Alice", []models.AspectData{
		{Name: "Aspect of Grace", Rarity: "Fabled", Amount: 3},
	})
	uploadAspects(t, handler, "Bob", []models.AspectData{
		{Name: "Aspect of Grace", Rarity: "Fabled", Amount: 7},
	})

	req := testutil.MakeRequest("GET", "/user/leaderboard", nil, nil)
	w := httptest.NewRecorder()
	handler.Leaderboard(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var entries []models.LeaderboardEntry
	testutil.AssertJSON(t, w, &entries)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].PlayerName != "Bob" || entries[0].MaxAspectCount != 7 {
		t.Errorf("Expected Bob(7) first, got %+v", entries[0])
	}

	// limit is honored
	req = testutil.MakeRequest("GET", "/user/leaderboard?limit=1", nil, nil)
	w = httptest.NewRecorder()
	handler.Leaderboard(w, req)

	entries = nil
	testutil.AssertJSON(t, w, &entries)
	if len(entries) != 1 {
		t.Errorf("Expected 1 entry with limit=1, got %d", len(entries))
	}
}

func TestAspectList(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	verifier := testutil.NewFakeVerifier("Alice", "Bob")
	handler := NewAspectHandler(conn, verifier)

	uploadAspects(t, handler, "Alice", []models.AspectData{
		{Name: "Aspect of Grace", Rarity: "Fabled", Amount: 3},
		{Name: "Aspect of the Berserker", Rarity: "Mythic", Amount: 1},
	})
	uploadAspects(t, handler, "Bob", []models.AspectData{
		{Name: "Aspect of Grace", Rarity: "Fabled", Amount: 7},
	})

	// Age Alice's upload so the recency order is unambiguous
	_, err := conn.Exec(`UPDATE personal_aspect SET updated_at = $1 WHERE player_uuid = $2`,
		time.Now().Add(-time.Hour), testutil.TestUUID("Alice"))
	if err != nil {
		t.Fatalf("Failed to age rows: %v", err)
	}

	req := testutil.MakeRequest("GET", "/user/list", nil, nil)
	w := httptest.NewRecorder()
	handler.List(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var entries []models.PlayerListEntry
	testutil.AssertJSON(t, w, &entries)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 players, got %d", len(entries))
	}

	// Most recently updated first
	if entries[0].PlayerName != "Bob" {
		t.Errorf("Expected Bob first, got %+v", entries[0])
	}
	if entries[1].PlayerName != "Alice" || entries[1].AspectCount != 2 {
		t.Errorf("Expected Alice with 2 aspects second, got %+v", entries[1])
	}
}
