// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/wynnextras/server/consensus"
	"github.com/wynnextras/server/middleware"
	"github.com/wynnextras/server/models"
)

// Older mod builds send the camp's display name instead of its short
// code; both address the same pool.
var lootrunAliases = map[string]string{
	"Silent Expanse":     "SE",
	"Sky Islands":        "SI",
	"Molten Heights":     "MH",
	"Corkus":             "CORK",
	"Canyon of the Lost": "COTL",
}

// NormalizeLootrunType maps a camp display name to its short code.
// Unknown values pass through and fail subject validation downstream.
func NormalizeLootrunType(lootrunType string) string {
	if short, ok := lootrunAliases[lootrunType]; ok {
		return short
	}
	return lootrunType
}

type LootrunHandler struct {
	engine   *consensus.Engine
	verifier Verifier
}

func NewLootrunHandler(engine *consensus.Engine, verifier Verifier) *LootrunHandler {
	return &LootrunHandler{engine: engine, verifier: verifier}
}

// Submit handles POST /lootrun/:lootrunType
func (h *LootrunHandler) Submit(w http.ResponseWriter, r *http.Request) {
	lootrunType := NormalizeLootrunType(r.PathValue("lootrunType"))
	if !consensus.LootrunFamily.ValidSubject(lootrunType) {
		slog.Warn("invalid lootrun type", "lootrun_type", r.PathValue("lootrunType"))
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid lootrun type")
		return
	}

	identity, ok := authenticate(w, r, h.verifier)
	if !ok {
		return
	}

	// Parse request
	var req models.LootrunSubmissionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if len(req.Items) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "items cannot be empty")
		return
	}

	payload, err := consensus.CanonicalizeItems(req.Items)
	if err != nil {
		slog.Error("failed to canonicalize items", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to process submission")
		return
	}

	submitter := consensus.Submitter{UUID: identity.UUID, Username: identity.Username}
	result, err := h.engine.Submit(r.Context(), consensus.LootrunFamily, lootrunType, submitter, payload)
	if err != nil {
		slog.Error("failed to record lootrun submission", "lootrun_type", lootrunType, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record submission")
		return
	}

	if !result.Approved {
		middleware.JSONResponse(w, http.StatusOK, models.SubmitLootrunResponse{
			Status:  models.StatusSubmitted,
			Message: "Submission recorded, awaiting consensus",
		})
		return
	}

	pool, err := decodeItemPayload(result.Payload)
	if err != nil {
		slog.Error("stored lootrun payload unreadable", "lootrun_type", lootrunType, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to read approved pool")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SubmitLootrunResponse{
		Status:   models.StatusApproved,
		Message:  "Loot pool approved for " + lootrunType,
		LootPool: pool,
	})
}

// Get handles GET /lootrun/:lootrunType
func (h *LootrunHandler) Get(w http.ResponseWriter, r *http.Request) {
	lootrunType := NormalizeLootrunType(r.PathValue("lootrunType"))
	if !consensus.LootrunFamily.ValidSubject(lootrunType) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid lootrun type")
		return
	}

	result, found, err := h.engine.GetApproved(r.Context(), consensus.LootrunFamily, lootrunType)
	if err != nil {
		slog.Error("failed to query approved lootrun pool", "lootrun_type", lootrunType, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !found {
		middleware.ErrorResponse(w, http.StatusNotFound, "No approved loot pool for "+lootrunType)
		return
	}

	pool, err := decodeItemPayload(result.Payload)
	if err != nil {
		slog.Error("stored lootrun payload unreadable", "lootrun_type", lootrunType, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to read approved pool")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, pool)
}

func decodeItemPayload(payload string) (*models.LootrunPoolResponse, error) {
	var items []models.LootItem
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, err
	}
	return &models.LootrunPoolResponse{Items: items}, nil
}
