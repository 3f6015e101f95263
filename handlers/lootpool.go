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

type LootPoolHandler struct {
	engine   *consensus.Engine
	verifier Verifier
}

func NewLootPoolHandler(engine *consensus.Engine, verifier Verifier) *LootPoolHandler {
	return &LootPoolHandler{engine: engine, verifier: verifier}
}

// Submit handles POST /lootpool/:raidType
func (h *LootPoolHandler) Submit(w http.ResponseWriter, r *http.Request) {
	raidType := r.PathValue("raidType")
	if !consensus.RaidFamily.ValidSubject(raidType) {
		slog.Warn("invalid raid type", "raid_type", raidType)
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid raid type")
		return
	}

	identity, ok := authenticate(w, r, h.verifier)
	if !ok {
		return
	}

	// Parse request
	var req models.LootPoolSubmissionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if len(req.Aspects) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "aspects cannot be empty")
		return
	}

	payload, err := consensus.CanonicalizeAspects(req.Aspects)
	if err != nil {
		slog.Error("failed to canonicalize aspects", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to process submission")
		return
	}

	submitter := consensus.Submitter{UUID: identity.UUID, Username: identity.Username}
	result, err := h.engine.Submit(r.Context(), consensus.RaidFamily, raidType, submitter, payload)
	if err != nil {
		slog.Error("failed to record loot pool submission", "raid_type", raidType, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record submission")
		return
	}

	if !result.Approved {
		middleware.JSONResponse(w, http.StatusOK, models.SubmitLootPoolResponse{
			Status:  models.StatusSubmitted,
			Message: "Submission recorded, awaiting consensus",
		})
		return
	}

	pool, err := decodeAspectPayload(result.Payload)
	if err != nil {
		slog.Error("stored loot pool payload unreadable", "raid_type", raidType, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to read approved pool")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SubmitLootPoolResponse{
		Status:   models.StatusApproved,
		Message:  "Loot pool approved for " + raidType,
		LootPool: pool,
	})
}

// Get handles GET /lootpool/:raidType
func (h *LootPoolHandler) Get(w http.ResponseWriter, r *http.Request) {
	raidType := r.PathValue("raidType")
	if !consensus.RaidFamily.ValidSubject(raidType) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid raid type")
		return
	}

	result, found, err := h.engine.GetApproved(r.Context(), consensus.RaidFamily, raidType)
	if err != nil {
		slog.Error("failed to query approved loot pool", "raid_type", raidType, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !found {
		middleware.ErrorResponse(w, http.StatusNotFound, "No approved loot pool for "+raidType)
		return
	}

	pool, err := decodeAspectPayload(result.Payload)
	if err != nil {
		slog.Error("stored loot pool payload unreadable", "raid_type", raidType, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to read approved pool")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, pool)
}

// decodeAspectPayload unpacks a canonical payload (a sorted JSON array)
// back into the response shape the mod expects.
func decodeAspectPayload(payload string) (*models.LootPoolResponse, error) {
	var aspects []models.Aspect
	if err := json.Unmarshal([]byte(payload), &aspects); err != nil {
		return nil, err
	}
	return &models.LootPoolResponse{Aspects: aspects}, nil
}
