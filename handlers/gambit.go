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

type GambitHandler struct {
	engine   *consensus.Engine
	verifier Verifier
}

func NewGambitHandler(engine *consensus.Engine, verifier Verifier) *GambitHandler {
	return &GambitHandler{engine: engine, verifier: verifier}
}

// Submit handles POST /gambit
func (h *GambitHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity, ok := authenticate(w, r, h.verifier)
	if !ok {
		return
	}

	// Parse request
	var req models.GambitSubmissionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if len(req.Gambits) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "gambits cannot be empty")
		return
	}

	payload, err := consensus.CanonicalizeGambits(req.Gambits)
	if err != nil {
		slog.Error("failed to canonicalize gambits", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to process submission")
		return
	}

	submitter := consensus.Submitter{UUID: identity.UUID, Username: identity.Username}
	result, err := h.engine.Submit(r.Context(), consensus.GambitFamily, consensus.GambitSubject, submitter, payload)
	if err != nil {
		slog.Error("failed to record gambit submission", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record submission")
		return
	}

	if !result.Approved {
		middleware.JSONResponse(w, http.StatusOK, models.SubmitGambitsResponse{
			Status:  models.StatusSubmitted,
			Message: "Submission recorded, awaiting consensus",
		})
		return
	}

	gambits, err := decodeGambitPayload(result.Payload)
	if err != nil {
		slog.Error("stored gambit payload unreadable", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to read approved gambits")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SubmitGambitsResponse{
		Status:  models.StatusApproved,
		Message: "Gambits approved for today",
		Gambits: gambits,
	})
}

// Get handles GET /gambit
func (h *GambitHandler) Get(w http.ResponseWriter, r *http.Request) {
	result, found, err := h.engine.GetApproved(r.Context(), consensus.GambitFamily, consensus.GambitSubject)
	if err != nil {
		slog.Error("failed to query approved gambits", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !found {
		middleware.ErrorResponse(w, http.StatusNotFound, "No approved gambits for today")
		return
	}

	gambits, err := decodeGambitPayload(result.Payload)
	if err != nil {
		slog.Error("stored gambit payload unreadable", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to read approved gambits")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, gambits)
}

func decodeGambitPayload(payload string) (*models.GambitsResponse, error) {
	var gambits []models.Gambit
	if err := json.Unmarshal([]byte(payload), &gambits); err != nil {
		return nil, err
	}
	return &models.GambitsResponse{Gambits: gambits}, nil
}
