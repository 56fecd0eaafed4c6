// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/revote/cliparse"
	"github.com/danielhkuo/revote/middleware"
	"github.com/danielhkuo/revote/models"
	"github.com/danielhkuo/revote/store"
	"github.com/danielhkuo/revote/tally"
)

type ResultsHandler struct {
	store  *store.Store
	engine *tally.Engine
	cfg    cliparse.Config
}

func NewResultsHandler(svc *Services, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{store: svc.Store, engine: svc.Engine, cfg: cfg}
}

// GetResult handles GET /election-result?election_id=
// Returns 403 while the election is open (results are sealed) and 409 while
// it is closed but not yet tallied.
func (h *ResultsHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	e, ok := electionFromQuery(w, r, h.store)
	if !ok {
		return
	}

	switch e.Status {
	case models.StatusOpen:
		middleware.ErrorResponse(w, http.StatusForbidden, "Results are sealed until the election closes")
		return
	case models.StatusClosed:
		middleware.ErrorResponse(w, http.StatusConflict, "Tally has not been published yet")
		return
	}

	result, err := h.store.LatestSnapshot(r.Context(), h.store.DB(), e.ID)
	if err != nil {
		slog.Error("failed to load tally snapshot", "election_id", e.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ElectionResultResponse{
		Election: e,
		Result:   result,
	})
}

// VerifyTally handles GET /verify_tally?election_id=
func (h *ResultsHandler) VerifyTally(w http.ResponseWriter, r *http.Request) {
	e, ok := electionFromQuery(w, r, h.store)
	if !ok {
		return
	}

	verified, err := h.engine.Verify(r.Context(), e.ID)
	switch {
	case err == nil:
	case errors.Is(err, tally.ErrNotTallied):
		middleware.ErrorResponse(w, http.StatusConflict, "Tally has not been published yet")
		return
	case errors.Is(err, tally.ErrElectionNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	default:
		slog.Error("failed to verify tally", "election_id", e.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to verify tally")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VerifyTallyResponse{Verified: verified})
}
