// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/revote/auth"
	"github.com/danielhkuo/revote/cliparse"
	"github.com/danielhkuo/revote/middleware"
	"github.com/danielhkuo/revote/models"
	"github.com/danielhkuo/revote/store"
	"github.com/danielhkuo/revote/tally"
)

var errElectionNotOpen = errors.New("election is not open")

type ElectionHandler struct {
	store  *store.Store
	engine *tally.Engine
	cfg    cliparse.Config
}

func NewElectionHandler(svc *Services, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{store: svc.Store, engine: svc.Engine, cfg: cfg}
}

// GetElection handles GET /election
// Returns the election currently accepting ballots, else the newest one.
func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	e, err := h.store.DefaultElection(r.Context(), time.Now().UTC())
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "No elections")
		return
	}
	if err != nil {
		slog.Error("failed to query default election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ElectionSummary{
		ElectionID:   e.ID,
		ElectionName: e.Name,
	})
}

// ListElections handles GET /elections
// With a voter session only that voter's elections are listed.
func (h *ElectionHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	var elections []models.Election
	var err error
	if voterID, ok := middleware.VoterFromContext(r.Context()); ok {
		elections, err = h.store.ListElectionsForVoter(r.Context(), voterID)
	} else {
		elections, err = h.store.ListElections(r.Context())
	}
	if err != nil {
		slog.Error("failed to list elections", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	summaries := make([]models.ElectionSummary, 0, len(elections))
	for _, e := range elections {
		summaries = append(summaries, models.ElectionSummary{ElectionID: e.ID, ElectionName: e.Name})
	}

	middleware.JSONResponse(w, http.StatusOK, models.ElectionsResponse{Elections: summaries})
}

// GetCandidates handles GET /bulletin/candidates?election_id=
func (h *ElectionHandler) GetCandidates(w http.ResponseWriter, r *http.Request) {
	e, ok := electionFromQuery(w, r, h.store)
	if !ok {
		return
	}

	candidates, err := h.store.Candidates(r.Context(), h.store.DB(), e.ID)
	if err != nil {
		slog.Error("failed to query candidates", "election_id", e.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.CandidatesResponse{
		ElectionID: e.ID,
		Candidates: candidates,
	})
}

// CreateElection handles POST /elections
// Requires the instance admin key. Returns the election admin key and one
// session token per registered voter.
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	adminKey := r.Header.Get(middleware.AdminKeyHeader)
	if err := auth.ValidateAdminKey(auth.ElectionsScope, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	now := time.Now().UTC()
	e, candidates, err := buildElection(req, now)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateVoters(req.Voters); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	e.ID, err = auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate election ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	err = h.store.WithTx(r.Context(), func(tx *sql.Tx) error {
		if err := h.store.CreateElection(r.Context(), tx, e, candidates); err != nil {
			return err
		}
		for _, v := range req.Voters {
			if err := h.store.RegisterVoter(r.Context(), tx, e.ID, models.Voter{ID: v.ID, Name: v.Name}, now); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, store.ErrDuplicate) {
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		slog.Error("failed to create election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	slog.Info("election created",
		"election_id", e.ID,
		"candidates", len(candidates),
		"voters", len(req.Voters),
	)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateElectionResponse{
		ElectionID:  e.ID,
		AdminKey:    auth.GenerateAdminKey(e.ID, h.cfg.AdminKeySalt),
		VoterTokens: h.voterTokens(req.Voters),
	})
}

// RegisterVoters handles POST /elections/{id}/voters
func (h *ElectionHandler) RegisterVoters(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id is required")
		return
	}

	adminKey := r.Header.Get(middleware.AdminKeyHeader)
	if err := auth.ValidateAdminKey(electionID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	var req models.RegisterVotersRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Voters) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "at least one voter is required")
		return
	}
	if err := validateVoters(req.Voters); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now().UTC()
	err := h.store.WithTx(r.Context(), func(tx *sql.Tx) error {
		e, err := h.store.GetElection(r.Context(), tx, electionID)
		if err != nil {
			return err
		}
		if e.Status != models.StatusOpen {
			return errElectionNotOpen
		}
		for _, v := range req.Voters {
			if err := h.store.RegisterVoter(r.Context(), tx, electionID, models.Voter{ID: v.ID, Name: v.Name}, now); err != nil {
				return err
			}
		}
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	case errors.Is(err, errElectionNotOpen):
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not open")
		return
	case errors.Is(err, store.ErrDuplicate):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
		return
	default:
		slog.Error("failed to register voters", "election_id", electionID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register voters")
		return
	}

	slog.Info("voters registered", "election_id", electionID, "count", len(req.Voters))

	middleware.JSONResponse(w, http.StatusCreated, models.RegisterVotersResponse{
		VoterTokens: h.voterTokens(req.Voters),
	})
}

// CloseElection handles POST /elections/{id}/close
// Ends voting and publishes the tally.
func (h *ElectionHandler) CloseElection(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id is required")
		return
	}

	adminKey := r.Header.Get(middleware.AdminKeyHeader)
	if err := auth.ValidateAdminKey(electionID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	result, err := h.engine.Close(r.Context(), electionID)
	switch {
	case err == nil:
	case errors.Is(err, tally.ErrElectionNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	case errors.Is(err, tally.ErrAlreadyTallied):
		middleware.ErrorResponse(w, http.StatusConflict, "Election already tallied")
		return
	default:
		slog.Error("failed to close election", "election_id", electionID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close election")
		return
	}

	e, err := h.store.GetElection(r.Context(), h.store.DB(), electionID)
	if err != nil {
		slog.Error("failed to query election", "election_id", electionID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	closedAt := result.ComputedAt
	if e.ClosedAt != nil {
		closedAt = *e.ClosedAt
	}

	middleware.JSONResponse(w, http.StatusOK, models.CloseElectionResponse{
		ClosedAt: closedAt,
		Result:   result,
	})
}

func (h *ElectionHandler) voterTokens(voters []models.VoterInput) map[string]string {
	tokens := make(map[string]string, len(voters))
	for _, v := range voters {
		tokens[v.ID] = auth.GenerateVoterToken(v.ID, h.cfg.VoterTokenSalt)
	}
	return tokens
}

// buildElection validates a create request and turns it into the rows to
// insert. Candidates without an ID are numbered c1, c2, ... by position.
func buildElection(req models.CreateElectionRequest, now time.Time) (models.Election, []models.Candidate, error) {
	if req.Name == "" {
		return models.Election{}, nil, errors.New("name is required")
	}
	if req.EndsAt.IsZero() {
		return models.Election{}, nil, errors.New("ends_at is required")
	}

	startsAt := now
	if req.StartsAt != nil {
		startsAt = req.StartsAt.UTC()
	}
	endsAt := req.EndsAt.UTC()
	if !endsAt.After(startsAt) {
		return models.Election{}, nil, errors.New("ends_at must be after starts_at")
	}

	if len(req.Candidates) == 0 {
		return models.Election{}, nil, errors.New("at least one candidate is required")
	}

	seen := make(map[string]bool, len(req.Candidates))
	candidates := make([]models.Candidate, len(req.Candidates))
	for i, c := range req.Candidates {
		if c.Name == "" {
			return models.Election{}, nil, fmt.Errorf("candidate %d: name is required", i+1)
		}
		id := c.ID
		if id == "" {
			id = fmt.Sprintf("c%d", i+1)
		}
		if seen[id] {
			return models.Election{}, nil, fmt.Errorf("duplicate candidate id %q", id)
		}
		seen[id] = true
		candidates[i] = models.Candidate{ID: id, Name: c.Name, Position: i}
	}

	return models.Election{
		Name:      req.Name,
		Status:    models.StatusOpen,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		CreatedAt: now,
	}, candidates, nil
}

func validateVoters(voters []models.VoterInput) error {
	seen := make(map[string]bool, len(voters))
	for i, v := range voters {
		if v.ID == "" {
			return fmt.Errorf("voter %d: id is required", i+1)
		}
		if seen[v.ID] {
			return fmt.Errorf("duplicate voter id %q", v.ID)
		}
		seen[v.ID] = true
	}
	return nil
}
