// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/revote/casting"
	"github.com/danielhkuo/revote/cliparse"
	"github.com/danielhkuo/revote/middleware"
	"github.com/danielhkuo/revote/models"
	"github.com/danielhkuo/revote/store"
)

// maxBallotBody fits a claim of casting.MaxClaimedArtifacts artifacts.
const maxBallotBody = 256 << 10

type BallotHandler struct {
	store    *store.Store
	resolver *casting.Resolver
	cfg      cliparse.Config
}

func NewBallotHandler(svc *Services, cfg cliparse.Config) *BallotHandler {
	return &BallotHandler{store: svc.Store, resolver: svc.Resolver, cfg: cfg}
}

// SendBallot handles POST /send-ballot
// Valid and invalid ballots get the same 201 response; only requests that
// never reach the validity decision fail.
func (h *BallotHandler) SendBallot(w http.ResponseWriter, r *http.Request) {
	voterID, ok := middleware.VoterFromContext(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Voter session required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBallotBody)

	var req models.SendBallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeCastError(w, fmt.Errorf("%w: request body exceeds %d bytes", casting.ErrMalformedBallot, maxBallotBody))
			return
		}
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	claimsPrior := len(req.ClaimedArtifacts) > 0
	if req.VotedBefore != nil {
		claimsPrior = *req.VotedBefore
	}

	out, err := h.resolver.Cast(r.Context(), casting.CastRequest{
		ElectionID:  req.ElectionID,
		VoterID:     voterID,
		CandidateID: req.CandidateSelection,
		ClaimsPrior: claimsPrior,
		Claimed:     req.ClaimedArtifacts,
	})
	if err != nil {
		writeCastError(w, err)
		return
	}

	receipt := out.Receipt()
	middleware.JSONResponse(w, http.StatusCreated, models.SendBallotResponse{
		ReminderArtifact: receipt.Artifact,
		Image:            receipt.Image,
	})
}

func writeCastError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, casting.ErrMalformedBallot):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, casting.ErrUnknownCandidate):
		middleware.ErrorResponse(w, http.StatusBadRequest, "Unknown candidate")
	case errors.Is(err, casting.ErrElectionNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
	case errors.Is(err, casting.ErrElectionNotOpen):
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not open")
	case errors.Is(err, casting.ErrNotEligible):
		middleware.ErrorResponse(w, http.StatusForbidden, "Voter is not registered for this election")
	case errors.Is(err, casting.ErrUnavailable):
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Ballot could not be recorded")
	default:
		slog.Error("unexpected cast error", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Ballot could not be recorded")
	}
}

// VerifyBallot handles GET /verify-ballot?election_id=&artifact=
// Reports whether the ballot bound to an artifact is in the record. It
// never reveals the ballot's validity.
func (h *BallotHandler) VerifyBallot(w http.ResponseWriter, r *http.Request) {
	electionID := r.URL.Query().Get("election_id")
	artifact := r.URL.Query().Get("artifact")
	if electionID == "" || artifact == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id and artifact are required")
		return
	}

	e, ok := electionFromQuery(w, r, h.store)
	if !ok {
		return
	}

	status := models.RecordTrue
	_, err := h.store.BallotByArtifact(r.Context(), h.store.DB(), e.ID, artifact)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		status = models.RecordFalse
		if e.Status == models.StatusOpen {
			status = models.RecordPending
		}
	default:
		slog.Error("failed to query ballot", "election_id", e.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VerifyBallotResponse{Status: status})
}

// FetchCBRImages handles GET /fetch-cbr-images-for-voter?election_id=&voter_id=
// Returns the caller's own cast ballot record, decoys included, in order.
func (h *BallotHandler) FetchCBRImages(w http.ResponseWriter, r *http.Request) {
	sessionVoter, ok := middleware.VoterFromContext(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Voter session required")
		return
	}

	voterID := r.URL.Query().Get("voter_id")
	if voterID == "" {
		voterID = sessionVoter
	}
	if voterID != sessionVoter {
		middleware.ErrorResponse(w, http.StatusForbidden, "Cannot read another voter's record")
		return
	}

	e, ok := electionFromQuery(w, r, h.store)
	if !ok {
		return
	}

	history, err := h.store.History(r.Context(), h.store.DB(), e.ID, voterID)
	if err != nil {
		slog.Error("failed to query ballot history", "election_id", e.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	images := make([]models.CBRImage, len(history))
	for i, b := range history {
		images[i] = models.CBRImage{
			Index:     i + 1,
			Image:     b.Image,
			Timestamp: b.CastAt,
			Artifact:  b.Artifact,
		}
	}

	middleware.JSONResponse(w, http.StatusOK, models.CBRImagesResponse{
		ElectionID: e.ID,
		CBRImages:  images,
	})
}
