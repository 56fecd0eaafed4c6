// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/revote/cliparse"
	"github.com/danielhkuo/revote/handlers"
	"github.com/danielhkuo/revote/middleware"
)

func NewRouter(svc *handlers.Services, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	electionHandler := handlers.NewElectionHandler(svc, cfg)
	ballotHandler := handlers.NewBallotHandler(svc, cfg)
	resultsHandler := handlers.NewResultsHandler(svc, cfg)

	salt := cfg.VoterTokenSalt

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Election management (admin operations)
	mux.HandleFunc("POST /elections", middleware.WithLogging(electionHandler.CreateElection))
	mux.HandleFunc("POST /elections/{id}/voters", middleware.WithLogging(electionHandler.RegisterVoters))
	mux.HandleFunc("POST /elections/{id}/close", middleware.WithLogging(electionHandler.CloseElection))

	// Bulletin board (public)
	mux.HandleFunc("GET /election", middleware.WithLogging(electionHandler.GetElection))
	mux.HandleFunc("GET /elections", middleware.WithLogging(middleware.OptionalVoter(salt, electionHandler.ListElections)))
	mux.HandleFunc("GET /bulletin/candidates", middleware.WithLogging(electionHandler.GetCandidates))
	mux.HandleFunc("GET /verify-ballot", middleware.WithLogging(ballotHandler.VerifyBallot))

	// Voting operations (voter session)
	mux.HandleFunc("POST /send-ballot", middleware.WithLogging(
		middleware.WithLatencyFloor(cfg.CastLatencyFloor, middleware.RequireVoter(salt, ballotHandler.SendBallot)),
	))
	mux.HandleFunc("GET /fetch-cbr-images-for-voter", middleware.WithLogging(middleware.RequireVoter(salt, ballotHandler.FetchCBRImages)))

	// Results retrieval (sealed until tallied)
	mux.HandleFunc("GET /election-result", middleware.WithLogging(resultsHandler.GetResult))
	mux.HandleFunc("GET /verify_tally", middleware.WithLogging(resultsHandler.VerifyTally))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("revote API v1"))
	})

	return mux
}
