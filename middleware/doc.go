// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs method, path, status, remote address and duration_ms once the
handler returns. Query strings are left out.

# Voter Sessions

The X-Voter-Token header carries the voter session. OptionalVoter attaches
it to the request context when present, RequireVoter also rejects requests
without one:

	mux.HandleFunc("POST /send-ballot",
		middleware.RequireVoter(cfg.VoterTokenSalt, h.SendBallot))

	voterID, ok := middleware.VoterFromContext(r.Context())

# Latency Floor

WithLatencyFloor buffers the response and holds it until a minimum time
has passed, so fast and slow paths through a handler look the same from
outside.

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows GET, POST and OPTIONS with Content-Type, X-Admin-Key and
X-Voter-Token.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

	var req models.SendBallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
*/
package middleware
