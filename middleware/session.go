// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"net/http"

	"github.com/danielhkuo/revote/auth"
)

const (
	AdminKeyHeader   = "X-Admin-Key"
	VoterTokenHeader = "X-Voter-Token"
)

type contextKey int

const voterKey contextKey = iota

// VoterFromContext returns the voter ID put there by OptionalVoter or
// RequireVoter.
func VoterFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(voterKey).(string)
	return id, ok && id != ""
}

// OptionalVoter attaches the voter session to the request when an
// X-Voter-Token header is present. A token that does not verify is
// rejected with 401.
func OptionalVoter(salt string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(VoterTokenHeader)
		if token == "" {
			next(w, r)
			return
		}

		voterID, err := auth.ParseVoterToken(token, salt)
		if err != nil {
			ErrorResponse(w, http.StatusUnauthorized, "Invalid voter session")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), voterKey, voterID)))
	}
}

// RequireVoter is OptionalVoter that also rejects requests without a
// session.
func RequireVoter(salt string, next http.HandlerFunc) http.HandlerFunc {
	return OptionalVoter(salt, func(w http.ResponseWriter, r *http.Request) {
		if _, ok := VoterFromContext(r.Context()); !ok {
			ErrorResponse(w, http.StatusUnauthorized, "Voter session required")
			return
		}
		next(w, r)
	})
}
