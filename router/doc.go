// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the revote API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(svc, cfg)

# Endpoints

Health:

	GET /health

Election management (admin, requires X-Admin-Key):

	POST /elections              - Create election with candidates and voters
	POST /elections/{id}/voters  - Register more voters
	POST /elections/{id}/close   - Close and publish the tally

Bulletin board (public):

	GET /election             - Default election
	GET /elections            - All elections, or the session voter's
	GET /bulletin/candidates  - Candidates in ballot order
	GET /verify-ballot        - Is the ballot behind an artifact recorded

Voting (requires X-Voter-Token):

	POST /send-ballot                 - Cast a ballot
	GET  /fetch-cbr-images-for-voter  - The voter's cast ballot record

Results (public):

	GET /election-result - Published tally (tallied only)
	GET /verify_tally    - Recompute and compare with the published tally

# Middleware

Every route is wrapped in WithLogging. POST /send-ballot is additionally
padded by WithLatencyFloor so every cast takes at least the configured
CastLatencyFloor.
*/
package router
