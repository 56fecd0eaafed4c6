// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the revote API.

# Handler Types

Each handler is a struct built from the shared Services and Config:

  - ElectionHandler: Election info, candidates, and admin operations
  - BallotHandler: Ballot casting, ballot verification, cast ballot records
  - ResultsHandler: Published tally and tally verification

Services holds the store, the validity resolver, and the tally engine. One
Services value is shared by the router and the background workers so every
cast, from HTTP or from the decoy caster, goes through the same per-voter
locks:

	svc, err := handlers.NewServices(db, cfg)
	ballotHandler := handlers.NewBallotHandler(svc, cfg)

# Election Lifecycle

Elections progress through three states: open → closed → tallied

	POST /elections              → CreateElection (returns admin_key, voter_tokens)
	POST /elections/{id}/voters  → RegisterVoters
	POST /elections/{id}/close   → CloseElection (publishes the tally)

Creating an election requires the instance admin key; the other admin
operations require the per-election key. Both go in the X-Admin-Key header.

# Voting Flow

	GET  /election                       → GetElection (default election)
	GET  /bulletin/candidates            → GetCandidates
	POST /send-ballot                    → SendBallot
	GET  /verify-ballot                  → VerifyBallot
	GET  /fetch-cbr-images-for-voter     → FetchCBRImages

Voter operations require the X-Voter-Token header. SendBallot answers 201
with a reminder artifact and image whether the ballot was counted as valid
or silently invalidated. Errors are only returned for requests that never
reach that decision.

# Results

	GET /election-result → GetResult (403 while open, 409 until tallied)
	GET /verify_tally    → VerifyTally
*/
package handlers
