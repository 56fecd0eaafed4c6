// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateElectionRequest: name, starts_at, ends_at, candidates, voters
  - RegisterVotersRequest: voters
  - SendBallotRequest: candidate_selection, claimed_artifacts, voted_before, election_id

# Response Types

Types for JSON responses:

  - CreateElectionResponse: election_id, admin_key, voter_tokens
  - ElectionSummary / ElectionsResponse: election_id, election_name
  - CandidatesResponse: ordered candidates
  - SendBallotResponse: reminder_artifact, image
  - VerifyBallotResponse: status (pending, true, false)
  - CBRImagesResponse: the voter's cast ballot record
  - ElectionResultResponse, VerifyTallyResponse, CloseElectionResponse
  - ErrorResponse: error, message

SendBallotResponse deliberately has no field that could carry a ballot's
validity.

# Domain Types

  - Election: metadata and lifecycle state
  - Candidate: ordered by Position
  - Voter and Registration: per-election credential state
  - Ballot: one entry in a voter's append-only record
  - TallyResult and CandidateCount: derived counts plus digest

# Constants

Status values:

	StatusOpen    = "open"
	StatusClosed  = "closed"
	StatusTallied = "tallied"

Ballot validity:

	ValidityPending = "pending"
	ValidityValid   = "valid"
	ValidityInvalid = "invalid"

Ballot origin:

	OriginVoter = "voter"
	OriginDecoy = "decoy"
*/
package models
