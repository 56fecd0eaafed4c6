// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Election status constants
const (
	StatusOpen    = "open"
	StatusClosed  = "closed"
	StatusTallied = "tallied"
)

// Ballot validity constants. Pending only exists inside the append
// transaction; committed ballots are always valid or invalid.
const (
	ValidityPending = "pending"
	ValidityValid   = "valid"
	ValidityInvalid = "invalid"
)

// Ballot origin constants
const (
	OriginVoter = "voter"
	OriginDecoy = "decoy"
)

// Duress state of a registration: the flag given to the voter's last ballot.
const (
	FlagNone    = "none"
	FlagValid   = "valid"
	FlagInvalid = "invalid"
)

// verify-ballot status values
const (
	RecordPending = "pending"
	RecordTrue    = "true"
	RecordFalse   = "false"
)

// Request types

type CandidateInput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type VoterInput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CreateElectionRequest struct {
	Name       string           `json:"name"`
	StartsAt   *time.Time       `json:"starts_at,omitempty"`
	EndsAt     time.Time        `json:"ends_at"`
	Candidates []CandidateInput `json:"candidates"`
	Voters     []VoterInput     `json:"voters"`
}

type RegisterVotersRequest struct {
	Voters []VoterInput `json:"voters"`
}

// VotedBefore defaults to len(ClaimedArtifacts) > 0 when omitted.
type SendBallotRequest struct {
	CandidateSelection string   `json:"candidate_selection"`
	ClaimedArtifacts   []string `json:"claimed_artifacts"`
	VotedBefore        *bool    `json:"voted_before,omitempty"`
	ElectionID         string   `json:"election_id"`
}

// Response types

type CreateElectionResponse struct {
	ElectionID  string            `json:"election_id"`
	AdminKey    string            `json:"admin_key"`
	VoterTokens map[string]string `json:"voter_tokens"`
}

type RegisterVotersResponse struct {
	VoterTokens map[string]string `json:"voter_tokens"`
}

type ElectionSummary struct {
	ElectionID   string `json:"election_id"`
	ElectionName string `json:"election_name"`
}

type ElectionsResponse struct {
	Elections []ElectionSummary `json:"elections"`
}

type CandidatesResponse struct {
	ElectionID string      `json:"election_id"`
	Candidates []Candidate `json:"candidates"`
}

// SendBallotResponse is the only shape POST /send-ballot ever returns on
// success, whatever validity the ballot was given.
type SendBallotResponse struct {
	ReminderArtifact string `json:"reminder_artifact"`
	Image            string `json:"image"`
}

type VerifyBallotResponse struct {
	Status string `json:"status"`
}

type CBRImage struct {
	Index     int       `json:"index"`
	Image     string    `json:"image"`
	Timestamp time.Time `json:"timestamp"`
	Artifact  string    `json:"artifact"`
}

type CBRImagesResponse struct {
	ElectionID string     `json:"election_id"`
	CBRImages  []CBRImage `json:"cbr_images"`
}

type ElectionResultResponse struct {
	Election Election    `json:"election"`
	Result   TallyResult `json:"result"`
}

type VerifyTallyResponse struct {
	Verified bool `json:"verified"`
}

type CloseElectionResponse struct {
	ClosedAt time.Time   `json:"closed_at"`
	Result   TallyResult `json:"result"`
}

// Domain types

type Election struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	StartsAt  time.Time  `json:"starts_at"`
	EndsAt    time.Time  `json:"ends_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// AcceptsBallots reports whether a ballot cast at now may be recorded.
func (e Election) AcceptsBallots(now time.Time) bool {
	return e.Status == StatusOpen && !now.Before(e.StartsAt) && !now.After(e.EndsAt)
}

type Candidate struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"-"`
}

type Voter struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Registration is a voter's per-election credential state. CastCount counts
// voter-cast ballots only; BallotCount counts every ballot in the voter's
// record and is the last sequence number handed out.
type Registration struct {
	ElectionID   string
	VoterID      string
	BallotCount  int
	CastCount    int
	LastFlag     string
	LastCastAt   *time.Time
	NextDecoyAt  *time.Time
	RegisteredAt time.Time
}

// HasPriorBallot reports the resolver state: true is HAS_PRIOR_BALLOT.
func (r Registration) HasPriorBallot() bool {
	return r.CastCount > 0
}

type Ballot struct {
	ID           string    `json:"id"`
	ElectionID   string    `json:"election_id"`
	VoterID      string    `json:"-"` // Never expose in JSON
	Seq          int       `json:"seq"`
	Origin       string    `json:"-"`
	CandidateID  string    `json:"-"`
	CastAt       time.Time `json:"cast_at"`
	Artifact     string    `json:"artifact"`
	Image        string    `json:"image"`
	ClaimedPrior []string  `json:"-"`
	Validity     string    `json:"-"`
}

// Tally types

type CandidateCount struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	Votes       int    `json:"votes"`
}

type TallyResult struct {
	ElectionID       string           `json:"election_id"`
	Counts           []CandidateCount `json:"counts"`
	IncludedBallots  int              `json:"included_ballots"`
	RegisteredVoters int              `json:"registered_voters"`
	Abstentions      int              `json:"abstentions"`
	Digest           string           `json:"digest"` // SHA3-256 over the resolved ballot set
	ComputedAt       time.Time        `json:"computed_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
