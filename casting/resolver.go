// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package casting

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/revote/auth"
	"github.com/danielhkuo/revote/linkage"
	"github.com/danielhkuo/revote/models"
	"github.com/danielhkuo/revote/store"
	"github.com/google/uuid"
)

// Errors returned before any validity decision is made. They are safe to
// show to the voter.
var (
	ErrElectionNotFound = errors.New("election not found")
	ErrElectionNotOpen  = errors.New("election is not accepting ballots")
	ErrUnknownCandidate = errors.New("unknown candidate")
	ErrMalformedBallot  = errors.New("malformed ballot")
	ErrNotEligible      = errors.New("voter is not registered for this election")
	ErrUnavailable      = errors.New("ballot could not be recorded")
)

const defaultMaxAttempts = 5

// CastRequest is one voter-cast ballot.
type CastRequest struct {
	ElectionID  string
	VoterID     string
	CandidateID string
	ClaimsPrior bool
	Claimed     []string
}

// MaxClaimedArtifacts bounds the claim a single cast may carry.
const MaxClaimedArtifacts = 1024

func (r CastRequest) validate() error {
	if r.ElectionID == "" {
		return fmt.Errorf("%w: election_id is required", ErrMalformedBallot)
	}
	if r.VoterID == "" {
		return fmt.Errorf("%w: voter is required", ErrMalformedBallot)
	}
	if r.CandidateID == "" {
		return fmt.Errorf("%w: candidate_selection is required", ErrMalformedBallot)
	}
	if len(r.Claimed) > MaxClaimedArtifacts {
		return fmt.Errorf("%w: more than %d claimed artifacts", ErrMalformedBallot, MaxClaimedArtifacts)
	}
	for _, a := range r.Claimed {
		if a == "" {
			return fmt.Errorf("%w: empty claimed artifact", ErrMalformedBallot)
		}
	}
	return nil
}

// Resolver appends ballots to the record and decides their validity.
type Resolver struct {
	store       *store.Store
	verifier    *linkage.Verifier
	images      *ImagePool
	locks       *keyedLocks
	now         func() time.Time
	maxAttempts int
}

func NewResolver(s *store.Store, images *ImagePool) *Resolver {
	if images == nil {
		images = DefaultImagePool()
	}
	return &Resolver{
		store:       s,
		verifier:    linkage.NewVerifier(s),
		images:      images,
		locks:       newKeyedLocks(),
		now:         time.Now,
		maxAttempts: defaultMaxAttempts,
	}
}

// decide maps the voter's state and claim to a validity. It is the only
// place a validity is chosen for a voter-cast ballot.
func decide(hasPrior, claimsPrior, linked bool) string {
	switch {
	case !hasPrior && !claimsPrior:
		return models.ValidityValid
	case !hasPrior && claimsPrior:
		return models.ValidityInvalid
	case hasPrior && !claimsPrior:
		return models.ValidityInvalid
	case linked:
		return models.ValidityValid
	default:
		return models.ValidityInvalid
	}
}

// Cast records a voter ballot and returns its outcome. Visible errors are
// returned only for requests that never reach the validity decision.
// Once the transaction starts it runs to completion even if ctx is
// cancelled, so a client that disconnects cannot undo a recorded ballot.
func (r *Resolver) Cast(ctx context.Context, req CastRequest) (Outcome, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	unlock := r.locks.Lock(voterKey(req.ElectionID, req.VoterID))
	defer unlock()

	ctx = context.WithoutCancel(ctx)

	var out Outcome
	err := r.retry(ctx, req.ElectionID, func() error {
		var err error
		out, err = r.castOnce(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("ballot recorded", "election_id", req.ElectionID)
	return out, nil
}

func (r *Resolver) castOnce(ctx context.Context, req CastRequest) (Outcome, error) {
	var out Outcome
	err := r.store.WithTx(ctx, func(tx *sql.Tx) error {
		now := r.now().UTC()

		if _, err := r.openElection(ctx, tx, req.ElectionID, now); err != nil {
			return err
		}

		candidates, err := r.store.Candidates(ctx, tx, req.ElectionID)
		if err != nil {
			return err
		}
		if !hasCandidate(candidates, req.CandidateID) {
			return ErrUnknownCandidate
		}

		reg, err := r.store.Registration(ctx, tx, req.ElectionID, req.VoterID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotEligible
		}
		if err != nil {
			return err
		}

		// Always run the linkage check so every branch does the same work.
		verdict, err := r.verifier.Verify(ctx, tx, req.ElectionID, req.VoterID, req.Claimed)
		if err != nil {
			return err
		}
		validity := decide(reg.HasPriorBallot(), req.ClaimsPrior, verdict.Linked)

		b, err := r.newBallot(reg, models.OriginVoter, now)
		if err != nil {
			return err
		}
		b.CandidateID = req.CandidateID
		b.ClaimedPrior = req.Claimed

		next := reg
		next.CastCount++
		next.LastFlag = validity
		if err := r.commitBallot(ctx, tx, reg, next, b, validity); err != nil {
			return err
		}

		slog.Debug("ballot resolved",
			"election_id", req.ElectionID,
			"seq", b.Seq,
			"validity", validity,
			"linkage", verdict.Reason(),
		)

		receipt := Receipt{BallotID: b.ID, Artifact: b.Artifact, Image: b.Image}
		if validity == models.ValidityValid {
			out = Valid{Issued: receipt}
		} else {
			out = Invalid{Issued: receipt}
		}
		return nil
	})
	return out, err
}

// CastDecoy appends a server-generated ballot to a voter's record. Decoys
// are invalid, carry no candidate, and do not change the voter's state.
func (r *Resolver) CastDecoy(ctx context.Context, electionID, voterID string) error {
	unlock := r.locks.Lock(voterKey(electionID, voterID))
	defer unlock()

	ctx = context.WithoutCancel(ctx)

	return r.retry(ctx, electionID, func() error {
		return r.store.WithTx(ctx, func(tx *sql.Tx) error {
			now := r.now().UTC()

			if _, err := r.openElection(ctx, tx, electionID, now); err != nil {
				return err
			}

			reg, err := r.store.Registration(ctx, tx, electionID, voterID)
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotEligible
			}
			if err != nil {
				return err
			}

			b, err := r.newBallot(reg, models.OriginDecoy, now)
			if err != nil {
				return err
			}
			return r.commitBallot(ctx, tx, reg, reg, b, models.ValidityInvalid)
		})
	})
}

// retry runs fn until it succeeds, fails with something other than a lost
// race, or runs out of attempts. Errors that are not visible sentinels are
// reported as ErrUnavailable.
func (r *Resolver) retry(ctx context.Context, electionID string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, store.ErrConflict) {
			break
		}
		slog.Debug("ballot append lost a race, retrying", "election_id", electionID, "attempt", attempt)
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrElectionNotFound),
		errors.Is(err, ErrElectionNotOpen),
		errors.Is(err, ErrUnknownCandidate),
		errors.Is(err, ErrNotEligible):
		return err
	default:
		slog.Error("failed to record ballot", "election_id", electionID, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

func (r *Resolver) openElection(ctx context.Context, q store.Queryer, electionID string, now time.Time) (models.Election, error) {
	e, err := r.store.GetElection(ctx, q, electionID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Election{}, ErrElectionNotFound
	}
	if err != nil {
		return models.Election{}, err
	}
	if !e.AcceptsBallots(now) {
		return models.Election{}, ErrElectionNotOpen
	}

	// Keep the election open until this transaction commits.
	if err := r.store.HoldOpen(ctx, q, electionID); errors.Is(err, store.ErrNotOpen) {
		return models.Election{}, ErrElectionNotOpen
	} else if err != nil {
		return models.Election{}, err
	}
	return e, nil
}

// newBallot prepares the next ballot in a voter's record with a fresh
// artifact and image. cast_at never goes backwards within a record, so
// ordering by (cast_at, seq) and by seq agree.
func (r *Resolver) newBallot(reg models.Registration, origin string, now time.Time) (models.Ballot, error) {
	artifact, err := auth.GenerateArtifact()
	if err != nil {
		return models.Ballot{}, err
	}

	castAt := now
	if reg.LastCastAt != nil && castAt.Before(*reg.LastCastAt) {
		castAt = *reg.LastCastAt
	}

	return models.Ballot{
		ID:         uuid.NewString(),
		ElectionID: reg.ElectionID,
		VoterID:    reg.VoterID,
		Seq:        reg.BallotCount + 1,
		Origin:     origin,
		CastAt:     castAt,
		Artifact:   artifact,
		Image:      r.images.Pick(),
	}, nil
}

// commitBallot appends b, freezes its validity and advances the
// registration from prev. next only needs the fields the caller changed.
func (r *Resolver) commitBallot(ctx context.Context, tx *sql.Tx, prev, next models.Registration, b models.Ballot, validity string) error {
	if err := r.store.Append(ctx, tx, b); err != nil {
		return err
	}
	if err := r.store.Resolve(ctx, tx, b.ID, validity); err != nil {
		return err
	}

	next.BallotCount = b.Seq
	next.LastCastAt = &b.CastAt
	return r.store.AdvanceRegistration(ctx, tx, prev, next)
}

func hasCandidate(candidates []models.Candidate, id string) bool {
	for _, c := range candidates {
		if c.ID == id {
			return true
		}
	}
	return false
}
