// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/danielhkuo/revote/models"
	"github.com/danielhkuo/revote/store"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

var (
	ErrElectionNotFound = errors.New("election not found")
	ErrNotClosed        = errors.New("election is still open")
	ErrNotTallied       = errors.New("tally has not been published")
	ErrAlreadyTallied   = errors.New("election has already been tallied")
)

// Engine computes, publishes and verifies election results.
type Engine struct {
	store *store.Store
	now   func() time.Time
}

func NewEngine(s *store.Store) *Engine {
	return &Engine{store: s, now: time.Now}
}

// Run computes the result of a closed or tallied election from the ballot
// record without storing anything. Running it twice over the same record
// gives the same counts and digest.
func (e *Engine) Run(ctx context.Context, electionID string) (models.TallyResult, error) {
	election, err := e.election(ctx, e.store.DB(), electionID)
	if err != nil {
		return models.TallyResult{}, err
	}
	if election.Status == models.StatusOpen {
		return models.TallyResult{}, ErrNotClosed
	}
	return e.compute(ctx, e.store.DB(), electionID)
}

// Publish tallies a closed election, stores the snapshot and marks the
// election tallied. Publishing a tallied election returns the stored
// snapshot.
func (e *Engine) Publish(ctx context.Context, electionID string) (models.TallyResult, error) {
	var result models.TallyResult
	err := e.store.WithTx(ctx, func(tx *sql.Tx) error {
		election, err := e.election(ctx, tx, electionID)
		if err != nil {
			return err
		}

		switch election.Status {
		case models.StatusOpen:
			return ErrNotClosed
		case models.StatusTallied:
			result, err = e.store.LatestSnapshot(ctx, tx, electionID)
			return err
		}

		result, err = e.compute(ctx, tx, electionID)
		if err != nil {
			return err
		}
		if err := e.store.SaveSnapshot(ctx, tx, uuid.NewString(), result); err != nil {
			return err
		}
		return e.store.SetStatus(ctx, tx, electionID, models.StatusClosed, models.StatusTallied, result.ComputedAt)
	})
	if err != nil {
		return models.TallyResult{}, err
	}

	slog.Info("tally published",
		"election_id", electionID,
		"counted", humanize.Comma(int64(result.IncludedBallots)),
		"registered", humanize.Comma(int64(result.RegisteredVoters)),
		"digest", result.Digest,
	)
	return result, nil
}

// Close ends voting in an open election and publishes its tally. A closed
// election that was never tallied is only published.
func (e *Engine) Close(ctx context.Context, electionID string) (models.TallyResult, error) {
	election, err := e.election(ctx, e.store.DB(), electionID)
	if err != nil {
		return models.TallyResult{}, err
	}

	switch election.Status {
	case models.StatusTallied:
		return models.TallyResult{}, ErrAlreadyTallied
	case models.StatusOpen:
		closedAt := e.now().UTC()
		err := e.store.SetStatus(ctx, e.store.DB(), electionID, models.StatusOpen, models.StatusClosed, closedAt)
		if err != nil && !errors.Is(err, store.ErrInvalidTransition) {
			return models.TallyResult{}, err
		}
		slog.Info("election closed",
			"election_id", electionID,
			"ended", humanize.Time(election.EndsAt),
		)
	}

	return e.Publish(ctx, electionID)
}

// Verify recomputes the tally of a tallied election and compares it with
// the published snapshot.
func (e *Engine) Verify(ctx context.Context, electionID string) (bool, error) {
	election, err := e.election(ctx, e.store.DB(), electionID)
	if err != nil {
		return false, err
	}
	if election.Status != models.StatusTallied {
		return false, ErrNotTallied
	}

	published, err := e.store.LatestSnapshot(ctx, e.store.DB(), electionID)
	if errors.Is(err, store.ErrNotFound) {
		return false, ErrNotTallied
	}
	if err != nil {
		return false, err
	}

	fresh, err := e.compute(ctx, e.store.DB(), electionID)
	if err != nil {
		return false, err
	}

	ok := sameResult(published, fresh)
	if !ok {
		slog.Warn("published tally does not match the ballot record",
			"election_id", electionID,
			"published_digest", published.Digest,
			"recomputed_digest", fresh.Digest,
		)
	}
	return ok, nil
}

func (e *Engine) election(ctx context.Context, q store.Queryer, electionID string) (models.Election, error) {
	election, err := e.store.GetElection(ctx, q, electionID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Election{}, ErrElectionNotFound
	}
	return election, err
}

func (e *Engine) compute(ctx context.Context, q store.Queryer, electionID string) (models.TallyResult, error) {
	candidates, err := e.store.Candidates(ctx, q, electionID)
	if err != nil {
		return models.TallyResult{}, err
	}
	resolved, err := e.store.ResolvedSet(ctx, q, electionID)
	if err != nil {
		return models.TallyResult{}, err
	}
	registered, err := e.store.CountRegistrations(ctx, q, electionID)
	if err != nil {
		return models.TallyResult{}, err
	}

	counts, included := Count(candidates, resolved)
	if included != len(resolved) {
		slog.Warn("resolved ballots reference unknown candidates",
			"election_id", electionID,
			"skipped", len(resolved)-included,
		)
	}

	abstentions := registered - included
	if abstentions < 0 {
		abstentions = 0
	}

	return models.TallyResult{
		ElectionID:       electionID,
		Counts:           counts,
		IncludedBallots:  included,
		RegisteredVoters: registered,
		Abstentions:      abstentions,
		Digest:           Digest(electionID, resolved, counts),
		ComputedAt:       e.now().UTC(),
	}, nil
}

// Count adds up resolved ballots per candidate. Every candidate appears in
// ballot order, including those with zero votes. It also returns how many
// ballots were counted.
func Count(candidates []models.Candidate, resolved []models.Ballot) ([]models.CandidateCount, int) {
	index := make(map[string]int, len(candidates))
	counts := make([]models.CandidateCount, len(candidates))
	for i, c := range candidates {
		index[c.ID] = i
		counts[i] = models.CandidateCount{CandidateID: c.ID, Name: c.Name}
	}

	included := 0
	for _, b := range resolved {
		i, ok := index[b.CandidateID]
		if !ok {
			continue
		}
		counts[i].Votes++
		included++
	}
	return counts, included
}

// Digest is a SHA3-256 commitment to the election, the resolved ballot set
// and the counts. resolved must be sorted by ballot ID and counts in ballot
// order, as ResolvedSet and Count return them.
func Digest(electionID string, resolved []models.Ballot, counts []models.CandidateCount) string {
	h := sha3.New256()
	fmt.Fprintf(h, "election:%s\n", electionID)
	for _, b := range resolved {
		fmt.Fprintf(h, "ballot:%s:%s\n", b.ID, b.CandidateID)
	}
	for _, c := range counts {
		fmt.Fprintf(h, "count:%s:%s\n", c.CandidateID, strconv.Itoa(c.Votes))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func sameResult(a, b models.TallyResult) bool {
	if a.Digest != b.Digest || a.IncludedBallots != b.IncludedBallots || len(a.Counts) != len(b.Counts) {
		return false
	}
	for i := range a.Counts {
		if a.Counts[i].CandidateID != b.Counts[i].CandidateID || a.Counts[i].Votes != b.Counts[i].Votes {
			return false
		}
	}
	return true
}
