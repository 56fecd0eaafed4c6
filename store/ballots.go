// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/danielhkuo/revote/db"
	"github.com/danielhkuo/revote/models"
)

const ballotColumns = `id, election_id, voter_id, seq, origin, candidate_id, cast_at,
	artifact, image, claimed_prior, validity`

func scanBallot(row interface{ Scan(...any) error }) (models.Ballot, error) {
	var b models.Ballot
	var candidate sql.NullString
	var claimed string
	err := row.Scan(&b.ID, &b.ElectionID, &b.VoterID, &b.Seq, &b.Origin, &candidate, &b.CastAt,
		&b.Artifact, &b.Image, &claimed, &b.Validity)
	if err != nil {
		return models.Ballot{}, err
	}
	b.CandidateID = candidate.String
	if err := json.Unmarshal([]byte(claimed), &b.ClaimedPrior); err != nil {
		return models.Ballot{}, fmt.Errorf("corrupt claimed_prior on ballot %s: %w", b.ID, err)
	}
	return b, nil
}

func (s *Store) queryBallots(ctx context.Context, q Queryer, query string, args ...any) ([]models.Ballot, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ballots: %w", err)
	}
	defer rows.Close()

	ballots := []models.Ballot{}
	for rows.Next() {
		b, err := scanBallot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ballot: %w", err)
		}
		ballots = append(ballots, b)
	}
	return ballots, rows.Err()
}

// Append adds a ballot to the voter's record with validity pending. The
// caller assigns b.Seq; a ballot already holding that sequence number or
// the same artifact makes Append fail with ErrConflict.
func (s *Store) Append(ctx context.Context, q Queryer, b models.Ballot) error {
	claimed := b.ClaimedPrior
	if claimed == nil {
		claimed = []string{}
	}
	claimedJSON, err := json.Marshal(claimed)
	if err != nil {
		return fmt.Errorf("failed to encode claimed artifacts: %w", err)
	}

	var candidate sql.NullString
	if b.CandidateID != "" {
		candidate = sql.NullString{String: b.CandidateID, Valid: true}
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO ballot (id, election_id, voter_id, seq, origin, candidate_id, cast_at,
			artifact, image, claimed_prior, validity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, b.ID, b.ElectionID, b.VoterID, b.Seq, b.Origin, candidate, b.CastAt,
		b.Artifact, b.Image, string(claimedJSON), models.ValidityPending)
	if db.IsUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to insert ballot: %w", err)
	}
	return nil
}

// Resolve freezes a pending ballot as valid or invalid. It succeeds once
// per ballot; any later call returns ErrFrozen.
func (s *Store) Resolve(ctx context.Context, q Queryer, ballotID, validity string) error {
	if validity != models.ValidityValid && validity != models.ValidityInvalid {
		return fmt.Errorf("cannot resolve ballot to %q", validity)
	}

	res, err := q.ExecContext(ctx, `
		UPDATE ballot SET validity = $1 WHERE id = $2 AND validity = $3
	`, validity, ballotID, models.ValidityPending)
	if err != nil {
		return fmt.Errorf("failed to resolve ballot: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to resolve ballot: %w", err)
	}
	if n == 0 {
		return ErrFrozen
	}
	return nil
}

// History returns a voter's full record in cast order.
func (s *Store) History(ctx context.Context, q Queryer, electionID, voterID string) ([]models.Ballot, error) {
	return s.queryBallots(ctx, q, `
		SELECT `+ballotColumns+` FROM ballot
		WHERE election_id = $1 AND voter_id = $2
		ORDER BY cast_at, seq
	`, electionID, voterID)
}

// LatestValid returns the most recent valid ballot of a voter.
func (s *Store) LatestValid(ctx context.Context, q Queryer, electionID, voterID string) (models.Ballot, error) {
	b, err := scanBallot(q.QueryRowContext(ctx, `
		SELECT `+ballotColumns+` FROM ballot
		WHERE election_id = $1 AND voter_id = $2 AND validity = $3
		ORDER BY seq DESC
		LIMIT 1
	`, electionID, voterID, models.ValidityValid))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Ballot{}, ErrNotFound
	}
	if err != nil {
		return models.Ballot{}, fmt.Errorf("failed to query latest valid ballot: %w", err)
	}
	return b, nil
}

// ResolvedSet returns LatestValid for every voter with at least one valid
// ballot, sorted by ballot ID.
func (s *Store) ResolvedSet(ctx context.Context, q Queryer, electionID string) ([]models.Ballot, error) {
	ballots, err := s.queryBallots(ctx, q, `
		SELECT `+ballotColumns+` FROM ballot b
		WHERE b.election_id = $1 AND b.validity = $2
		  AND b.seq = (
			SELECT MAX(v.seq) FROM ballot v
			WHERE v.election_id = b.election_id AND v.voter_id = b.voter_id AND v.validity = $2
		  )
	`, electionID, models.ValidityValid)
	if err != nil {
		return nil, err
	}

	sort.Slice(ballots, func(i, j int) bool { return ballots[i].ID < ballots[j].ID })
	return ballots, nil
}

// BallotByArtifact finds the ballot a reminder artifact is bound to.
func (s *Store) BallotByArtifact(ctx context.Context, q Queryer, electionID, artifact string) (models.Ballot, error) {
	b, err := scanBallot(q.QueryRowContext(ctx, `
		SELECT `+ballotColumns+` FROM ballot
		WHERE election_id = $1 AND artifact = $2
	`, electionID, artifact))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Ballot{}, ErrNotFound
	}
	if err != nil {
		return models.Ballot{}, fmt.Errorf("failed to query ballot: %w", err)
	}
	return b, nil
}
