// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/revote/db"
	"github.com/danielhkuo/revote/models"
)

const registrationColumns = `election_id, voter_id, ballot_count, cast_count, last_flag,
	last_cast_at, next_decoy_at, registered_at`

func scanRegistration(row interface{ Scan(...any) error }) (models.Registration, error) {
	var r models.Registration
	var lastCast, nextDecoy sql.NullTime
	err := row.Scan(&r.ElectionID, &r.VoterID, &r.BallotCount, &r.CastCount, &r.LastFlag,
		&lastCast, &nextDecoy, &r.RegisteredAt)
	if err != nil {
		return models.Registration{}, err
	}
	if lastCast.Valid {
		t := lastCast.Time
		r.LastCastAt = &t
	}
	if nextDecoy.Valid {
		t := nextDecoy.Time
		r.NextDecoyAt = &t
	}
	return r, nil
}

// RegisterVoter creates the voter identity if needed and makes it eligible
// in the election. Registering twice for the same election is ErrDuplicate.
func (s *Store) RegisterVoter(ctx context.Context, q Queryer, electionID string, v models.Voter, at time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO voter (id, name, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, v.ID, v.Name, at)
	if err != nil {
		return fmt.Errorf("failed to insert voter: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO registration (election_id, voter_id, ballot_count, cast_count, last_flag, registered_at)
		VALUES ($1, $2, 0, 0, $3, $4)
	`, electionID, v.ID, models.FlagNone, at)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("voter %s: %w", v.ID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert registration: %w", err)
	}
	return nil
}

// Registration returns the credential state of a voter in an election.
func (s *Store) Registration(ctx context.Context, q Queryer, electionID, voterID string) (models.Registration, error) {
	r, err := scanRegistration(q.QueryRowContext(ctx, `
		SELECT `+registrationColumns+` FROM registration
		WHERE election_id = $1 AND voter_id = $2
	`, electionID, voterID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Registration{}, ErrNotFound
	}
	if err != nil {
		return models.Registration{}, fmt.Errorf("failed to query registration: %w", err)
	}
	return r, nil
}

// ListRegistrations returns every registration of an election.
func (s *Store) ListRegistrations(ctx context.Context, electionID string) ([]models.Registration, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+registrationColumns+` FROM registration
		WHERE election_id = $1
		ORDER BY voter_id
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations: %w", err)
	}
	defer rows.Close()

	regs := []models.Registration{}
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, r)
	}
	return regs, rows.Err()
}

// CountRegistrations returns the number of voters eligible in an election.
func (s *Store) CountRegistrations(ctx context.Context, q Queryer, electionID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM registration WHERE election_id = $1
	`, electionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return n, nil
}

// AdvanceRegistration writes the state that follows prev after one more
// ballot was appended. The update only applies if the stored ballot count
// still equals prev.BallotCount; otherwise another append won and
// ErrConflict is returned.
func (s *Store) AdvanceRegistration(ctx context.Context, q Queryer, prev, next models.Registration) error {
	res, err := q.ExecContext(ctx, `
		UPDATE registration
		SET ballot_count = $1, cast_count = $2, last_flag = $3, last_cast_at = $4
		WHERE election_id = $5 AND voter_id = $6 AND ballot_count = $7
	`, next.BallotCount, next.CastCount, next.LastFlag, next.LastCastAt,
		prev.ElectionID, prev.VoterID, prev.BallotCount)
	if err != nil {
		return fmt.Errorf("failed to update registration: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update registration: %w", err)
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// ScheduleDecoy sets when the next decoy ballot is due for a voter.
func (s *Store) ScheduleDecoy(ctx context.Context, q Queryer, electionID, voterID string, at time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE registration SET next_decoy_at = $1
		WHERE election_id = $2 AND voter_id = $3
	`, at, electionID, voterID)
	if err != nil {
		return fmt.Errorf("failed to schedule decoy: %w", err)
	}
	return nil
}
