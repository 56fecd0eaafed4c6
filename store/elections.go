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

const electionColumns = `id, name, status, starts_at, ends_at, closed_at, created_at`

func scanElection(row interface{ Scan(...any) error }) (models.Election, error) {
	var e models.Election
	var closedAt sql.NullTime
	err := row.Scan(&e.ID, &e.Name, &e.Status, &e.StartsAt, &e.EndsAt, &closedAt, &e.CreatedAt)
	if err != nil {
		return models.Election{}, err
	}
	if closedAt.Valid {
		t := closedAt.Time
		e.ClosedAt = &t
	}
	return e, nil
}

// CreateElection stores an open election together with its candidate list.
// The list cannot change afterwards.
func (s *Store) CreateElection(ctx context.Context, q Queryer, e models.Election, candidates []models.Candidate) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO election (id, name, status, starts_at, ends_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.ID, e.Name, e.Status, e.StartsAt, e.EndsAt, e.CreatedAt)
	if db.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert election: %w", err)
	}

	for i, c := range candidates {
		_, err := q.ExecContext(ctx, `
			INSERT INTO candidate (election_id, id, name, position)
			VALUES ($1, $2, $3, $4)
		`, e.ID, c.ID, c.Name, i)
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("candidate %s: %w", c.ID, ErrDuplicate)
		}
		if err != nil {
			return fmt.Errorf("failed to insert candidate: %w", err)
		}
	}

	return nil
}

func (s *Store) GetElection(ctx context.Context, q Queryer, id string) (models.Election, error) {
	e, err := scanElection(q.QueryRowContext(ctx, `
		SELECT `+electionColumns+` FROM election WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Election{}, ErrNotFound
	}
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to query election: %w", err)
	}
	return e, nil
}

func (s *Store) queryElections(ctx context.Context, query string, args ...any) ([]models.Election, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query elections: %w", err)
	}
	defer rows.Close()

	elections := []models.Election{}
	for rows.Next() {
		e, err := scanElection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan election: %w", err)
		}
		elections = append(elections, e)
	}
	return elections, rows.Err()
}

// ListElections returns all elections, newest first.
func (s *Store) ListElections(ctx context.Context) ([]models.Election, error) {
	return s.queryElections(ctx, `
		SELECT `+electionColumns+` FROM election ORDER BY created_at DESC, id
	`)
}

// ListElectionsForVoter returns the elections a voter is registered in.
func (s *Store) ListElectionsForVoter(ctx context.Context, voterID string) ([]models.Election, error) {
	return s.queryElections(ctx, `
		SELECT e.id, e.name, e.status, e.starts_at, e.ends_at, e.closed_at, e.created_at
		FROM election e
		JOIN registration r ON r.election_id = e.id
		WHERE r.voter_id = $1
		ORDER BY e.created_at DESC, e.id
	`, voterID)
}

// ListElectionsByStatus returns elections in the given status, oldest first.
func (s *Store) ListElectionsByStatus(ctx context.Context, status string) ([]models.Election, error) {
	return s.queryElections(ctx, `
		SELECT `+electionColumns+` FROM election WHERE status = $1 ORDER BY created_at, id
	`, status)
}

// DueForClose returns open elections whose voting window ended more than
// grace before now.
func (s *Store) DueForClose(ctx context.Context, now time.Time, grace time.Duration) ([]models.Election, error) {
	open, err := s.ListElectionsByStatus(ctx, models.StatusOpen)
	if err != nil {
		return nil, err
	}

	due := []models.Election{}
	for _, e := range open {
		if now.After(e.EndsAt.Add(grace)) {
			due = append(due, e)
		}
	}
	return due, nil
}

// DefaultElection is the newest election accepting ballots at now, else
// the newest open one, else the newest overall.
func (s *Store) DefaultElection(ctx context.Context, now time.Time) (models.Election, error) {
	elections, err := s.ListElections(ctx)
	if err != nil {
		return models.Election{}, err
	}
	if len(elections) == 0 {
		return models.Election{}, ErrNotFound
	}
	for _, e := range elections {
		if e.AcceptsBallots(now) {
			return e, nil
		}
	}
	for _, e := range elections {
		if e.Status == models.StatusOpen {
			return e, nil
		}
	}
	return elections[0], nil
}

// Candidates returns the candidate list in ballot order.
func (s *Store) Candidates(ctx context.Context, q Queryer, electionID string) ([]models.Candidate, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, position FROM candidate
		WHERE election_id = $1
		ORDER BY position
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.Name, &c.Position); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// HoldOpen locks an open election's row until q's transaction ends, so a
// concurrent SetStatus waits for it and a ballot appended under the lock
// commits before the election closes. It returns ErrNotOpen when the
// election is no longer open.
func (s *Store) HoldOpen(ctx context.Context, q Queryer, id string) error {
	res, err := q.ExecContext(ctx, `
		UPDATE election SET status = status WHERE id = $1 AND status = $2
	`, id, models.StatusOpen)
	if err != nil {
		return fmt.Errorf("failed to lock election: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to lock election: %w", err)
	}
	if n == 0 {
		return ErrNotOpen
	}
	return nil
}

// SetStatus moves an election from one status to the next. Only
// open -> closed and closed -> tallied are allowed.
func (s *Store) SetStatus(ctx context.Context, q Queryer, id, from, to string, at time.Time) error {
	switch {
	case from == models.StatusOpen && to == models.StatusClosed:
	case from == models.StatusClosed && to == models.StatusTallied:
	default:
		return fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
	}

	var res sql.Result
	var err error
	if to == models.StatusClosed {
		res, err = q.ExecContext(ctx, `
			UPDATE election SET status = $1, closed_at = $2 WHERE id = $3 AND status = $4
		`, to, at, id, from)
	} else {
		res, err = q.ExecContext(ctx, `
			UPDATE election SET status = $1 WHERE id = $2 AND status = $3
		`, to, id, from)
	}
	if err != nil {
		return fmt.Errorf("failed to update election status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update election status: %w", err)
	}
	if n == 0 {
		if _, err := s.GetElection(ctx, q, id); err != nil {
			return err
		}
		return fmt.Errorf("election is not %s: %w", from, ErrInvalidTransition)
	}
	return nil
}
