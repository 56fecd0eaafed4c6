// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danielhkuo/revote/models"
)

// SaveSnapshot records a published tally result.
func (s *Store) SaveSnapshot(ctx context.Context, q Queryer, id string, result models.TallyResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode tally snapshot: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO tally_snapshot (id, election_id, computed_at, digest, payload)
		VALUES ($1, $2, $3, $4, $5)
	`, id, result.ElectionID, result.ComputedAt, result.Digest, string(payload))
	if err != nil {
		return fmt.Errorf("failed to insert tally snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recently published tally of an election.
func (s *Store) LatestSnapshot(ctx context.Context, q Queryer, electionID string) (models.TallyResult, error) {
	var payload string
	err := q.QueryRowContext(ctx, `
		SELECT payload FROM tally_snapshot
		WHERE election_id = $1
		ORDER BY computed_at DESC, id DESC
		LIMIT 1
	`, electionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TallyResult{}, ErrNotFound
	}
	if err != nil {
		return models.TallyResult{}, fmt.Errorf("failed to query tally snapshot: %w", err)
	}

	var result models.TallyResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return models.TallyResult{}, fmt.Errorf("failed to parse tally snapshot: %w", err)
	}
	return result, nil
}
