// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The statements are executed one by one and only use syntax shared by
// PostgreSQL and SQLite.
func CreateSchema(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

var schema = []string{
	// Elections
	`CREATE TABLE IF NOT EXISTS election (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'closed', 'tallied')),
		starts_at TIMESTAMP NOT NULL,
		ends_at TIMESTAMP NOT NULL,
		closed_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_election_status ON election(status)`,

	// Candidates, fixed when the election is created
	`CREATE TABLE IF NOT EXISTS candidate (
		election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (election_id, id)
	)`,

	// Voters
	`CREATE TABLE IF NOT EXISTS voter (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,

	// Per-election credential state
	`CREATE TABLE IF NOT EXISTS registration (
		election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
		voter_id TEXT NOT NULL REFERENCES voter(id) ON DELETE CASCADE,
		ballot_count INTEGER NOT NULL DEFAULT 0,
		cast_count INTEGER NOT NULL DEFAULT 0,
		last_flag TEXT NOT NULL DEFAULT 'none' CHECK (last_flag IN ('none', 'valid', 'invalid')),
		last_cast_at TIMESTAMP,
		next_decoy_at TIMESTAMP,
		registered_at TIMESTAMP NOT NULL,
		PRIMARY KEY (election_id, voter_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_registration_voter ON registration(voter_id)`,

	// Ballots (append-only; only validity moves, pending -> final, once)
	`CREATE TABLE IF NOT EXISTS ballot (
		id TEXT PRIMARY KEY,
		election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
		voter_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		origin TEXT NOT NULL CHECK (origin IN ('voter', 'decoy')),
		candidate_id TEXT,
		cast_at TIMESTAMP NOT NULL,
		artifact TEXT NOT NULL,
		image TEXT NOT NULL,
		claimed_prior TEXT NOT NULL,
		validity TEXT NOT NULL CHECK (validity IN ('pending', 'valid', 'invalid')),
		UNIQUE (election_id, voter_id, seq),
		UNIQUE (election_id, artifact)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ballot_voter ON ballot(election_id, voter_id)`,

	// Tally snapshots
	`CREATE TABLE IF NOT EXISTS tally_snapshot (
		id TEXT PRIMARY KEY,
		election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
		computed_at TIMESTAMP NOT NULL,
		digest TEXT NOT NULL,
		payload TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tally_snapshot_election ON tally_snapshot(election_id)`,
}
