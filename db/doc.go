// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles connections and schema creation.

# Connecting

Open picks the driver from the configured database type:

	conn, err := db.Open(db.TypePostgres, "postgres://...") // github.com/lib/pq
	conn, err := db.Open(db.TypeSQLite, "file:revote.db")   // modernc.org/sqlite

SQLite URLs get foreign keys, a busy timeout and WAL unless they carry their
own _pragma parameters, and the pool is capped at one connection.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
Only syntax shared by PostgreSQL and SQLite is used, and timestamps are
always supplied by the application.

# Tables

  - election: metadata and lifecycle state (open, closed, tallied)
  - candidate: candidates per election, ordered by position
  - voter: registered identities
  - registration: per-election credential state of a voter
  - ballot: append-only cast ballot record
  - tally_snapshot: published tally results

# Relationships

	election 1──* candidate
	election 1──* registration *──1 voter
	election 1──* ballot
	election 1──* tally_snapshot

# Constraints

  - ballot.(election_id, voter_id, seq) unique: the sequence precondition
  - ballot.(election_id, artifact) unique: reminder artifacts never repeat

IsUniqueViolation recognizes violations from both drivers.
*/
package db
