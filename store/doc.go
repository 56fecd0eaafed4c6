// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store is the bulletin board: elections and their candidates, voter
registrations, the append-only ballot record, and published tally snapshots.

# Queryer

Every method takes a Queryer so it can run against the pool or inside a
transaction opened with WithTx:

	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.Append(ctx, tx, ballot); err != nil {
			return err
		}
		return s.Resolve(ctx, tx, ballot.ID, models.ValidityValid)
	})

# Ballot Record

Ballots are never updated or deleted. The only mutation is Resolve, which
moves a ballot from pending to valid or invalid exactly once. Ordering per
voter is (cast_at, seq); seq comes from the registration's ballot_count and
is protected by a UNIQUE(election_id, voter_id, seq) constraint.

AdvanceRegistration applies an optimistic precondition on ballot_count. A
lost race surfaces as ErrConflict and callers retry the whole transaction.

# Errors

	ErrNotFound          - row does not exist
	ErrDuplicate         - election, candidate or registration already exists
	ErrConflict          - sequence or artifact already taken
	ErrFrozen            - ballot validity already resolved
	ErrInvalidTransition - status change other than open->closed->tallied
*/
package store
