// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package casting records ballots and decides whether each one counts.

# Validity

Every voter-cast ballot is appended to the record and given a validity in the
same transaction:

	no prior ballot,  claims none      -> valid
	no prior ballot,  claims prior     -> invalid
	has prior ballot, claims none      -> invalid
	has prior ballot, claims prior     -> valid if the claim links, else invalid

Only voter-cast ballots count as prior ballots. The linkage check runs on
every cast, also when the decision does not use it.

The result is an Outcome, either Valid or Invalid. Both carry the same
Receipt (a fresh reminder artifact and image), and the HTTP layer only ever
reads the receipt:

	out, err := resolver.Cast(ctx, casting.CastRequest{
		ElectionID:  "e1",
		VoterID:     "v1",
		CandidateID: "c2",
		ClaimsPrior: true,
		Claimed:     []string{"ABCD-EFGH-IJKL-MNOP"},
	})
	receipt := out.Receipt()

# Errors

Requests that never reach the decision fail visibly: ErrMalformedBallot,
ErrElectionNotFound, ErrElectionNotOpen, ErrUnknownCandidate and
ErrNotEligible. A persistence failure returns ErrUnavailable and nothing is
recorded.

# Concurrency

Casts for the same voter in the same election are serialized by an
in-process lock, and the append is guarded by an optimistic precondition on
the registration's ballot count. A lost race retries the whole transaction.
Different voters proceed in parallel.

# Decoys

CastDecoy appends a server-generated invalid ballot without a candidate.
Decoys fill a voter's record so its length reveals nothing, and they are
never part of the history a voter must claim.
*/
package casting
