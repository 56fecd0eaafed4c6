// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package linkage decides whether a re-vote is linked to the voter's earlier
ballots.

A voter re-voting must present the reminder artifacts of every ballot they
cast before. The claim links when it names exactly that set:

	v := linkage.Match([]string{"A", "B"}, []string{"B", "A", "A"})
	v.Linked // true

Anything else (an unknown artifact, a missing one, or a claim made with no
history) does not link. Verdict.Reason explains which, for debug logs only.

Verifier.Verify loads the prior set from the ballot record, keeping only
voter-cast ballots.
*/
package linkage
