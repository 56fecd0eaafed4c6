// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally counts the ballot record of a closed election.

For each voter only the latest valid ballot counts. Voters with no valid
ballot abstain. Every candidate is listed in ballot order, including
those with zero votes.

# Digest

The result carries a hex SHA3-256 digest over

	election:<election id>
	ballot:<ballot id>:<candidate id>   (one line per counted ballot, by ballot id)
	count:<candidate id>:<votes>        (one line per candidate, in ballot order)

Anyone holding the resolved set can recompute it.

# Lifecycle

	open --Close--> closed --Publish--> tallied

Close stops voting and publishes in one call. Publish stores a snapshot and
is idempotent: a tallied election returns its stored snapshot. Verify
recomputes the tally and compares it with that snapshot.
*/
package tally
