// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package decoy casts server-generated ballots into voters' records.

A coercer who watches a voter's cast ballot record should not be able to
tell how many ballots the voter cast. The Caster appends decoy ballots to
every registered voter at random intervals while an election accepts
ballots. Decoys are always invalid, carry no candidate, and are not part of
the history a voter claims when re-voting.

A voter's first decoy is cast on the first sweep after registration. Later
intervals are drawn by NextEpoch from a normal distribution around the
election's mean, keeping only draws in [MinEpoch, 2*mean). The mean is the
voting window divided by the per-voter decoy count, unless a fixed mean
interval is configured.

	caster := decoy.NewCaster(s, resolver, cfg.DecoyMeanInterval, cfg.DecoysPerVoter, cfg.LifecycleTick)
	go caster.Run(ctx)

The caster is disabled only when both the mean and the count are zero, or
the tick is.
*/
package decoy
