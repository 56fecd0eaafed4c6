// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package decoy

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/danielhkuo/revote/casting"
	"github.com/danielhkuo/revote/models"
	"github.com/danielhkuo/revote/store"
	"github.com/dustin/go-humanize"
)

// MinEpoch is the shortest gap between two decoys for the same voter.
const MinEpoch = 5 * time.Second

// DefaultPerVoter is the number of decoys spread over an election's voting
// window for each voter when no fixed mean interval is configured.
const DefaultPerVoter = 19

// NextEpoch draws the gap before a voter's next decoy from a normal
// distribution centred on mean with a standard deviation of mean/3. Draws
// shorter than MinEpoch or of at least twice the mean are rejected. draw
// must return standard normal samples.
func NextEpoch(mean time.Duration, draw func() float64) time.Duration {
	if 2*mean <= MinEpoch {
		return MinEpoch
	}

	center := mean.Seconds()
	spread := center / 3
	for {
		secs := center + spread*draw()
		if secs >= MinEpoch.Seconds() && secs < 2*center {
			return time.Duration(secs * float64(time.Second))
		}
	}
}

// Caster periodically appends decoy ballots to every registered voter's
// record in elections that are accepting ballots.
//
// A positive mean fixes the interval for every election. Otherwise each
// election gets its own mean: the voting window divided by perVoter.
type Caster struct {
	store    *store.Store
	resolver *casting.Resolver
	mean     time.Duration
	perVoter int
	tick     time.Duration
	now      func() time.Time
	draw     func() float64
}

func NewCaster(s *store.Store, resolver *casting.Resolver, mean time.Duration, perVoter int, tick time.Duration) *Caster {
	return &Caster{
		store:    s,
		resolver: resolver,
		mean:     mean,
		perVoter: perVoter,
		tick:     tick,
		now:      time.Now,
		draw:     rand.NormFloat64,
	}
}

// Enabled reports whether the caster has a tick and a way to pick a mean.
func (c *Caster) Enabled() bool {
	return c.tick > 0 && (c.mean > 0 || c.perVoter > 0)
}

// MeanFor returns the mean decoy interval used in e.
func (c *Caster) MeanFor(e models.Election) time.Duration {
	if c.mean > 0 {
		return c.mean
	}
	if c.perVoter <= 0 {
		return 0
	}
	return e.EndsAt.Sub(e.StartsAt) / time.Duration(c.perVoter)
}

// Run sweeps every tick until ctx is done. It returns at once when the
// caster is disabled.
func (c *Caster) Run(ctx context.Context) {
	if !c.Enabled() {
		slog.Info("decoy caster disabled")
		return
	}

	if c.mean > 0 {
		slog.Info("decoy caster started", "mean_interval", c.mean.String())
	} else {
		slog.Info("decoy caster started", "per_voter", c.perVoter)
	}

	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		c.Sweep(ctx)

		select {
		case <-ctx.Done():
			slog.Info("decoy caster stopped")
			return
		case <-ticker.C:
		}
	}
}

// Sweep casts every decoy that is due and schedules the next one. Voters
// without a schedule are due at once, so every record holds a decoy from
// the first sweep after registration. It returns the number of decoys cast.
func (c *Caster) Sweep(ctx context.Context) int {
	elections, err := c.store.ListElectionsByStatus(ctx, models.StatusOpen)
	if err != nil {
		slog.Error("failed to list open elections", "error", err)
		return 0
	}

	cast := 0
	for _, e := range elections {
		if !e.AcceptsBallots(c.now().UTC()) {
			continue
		}

		regs, err := c.store.ListRegistrations(ctx, e.ID)
		if err != nil {
			slog.Error("failed to list registrations", "election_id", e.ID, "error", err)
			continue
		}

		mean := c.MeanFor(e)
		n := 0
		for _, reg := range regs {
			if ctx.Err() != nil {
				return cast + n
			}
			if c.visit(ctx, reg, mean) {
				n++
			}
		}
		if n > 0 {
			slog.Debug("decoys cast", "election_id", e.ID, "count", humanize.Comma(int64(n)))
		}
		cast += n
	}
	return cast
}

// visit handles one registration and reports whether a decoy was cast.
func (c *Caster) visit(ctx context.Context, reg models.Registration, mean time.Duration) bool {
	now := c.now().UTC()

	if reg.NextDecoyAt != nil && now.Before(*reg.NextDecoyAt) {
		return false
	}

	if err := c.resolver.CastDecoy(ctx, reg.ElectionID, reg.VoterID); err != nil {
		slog.Error("failed to cast decoy", "election_id", reg.ElectionID, "error", err)
		return false
	}

	next := now.Add(NextEpoch(mean, c.draw))
	if err := c.store.ScheduleDecoy(ctx, c.store.DB(), reg.ElectionID, reg.VoterID, next); err != nil {
		slog.Error("failed to schedule decoy", "election_id", reg.ElectionID, "error", err)
	}
	return true
}
