// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/danielhkuo/revote/models"
	"github.com/danielhkuo/revote/store"
	"github.com/danielhkuo/revote/tally"
	"github.com/dustin/go-humanize"
)

// Closer ends elections once their voting window plus a grace period has
// passed, and publishes their tally.
type Closer struct {
	store  *store.Store
	engine *tally.Engine
	grace  time.Duration
	tick   time.Duration
	now    func() time.Time
}

func NewCloser(s *store.Store, engine *tally.Engine, grace, tick time.Duration) *Closer {
	return &Closer{
		store:  s,
		engine: engine,
		grace:  grace,
		tick:   tick,
		now:    time.Now,
	}
}

// Run sweeps once immediately and then every tick until ctx is done. A
// non-positive tick disables it.
func (c *Closer) Run(ctx context.Context) {
	if c.tick <= 0 {
		slog.Warn("election closer disabled", "tick", c.tick.String())
		return
	}

	slog.Info("election closer started",
		"tick", c.tick.String(),
		"grace", c.grace.String(),
	)

	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		c.Sweep(ctx)

		select {
		case <-ctx.Done():
			slog.Info("election closer stopped")
			return
		case <-ticker.C:
		}
	}
}

// Sweep closes every election that is due and publishes the tally of any
// election left closed but untallied. It returns how many were published.
func (c *Closer) Sweep(ctx context.Context) int {
	now := c.now().UTC()

	due, err := c.store.DueForClose(ctx, now, c.grace)
	if err != nil {
		slog.Error("failed to list elections due for close", "error", err)
		return 0
	}
	stuck, err := c.store.ListElectionsByStatus(ctx, models.StatusClosed)
	if err != nil {
		slog.Error("failed to list closed elections", "error", err)
		return 0
	}

	published := 0
	for _, e := range append(due, stuck...) {
		if ctx.Err() != nil {
			break
		}

		result, err := c.engine.Close(ctx, e.ID)
		if err != nil {
			slog.Error("failed to close election", "election_id", e.ID, "error", err)
			continue
		}
		published++

		slog.Info("election tallied by closer",
			"election_id", e.ID,
			"ended", humanize.RelTime(e.EndsAt, now, "before", "after"),
			"counted", humanize.Comma(int64(result.IncludedBallots)),
		)
	}
	return published
}
