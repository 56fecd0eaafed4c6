// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package decoy

import (
	"context"
	"testing"
	"time"

	"github.com/danielhkuo/revote/casting"
	"github.com/danielhkuo/revote/models"
	"github.com/danielhkuo/revote/store"
	"github.com/danielhkuo/revote/testutil"
)

func sequence(values ...float64) func() float64 {
	i := 0
	return func() float64 {
		v := values[i%len(values)]
		i++
		return v
	}
}

func TestNextEpoch(t *testing.T) {
	tests := []struct {
		name  string
		mean  time.Duration
		draws []float64
		want  time.Duration
	}{
		{"centre", time.Minute, []float64{0}, time.Minute},
		{"one sigma", time.Minute, []float64{1}, 80 * time.Second},
		{"rejects too long", time.Minute, []float64{3, -1}, 40 * time.Second},
		{"rejects too short", 9 * time.Second, []float64{-3, 0}, 9 * time.Second},
		{"tiny mean", 2 * time.Second, []float64{0}, MinEpoch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextEpoch(tt.mean, sequence(tt.draws...))
			if got.Round(time.Millisecond) != tt.want {
				t.Errorf("NextEpoch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextEpoch_Bounds(t *testing.T) {
	mean := 30 * time.Second
	c := NewCaster(nil, nil, mean, 0, time.Second)
	for i := 0; i < 1000; i++ {
		got := NextEpoch(mean, c.draw)
		if got < MinEpoch || got >= 2*mean {
			t.Fatalf("NextEpoch() = %v, outside [%v, %v)", got, MinEpoch, 2*mean)
		}
	}
}

func TestSweep(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	s := store.New(conn)
	ctx := context.Background()

	electionID, _ := testutil.CreateTestElection(t, conn, models.StatusOpen, "Alice")
	closedID, _ := testutil.CreateTestElection(t, conn, models.StatusClosed, "Alice")
	testutil.RegisterTestVoter(t, conn, electionID, "v1")
	testutil.RegisterTestVoter(t, conn, electionID, "v2")
	testutil.RegisterTestVoter(t, conn, closedID, "v1")

	c := NewCaster(s, casting.NewResolver(s, nil), time.Minute, 0, time.Second)
	c.draw = sequence(0)
	start := time.Now()
	c.now = func() time.Time { return start }

	// Voters without a schedule get a decoy at once.
	if n := c.Sweep(ctx); n != 2 {
		t.Errorf("first Sweep() = %d, want 2", n)
	}
	reg, err := s.Registration(ctx, conn, electionID, "v1")
	if err != nil {
		t.Fatal(err)
	}
	if reg.NextDecoyAt == nil {
		t.Fatal("first Sweep() did not schedule a decoy")
	}

	// Not due yet.
	c.now = func() time.Time { return start.Add(30 * time.Second) }
	if n := c.Sweep(ctx); n != 0 {
		t.Errorf("early Sweep() = %d, want 0", n)
	}

	c.now = func() time.Time { return start.Add(61 * time.Second) }
	if n := c.Sweep(ctx); n != 2 {
		t.Errorf("due Sweep() = %d, want 2", n)
	}

	history, err := s.History(ctx, conn, electionID, "v1")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("history has %d ballots, want 2 decoys", len(history))
	}
	for _, b := range history {
		if b.Origin != models.OriginDecoy || b.Validity != models.ValidityInvalid || b.CandidateID != "" {
			t.Errorf("ballot %+v, want an invalid decoy", b)
		}
	}

	reg, _ = s.Registration(ctx, conn, electionID, "v1")
	if reg.HasPriorBallot() {
		t.Error("decoy changed the voter's state")
	}

	closedHistory, _ := s.History(ctx, conn, closedID, "v1")
	if len(closedHistory) != 0 {
		t.Error("decoy cast into a closed election")
	}
}

func TestMeanFor(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	e := models.Election{StartsAt: start, EndsAt: start.Add(19 * time.Hour)}

	tests := []struct {
		name     string
		mean     time.Duration
		perVoter int
		want     time.Duration
	}{
		{"derived from window", 0, 19, time.Hour},
		{"default count", 0, DefaultPerVoter, time.Hour},
		{"fixed mean wins", 5 * time.Minute, 19, 5 * time.Minute},
		{"nothing configured", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCaster(nil, nil, tt.mean, tt.perVoter, time.Second)
			if got := c.MeanFor(e); got != tt.want {
				t.Errorf("MeanFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnabled_ByDefaultCount(t *testing.T) {
	if !NewCaster(nil, nil, 0, DefaultPerVoter, time.Second).Enabled() {
		t.Error("a per-voter count alone should enable the caster")
	}
}

func TestRun_Disabled(t *testing.T) {
	c := NewCaster(nil, nil, 0, 0, time.Second)
	if c.Enabled() {
		t.Fatal("zero mean and count should disable the caster")
	}

	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() of a disabled caster did not return")
	}
}
