// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package linkage

import (
	"context"
	"fmt"

	"github.com/danielhkuo/revote/models"
	"github.com/danielhkuo/revote/store"
)

// Verdict is the outcome of a linkage check. Callers only branch on Linked;
// the reason is kept for debug logging.
type Verdict struct {
	Linked bool
	reason string
}

// Reason describes why a claim did or did not link. Never send it to a
// client.
func (v Verdict) Reason() string {
	return v.reason
}

// Match reports whether claimed names exactly the set of prior artifacts.
// Order and repeated entries in claimed are ignored.
func Match(prior, claimed []string) Verdict {
	want := make(map[string]struct{}, len(prior))
	for _, a := range prior {
		want[a] = struct{}{}
	}
	got := make(map[string]struct{}, len(claimed))
	for _, a := range claimed {
		got[a] = struct{}{}
	}

	// Walk both sets in full so the work done depends only on their sizes.
	unknown, missing := 0, 0
	for a := range got {
		if _, ok := want[a]; !ok {
			unknown++
		}
	}
	for a := range want {
		if _, ok := got[a]; !ok {
			missing++
		}
	}

	switch {
	case len(want) == 0 && len(got) > 0:
		return Verdict{reason: "claim without history"}
	case unknown > 0:
		return Verdict{reason: fmt.Sprintf("%d unknown artifacts", unknown)}
	case missing > 0:
		return Verdict{reason: fmt.Sprintf("%d missing artifacts", missing)}
	case len(want) == 0:
		return Verdict{Linked: true, reason: "empty claim, empty history"}
	default:
		return Verdict{Linked: true, reason: fmt.Sprintf("%d artifacts matched", len(want))}
	}
}

// Verifier checks claims against a voter's ballot record.
type Verifier struct {
	store *store.Store
}

func NewVerifier(s *store.Store) *Verifier {
	return &Verifier{store: s}
}

// Verify compares claimed with the artifacts of every ballot the voter cast
// so far in the election. Decoy ballots are not part of the history a voter
// is expected to know.
func (v *Verifier) Verify(ctx context.Context, q store.Queryer, electionID, voterID string, claimed []string) (Verdict, error) {
	history, err := v.store.History(ctx, q, electionID, voterID)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to load ballot history: %w", err)
	}

	prior := make([]string, 0, len(history))
	for _, b := range history {
		if b.Origin == models.OriginVoter {
			prior = append(prior, b.Artifact)
		}
	}

	return Match(prior, claimed), nil
}
