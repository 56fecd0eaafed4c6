// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"testing"

	"github.com/danielhkuo/revote/models"
	"github.com/danielhkuo/revote/testutil"
)

func TestGetResult(t *testing.T) {
	env := newTestEnv(t)

	openID, _ := testutil.CreateTestElection(t, env.db, models.StatusOpen, "Alice")
	closedID, _ := testutil.CreateTestElection(t, env.db, models.StatusClosed, "Alice")

	talliedID, cands := testutil.CreateTestElection(t, env.db, models.StatusOpen, "Alice", "Bob")
	for _, vid := range []string{"v1", "v2", "v3"} {
		testutil.RegisterTestVoter(t, env.db, talliedID, vid)
	}
	testutil.InsertTestBallot(t, env.db, talliedID, "v1", cands[0], models.ValidityValid)
	testutil.InsertTestBallot(t, env.db, talliedID, "v2", cands[1], models.ValidityValid)
	testutil.InsertTestBallot(t, env.db, talliedID, "v2", cands[0], models.ValidityInvalid)
	if _, err := env.svc.Engine.Close(t.Context(), talliedID); err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		name     string
		query    string
		wantCode int
	}{
		{"open election is sealed", "?election_id=" + openID, http.StatusForbidden},
		{"closed but not tallied", "?election_id=" + closedID, http.StatusConflict},
		{"unknown election", "?election_id=missing", http.StatusNotFound},
		{"tallied election", "?election_id=" + talliedID, http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.get(env.results.GetResult, "/election-result"+tc.query, nil)
			testutil.AssertStatus(t, w, tc.wantCode)
		})
	}

	w := env.get(env.results.GetResult, "/election-result?election_id="+talliedID, nil)
	var resp models.ElectionResultResponse
	testutil.AssertJSON(t, w, &resp)

	if resp.Election.Status != models.StatusTallied {
		t.Errorf("Election status = %s, want tallied", resp.Election.Status)
	}
	want := map[string]int{cands[0]: 1, cands[1]: 1}
	if len(resp.Result.Counts) != 2 {
		t.Fatalf("Expected 2 counts, got %d", len(resp.Result.Counts))
	}
	for _, c := range resp.Result.Counts {
		if c.Votes != want[c.CandidateID] {
			t.Errorf("Votes for %s = %d, want %d", c.CandidateID, c.Votes, want[c.CandidateID])
		}
	}
	if resp.Result.IncludedBallots != 2 || resp.Result.RegisteredVoters != 3 || resp.Result.Abstentions != 1 {
		t.Errorf("Unexpected totals: %+v", resp.Result)
	}
	if resp.Result.Digest == "" {
		t.Error("Expected a digest")
	}
}

func TestVerifyTally(t *testing.T) {
	env := newTestEnv(t)
	electionID, cands := testutil.CreateTestElection(t, env.db, models.StatusOpen, "Alice")
	testutil.RegisterTestVoter(t, env.db, electionID, "v1")
	testutil.RegisterTestVoter(t, env.db, electionID, "v2")
	testutil.InsertTestBallot(t, env.db, electionID, "v1", cands[0], models.ValidityValid)

	verify := func() (int, bool) {
		w := env.get(env.results.VerifyTally, "/verify_tally?election_id="+electionID, nil)
		if w.Code != http.StatusOK {
			return w.Code, false
		}
		var resp models.VerifyTallyResponse
		testutil.AssertJSON(t, w, &resp)
		return w.Code, resp.Verified
	}

	if code, _ := verify(); code != http.StatusConflict {
		t.Errorf("Before tally: status = %d, want 409", code)
	}

	if _, err := env.svc.Engine.Close(t.Context(), electionID); err != nil {
		t.Fatal(err)
	}
	if code, ok := verify(); code != http.StatusOK || !ok {
		t.Errorf("After tally: status = %d verified = %v, want 200 true", code, ok)
	}

	// A ballot slipped into the record after publication breaks verification.
	testutil.InsertTestBallot(t, env.db, electionID, "v2", cands[0], models.ValidityValid)
	if code, ok := verify(); code != http.StatusOK || ok {
		t.Errorf("After tampering: status = %d verified = %v, want 200 false", code, ok)
	}

	w := env.get(env.results.VerifyTally, "/verify_tally?election_id=missing", nil)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}
