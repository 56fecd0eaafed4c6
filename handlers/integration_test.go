// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/revote/auth"
	"github.com/danielhkuo/revote/middleware"
	"github.com/danielhkuo/revote/models"
	"github.com/danielhkuo/revote/testutil"
)

// TestFullElectionWorkflow drives an election through the API from creation
// to a verified tally. Voter A re-votes with a correct claim and then lies
// about having voted; voter B is coerced into a second ballot; voter C never
// votes.
func TestFullElectionWorkflow(t *testing.T) {
	env := newTestEnv(t)

	// Step 1: Create the election
	createReq := models.CreateElectionRequest{
		Name:   "Board election",
		EndsAt: time.Now().Add(time.Hour),
		Candidates: []models.CandidateInput{
			{ID: "alice", Name: "Alice"},
			{ID: "bob", Name: "Bob"},
		},
		Voters: []models.VoterInput{
			{ID: "A", Name: "Voter A"},
			{ID: "B", Name: "Voter B"},
			{ID: "C", Name: "Voter C"},
		},
	}
	req := testutil.MakeRequest("POST", "/elections", createReq, map[string]string{
		middleware.AdminKeyHeader: auth.GenerateAdminKey(auth.ElectionsScope, env.cfg.AdminKeySalt),
	})
	w := httptest.NewRecorder()
	env.elections.CreateElection(w, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var created models.CreateElectionResponse
	testutil.AssertJSON(t, w, &created)
	electionID := created.ElectionID
	tokenA, tokenB := created.VoterTokens["A"], created.VoterTokens["B"]

	// Step 2: The election is the default one and lists its candidates
	w = env.get(env.elections.GetElection, "/election", nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var summary models.ElectionSummary
	testutil.AssertJSON(t, w, &summary)
	if summary.ElectionID != electionID {
		t.Fatalf("Default election = %s, want %s", summary.ElectionID, electionID)
	}

	w = env.get(env.elections.GetCandidates, "/bulletin/candidates?election_id="+electionID, nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	// Step 3: Voter A votes, re-votes with a correct claim, then lies
	x := env.castOK(t, tokenA, models.SendBallotRequest{ElectionID: electionID, CandidateSelection: "bob"})
	linked := env.castOK(t, tokenA, models.SendBallotRequest{
		ElectionID:         electionID,
		CandidateSelection: "alice",
		ClaimedArtifacts:   []string{x},
	})
	env.castOK(t, tokenA, models.SendBallotRequest{
		ElectionID:         electionID,
		CandidateSelection: "bob",
		VotedBefore:        boolPtr(true),
	})

	latest, err := env.svc.Store.LatestValid(t.Context(), env.db, electionID, "A")
	if err != nil {
		t.Fatal(err)
	}
	if latest.Artifact != linked {
		t.Errorf("Voter A latest valid ballot = %s, want the linked re-vote %s", latest.Artifact, linked)
	}

	// Step 4: Voter B votes, then is coerced into a ballot without history
	env.castOK(t, tokenB, models.SendBallotRequest{ElectionID: electionID, CandidateSelection: "alice"})
	env.castOK(t, tokenB, models.SendBallotRequest{
		ElectionID:         electionID,
		CandidateSelection: "bob",
		VotedBefore:        boolPtr(false),
	})

	// Step 5: Results stay sealed and every ballot is on the record
	w = env.get(env.results.GetResult, "/election-result?election_id="+electionID, nil)
	testutil.AssertStatus(t, w, http.StatusForbidden)

	w = env.get(env.ballots.VerifyBallot, "/verify-ballot?election_id="+electionID+"&artifact="+x, nil)
	var record models.VerifyBallotResponse
	testutil.AssertJSON(t, w, &record)
	if record.Status != models.RecordTrue {
		t.Errorf("Ballot %s status = %s, want true", x, record.Status)
	}

	// Step 6: Close
	req = testutil.MakeRequest("POST", "/elections/"+electionID+"/close", nil, map[string]string{
		middleware.AdminKeyHeader: created.AdminKey,
	})
	req.SetPathValue("id", electionID)
	w = httptest.NewRecorder()
	env.elections.CloseElection(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = env.sendBallot(tokenA, models.SendBallotRequest{ElectionID: electionID, CandidateSelection: "bob"})
	testutil.AssertStatus(t, w, http.StatusConflict)

	// Step 7: Result counts one ballot each for A (alice) and B (alice)
	w = env.get(env.results.GetResult, "/election-result?election_id="+electionID, nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	var result models.ElectionResultResponse
	testutil.AssertJSON(t, w, &result)
	if result.Result.Counts[0].CandidateID != "alice" || result.Result.Counts[0].Votes != 2 {
		t.Errorf("Alice count = %+v, want 2 votes", result.Result.Counts[0])
	}
	if result.Result.Counts[1].CandidateID != "bob" || result.Result.Counts[1].Votes != 0 {
		t.Errorf("Bob count = %+v, want 0 votes", result.Result.Counts[1])
	}
	if result.Result.Abstentions != 1 {
		t.Errorf("Abstentions = %d, want 1", result.Result.Abstentions)
	}

	// Step 8: The published tally verifies and is reproducible
	w = env.get(env.results.VerifyTally, "/verify_tally?election_id="+electionID, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var verified models.VerifyTallyResponse
	testutil.AssertJSON(t, w, &verified)
	if !verified.Verified {
		t.Error("Expected the published tally to verify")
	}

	rerun, err := env.svc.Engine.Run(t.Context(), electionID)
	if err != nil {
		t.Fatal(err)
	}
	if rerun.Digest != result.Result.Digest {
		t.Error("Re-running the tally changed the digest")
	}

	w = env.get(env.ballots.VerifyBallot, "/verify-ballot?election_id="+electionID+"&artifact=NOPE", nil)
	testutil.AssertJSON(t, w, &record)
	if record.Status != models.RecordFalse {
		t.Errorf("Unknown artifact after close = %s, want false", record.Status)
	}
}
