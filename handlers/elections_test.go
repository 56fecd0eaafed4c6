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

func TestGetElection(t *testing.T) {
	env := newTestEnv(t)

	w := env.get(env.elections.GetElection, "/election", nil)
	testutil.AssertStatus(t, w, http.StatusNotFound)

	electionID, _ := testutil.CreateTestElection(t, env.db, models.StatusOpen, "Alice")

	w = env.get(env.elections.GetElection, "/election", nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ElectionSummary
	testutil.AssertJSON(t, w, &resp)
	if resp.ElectionID != electionID || resp.ElectionName == "" {
		t.Errorf("Expected election %s, got %+v", electionID, resp)
	}
}

func TestListElections(t *testing.T) {
	env := newTestEnv(t)

	mine, _ := testutil.CreateTestElection(t, env.db, models.StatusOpen, "Alice")
	testutil.CreateTestElection(t, env.db, models.StatusOpen, "Bob")
	token := testutil.RegisterTestVoter(t, env.db, mine, "v1")

	handler := middleware.OptionalVoter(env.cfg.VoterTokenSalt, env.elections.ListElections)

	testCases := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"anonymous sees all", nil, 2},
		{"voter sees own", voterHeader(token), 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.get(handler, "/elections", tc.headers)
			testutil.AssertStatus(t, w, http.StatusOK)

			var resp models.ElectionsResponse
			testutil.AssertJSON(t, w, &resp)
			if len(resp.Elections) != tc.want {
				t.Errorf("Expected %d elections, got %d", tc.want, len(resp.Elections))
			}
		})
	}
}

func TestGetCandidates(t *testing.T) {
	env := newTestEnv(t)
	electionID, cands := testutil.CreateTestElection(t, env.db, models.StatusOpen, "Alice", "Bob", "Carol")

	for _, path := range []string{"/bulletin/candidates?election_id=" + electionID, "/bulletin/candidates"} {
		w := env.get(env.elections.GetCandidates, path, nil)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.CandidatesResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.ElectionID != electionID {
			t.Errorf("%s: expected election %s, got %s", path, electionID, resp.ElectionID)
		}
		if len(resp.Candidates) != 3 {
			t.Fatalf("%s: expected 3 candidates, got %d", path, len(resp.Candidates))
		}
		for i, c := range resp.Candidates {
			if c.ID != cands[i] {
				t.Errorf("%s: candidate %d = %s, want %s", path, i, c.ID, cands[i])
			}
		}
	}

	w := env.get(env.elections.GetCandidates, "/bulletin/candidates?election_id=missing", nil)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestCreateElection(t *testing.T) {
	env := newTestEnv(t)
	instanceKey := map[string]string{
		middleware.AdminKeyHeader: auth.GenerateAdminKey(auth.ElectionsScope, env.cfg.AdminKeySalt),
	}
	end := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)
	candidates := []models.CandidateInput{{Name: "Alice"}, {Name: "Bob"}}

	testCases := []struct {
		name     string
		headers  map[string]string
		body     interface{}
		wantCode int
	}{
		{
			name:     "missing admin key",
			body:     models.CreateElectionRequest{Name: "Board", EndsAt: end, Candidates: candidates},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "election admin key is not enough",
			headers:  env.adminKey("some-election"),
			body:     models.CreateElectionRequest{Name: "Board", EndsAt: end, Candidates: candidates},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "missing name",
			headers:  instanceKey,
			body:     models.CreateElectionRequest{EndsAt: end, Candidates: candidates},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "no candidates",
			headers:  instanceKey,
			body:     models.CreateElectionRequest{Name: "Board", EndsAt: end},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "ends before it starts",
			headers:  instanceKey,
			body:     models.CreateElectionRequest{Name: "Board", EndsAt: past, Candidates: candidates},
			wantCode: http.StatusBadRequest,
		},
		{
			name:    "duplicate candidate id",
			headers: instanceKey,
			body: models.CreateElectionRequest{Name: "Board", EndsAt: end, Candidates: []models.CandidateInput{
				{ID: "x", Name: "Alice"}, {ID: "x", Name: "Bob"},
			}},
			wantCode: http.StatusBadRequest,
		},
		{
			name:    "duplicate voter",
			headers: instanceKey,
			body: models.CreateElectionRequest{Name: "Board", EndsAt: end, Candidates: candidates, Voters: []models.VoterInput{
				{ID: "v1"}, {ID: "v1"},
			}},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "invalid JSON",
			headers:  instanceKey,
			body:     "not an object",
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/elections", tc.body, tc.headers)
			w := httptest.NewRecorder()
			env.elections.CreateElection(w, req)
			testutil.AssertStatus(t, w, tc.wantCode)
		})
	}

	t.Run("success", func(t *testing.T) {
		body := models.CreateElectionRequest{
			Name:       "Board",
			EndsAt:     end,
			Candidates: candidates,
			Voters:     []models.VoterInput{{ID: "v1", Name: "Vee"}, {ID: "v2"}},
		}
		req := testutil.MakeRequest("POST", "/elections", body, instanceKey)
		w := httptest.NewRecorder()
		env.elections.CreateElection(w, req)
		testutil.AssertStatus(t, w, http.StatusCreated)

		var resp models.CreateElectionResponse
		testutil.AssertJSON(t, w, &resp)

		if err := auth.ValidateAdminKey(resp.ElectionID, resp.AdminKey, env.cfg.AdminKeySalt); err != nil {
			t.Errorf("Returned admin key does not validate: %v", err)
		}
		if len(resp.VoterTokens) != 2 {
			t.Fatalf("Expected 2 voter tokens, got %d", len(resp.VoterTokens))
		}
		voterID, err := auth.ParseVoterToken(resp.VoterTokens["v1"], env.cfg.VoterTokenSalt)
		if err != nil || voterID != "v1" {
			t.Errorf("Voter token for v1 parses to %q, %v", voterID, err)
		}

		cands, err := env.svc.Store.Candidates(req.Context(), env.db, resp.ElectionID)
		if err != nil {
			t.Fatal(err)
		}
		if len(cands) != 2 || cands[0].ID != "c1" || cands[1].ID != "c2" {
			t.Errorf("Expected generated candidate ids [c1 c2], got %+v", cands)
		}
	})
}

func TestRegisterVoters(t *testing.T) {
	env := newTestEnv(t)
	electionID, _ := testutil.CreateTestElection(t, env.db, models.StatusOpen, "Alice")
	closedID, _ := testutil.CreateTestElection(t, env.db, models.StatusClosed, "Alice")

	register := func(id string, headers map[string]string, voters ...string) *httptest.ResponseRecorder {
		body := models.RegisterVotersRequest{}
		for _, v := range voters {
			body.Voters = append(body.Voters, models.VoterInput{ID: v})
		}
		req := testutil.MakeRequest("POST", "/elections/"+id+"/voters", body, headers)
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		env.elections.RegisterVoters(w, req)
		return w
	}

	testutil.AssertStatus(t, register(electionID, nil, "v1"), http.StatusUnauthorized)
	testutil.AssertStatus(t, register(electionID, env.adminKey(electionID)), http.StatusBadRequest)
	testutil.AssertStatus(t, register("missing", env.adminKey("missing"), "v1"), http.StatusNotFound)
	testutil.AssertStatus(t, register(closedID, env.adminKey(closedID), "v1"), http.StatusConflict)

	w := register(electionID, env.adminKey(electionID), "v1", "v2")
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.RegisterVotersResponse
	testutil.AssertJSON(t, w, &resp)
	if len(resp.VoterTokens) != 2 {
		t.Errorf("Expected 2 voter tokens, got %d", len(resp.VoterTokens))
	}

	testutil.AssertStatus(t, register(electionID, env.adminKey(electionID), "v2"), http.StatusConflict)
}

func TestCloseElection(t *testing.T) {
	env := newTestEnv(t)
	electionID, cands := testutil.CreateTestElection(t, env.db, models.StatusOpen, "Alice", "Bob")
	token := testutil.RegisterTestVoter(t, env.db, electionID, "v1")
	env.castOK(t, token, models.SendBallotRequest{ElectionID: electionID, CandidateSelection: cands[1]})

	closeElection := func(headers map[string]string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/elections/"+electionID+"/close", nil, headers)
		req.SetPathValue("id", electionID)
		w := httptest.NewRecorder()
		env.elections.CloseElection(w, req)
		return w
	}

	testutil.AssertStatus(t, closeElection(env.adminKey("other")), http.StatusUnauthorized)

	w := closeElection(env.adminKey(electionID))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.CloseElectionResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.ClosedAt.IsZero() {
		t.Error("Expected closed_at to be set")
	}
	if resp.Result.Counts[1].Votes != 1 || resp.Result.Digest == "" {
		t.Errorf("Unexpected result: %+v", resp.Result)
	}

	testutil.AssertStatus(t, closeElection(env.adminKey(electionID)), http.StatusConflict)
}
