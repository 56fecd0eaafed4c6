// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/revote/auth"
	"github.com/danielhkuo/revote/cliparse"
	"github.com/danielhkuo/revote/middleware"
	"github.com/danielhkuo/revote/models"
	"github.com/danielhkuo/revote/testutil"
)

type testEnv struct {
	db  *sql.DB
	cfg cliparse.Config
	svc *Services

	elections *ElectionHandler
	ballots   *BallotHandler
	results   *ResultsHandler
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	svc, err := NewServices(db, cfg)
	if err != nil {
		t.Fatalf("NewServices() error = %v", err)
	}

	return testEnv{
		db:        db,
		cfg:       cfg,
		svc:       svc,
		elections: NewElectionHandler(svc, cfg),
		ballots:   NewBallotHandler(svc, cfg),
		results:   NewResultsHandler(svc, cfg),
	}
}

func (env testEnv) adminKey(electionID string) map[string]string {
	return map[string]string{middleware.AdminKeyHeader: auth.GenerateAdminKey(electionID, env.cfg.AdminKeySalt)}
}

func voterHeader(token string) map[string]string {
	if token == "" {
		return nil
	}
	return map[string]string{middleware.VoterTokenHeader: token}
}

// sendBallot posts a ballot through the same session middleware the router
// uses.
func (env testEnv) sendBallot(token string, body interface{}) *httptest.ResponseRecorder {
	req := testutil.MakeRequest("POST", "/send-ballot", body, voterHeader(token))
	w := httptest.NewRecorder()
	middleware.RequireVoter(env.cfg.VoterTokenSalt, env.ballots.SendBallot)(w, req)
	return w
}

// castOK sends a ballot that must be accepted and returns its artifact.
func (env testEnv) castOK(t *testing.T, token string, req models.SendBallotRequest) string {
	t.Helper()

	w := env.sendBallot(token, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.SendBallotResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.ReminderArtifact == "" {
		t.Fatal("Expected a reminder artifact")
	}
	return resp.ReminderArtifact
}

func (env testEnv) get(handler http.HandlerFunc, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := testutil.MakeRequest("GET", path, nil, headers)
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func boolPtr(b bool) *bool { return &b }
