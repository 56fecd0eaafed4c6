// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/revote/auth"
	"github.com/danielhkuo/revote/cliparse"
	"github.com/danielhkuo/revote/db"
)

// SetupTestDB creates a fresh file-backed SQLite database with the full
// schema. It is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "revote_test.db")
	conn, err := db.Open(db.TypeSQLite, "file:"+path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:           3318,
		DatabaseURL:    "file:revote_test.db",
		DatabaseType:   db.TypeSQLite,
		AdminKeySalt:   "test-admin-salt",
		VoterTokenSalt: "test-voter-salt",
		TallyGrace:     0,
		LifecycleTick:  0,
	}
}

// CreateTestElection inserts an election with the given status whose voting
// window contains the current time, plus one candidate per name. It returns
// the election ID and candidate IDs in ballot order.
func CreateTestElection(t *testing.T, conn *sql.DB, status string, candidateNames ...string) (string, []string) {
	t.Helper()

	electionID, _ := auth.GenerateID(8)
	now := time.Now().UTC()

	var closedAt *time.Time
	if status != "open" {
		closedAt = &now
	}

	_, err := conn.Exec(`
		INSERT INTO election (id, name, status, starts_at, ends_at, closed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, electionID, "Test Election "+electionID, status, now.Add(-time.Hour), now.Add(time.Hour), closedAt, now)
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}

	candidateIDs := make([]string, len(candidateNames))
	for i, name := range candidateNames {
		candidateIDs[i] = fmt.Sprintf("c%d", i+1)
		_, err := conn.Exec(`
			INSERT INTO candidate (election_id, id, name, position)
			VALUES ($1, $2, $3, $4)
		`, electionID, candidateIDs[i], name, i)
		if err != nil {
			t.Fatalf("Failed to create test candidate: %v", err)
		}
	}

	return electionID, candidateIDs
}

// RegisterTestVoter makes voterID eligible in the election and returns the
// voter's session token for the test configuration.
func RegisterTestVoter(t *testing.T, conn *sql.DB, electionID, voterID string) string {
	t.Helper()

	now := time.Now().UTC()
	_, err := conn.Exec(`
		INSERT INTO voter (id, name, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, voterID, "Voter "+voterID, now)
	if err != nil {
		t.Fatalf("Failed to create test voter: %v", err)
	}

	_, err = conn.Exec(`
		INSERT INTO registration (election_id, voter_id, ballot_count, cast_count, last_flag, registered_at)
		VALUES ($1, $2, 0, 0, 'none', $3)
	`, electionID, voterID, now)
	if err != nil {
		t.Fatalf("Failed to register test voter: %v", err)
	}

	return auth.GenerateVoterToken(voterID, GetTestConfig().VoterTokenSalt)
}

// InsertTestBallot appends a ballot with a fixed validity directly, bypassing
// the resolver, and keeps the registration counters consistent. Tally tests
// use it to build records. It returns the ballot ID and artifact.
func InsertTestBallot(t *testing.T, conn *sql.DB, electionID, voterID, candidateID, validity string) (string, string) {
	t.Helper()

	var seq int
	err := conn.QueryRow(`
		SELECT ballot_count FROM registration WHERE election_id = $1 AND voter_id = $2
	`, electionID, voterID).Scan(&seq)
	if err != nil {
		t.Fatalf("Failed to read registration: %v", err)
	}
	seq++

	ballotID, _ := auth.GenerateID(16)
	artifact, _ := auth.GenerateArtifact()
	castAt := time.Now().UTC().Add(time.Duration(seq) * time.Microsecond)

	_, err = conn.Exec(`
		INSERT INTO ballot (id, election_id, voter_id, seq, origin, candidate_id, cast_at,
			artifact, image, claimed_prior, validity)
		VALUES ($1, $2, $3, $4, 'voter', $5, $6, $7, 'test.png', '[]', $8)
	`, ballotID, electionID, voterID, seq, candidateID, castAt, artifact, validity)
	if err != nil {
		t.Fatalf("Failed to create test ballot: %v", err)
	}

	_, err = conn.Exec(`
		UPDATE registration SET ballot_count = $1, cast_count = cast_count + 1, last_flag = $2, last_cast_at = $3
		WHERE election_id = $4 AND voter_id = $5
	`, seq, validity, castAt, electionID, voterID)
	if err != nil {
		t.Fatalf("Failed to update test registration: %v", err)
	}

	return ballotID, artifact
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
