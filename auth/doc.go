// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides authentication and token generation utilities.

# Admin Keys

Admin keys use HMAC-SHA256 to create deterministic, verifiable keys:

	adminKey := auth.GenerateAdminKey(electionID, salt)
	err := auth.ValidateAdminKey(electionID, adminKey, salt)

Creating elections uses the fixed ElectionsScope instead of an election ID.
Since keys are deterministic, validation needs no stored secret.

# Voter Tokens

Voter tokens carry the voter ID plus an HMAC over it:

	token := auth.GenerateVoterToken(voterID, salt)
	voterID, err := auth.ParseVoterToken(token, salt)

The token is the voter's session; the voter identity is never taken from a
request body.

# Reminder Artifacts

Each cast ballot gets a fresh, unpredictable artifact:

	artifact, err := auth.GenerateArtifact() // "K3QZ-7HDA-M2XP-4TRB"

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters
*/
package auth
