// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ElectionsScope is the admin key scope that authorizes creating elections.
const ElectionsScope = "elections"

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrInvalidToken    = errors.New("invalid token format")
)

var artifactEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func mac(salt string, parts ...string) []byte {
	h := hmac.New(sha256.New, []byte(salt))
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return h.Sum(nil)
}

// GenerateAdminKey creates an HMAC-based admin key for a scope, usually an
// election ID. This is deterministic and verifiable.
func GenerateAdminKey(scope, salt string) string {
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(mac(salt, scope)), "=")
}

// ValidateAdminKey checks if the provided admin key is valid for the scope
func ValidateAdminKey(scope, adminKey, salt string) error {
	expected := GenerateAdminKey(scope, salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// GenerateVoterToken creates the session token a registered voter presents
// in X-Voter-Token. The voter ID travels in the token so no session table
// is needed; the HMAC binds it to the server salt.
func GenerateVoterToken(voterID, salt string) string {
	id := base64.RawURLEncoding.EncodeToString([]byte(voterID))
	sig := base64.RawURLEncoding.EncodeToString(mac(salt, "voter", voterID))
	return id + "." + sig
}

// ParseVoterToken returns the voter ID carried by a token produced by
// GenerateVoterToken with the same salt.
func ParseVoterToken(token, salt string) (string, error) {
	idPart, sigPart, ok := strings.Cut(token, ".")
	if !ok || idPart == "" || sigPart == "" {
		return "", ErrInvalidToken
	}
	raw, err := base64.RawURLEncoding.DecodeString(idPart)
	if err != nil || len(raw) == 0 {
		return "", ErrInvalidToken
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigPart)
	if err != nil {
		return "", ErrInvalidToken
	}
	voterID := string(raw)
	if !hmac.Equal(sig, mac(salt, "voter", voterID)) {
		return "", ErrInvalidToken
	}
	return voterID, nil
}

// GenerateArtifact creates a fresh reminder artifact: 80 random bits as
// four dash-separated base32 groups, e.g. "K3QZ-7HDA-M2XP-4TRB".
func GenerateArtifact() (string, error) {
	b := make([]byte, 10)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate artifact: %w", err)
	}
	s := artifactEncoding.EncodeToString(b) // 16 chars
	return s[0:4] + "-" + s[4:8] + "-" + s[8:12] + "-" + s[12:16], nil
}
