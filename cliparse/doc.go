// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: sqlite file URL or PostgreSQL connection string (required)
  - DatabaseType: "sqlite" (default) or "postgres"
  - AdminKeySalt: Secret for admin key HMAC (required)
  - VoterTokenSalt: Secret for voter session tokens (required)
  - ImagePoolFile: Reminder image names, one per line (optional)
  - CastLatencyFloor: Minimum duration of POST /send-ballot (default: 250ms)
  - TallyGrace: Wait after election end before tallying (default: 1m)
  - LifecycleTick: Background close/decoy loop interval (default: 5s)
  - DecoyMeanInterval: Fixed mean decoy ballot spacing (default: 0, derived per election)
  - DecoysPerVoter: Decoys per voter over an election (default: 19)

# CLI Flags

	-env          Path to .env file (default: .env)
	-p            Server port
	-d            Database URL
	-t            Database type
	-admin-salt   Admin key salt
	-voter-salt   Voter token salt
	-images       Image pool file
	-cast-floor   Cast latency floor
	-tally-grace  Tally grace period
	-tick         Lifecycle tick
	-decoy-mean   Decoy mean interval
	-decoys       Decoys per voter
	-print-admin-key  Print the election-creation admin key and exit

# Environment Variables

Flags fall back to environment variables:

	PORT                → -p
	DATABASE_URL        → -d
	DATABASE_TYPE       → -t
	ADMIN_KEY_SALT      → -admin-salt
	VOTER_TOKEN_SALT    → -voter-salt
	IMAGE_POOL_FILE     → -images
	CAST_LATENCY_FLOOR  → -cast-floor
	TALLY_GRACE         → -tally-grace
	LIFECYCLE_TICK      → -tick
	DECOY_MEAN_INTERVAL → -decoy-mean
	DECOY_COUNT         → -decoys

CLI flags take precedence over environment variables, and environment
variables take precedence over the .env file (loaded with godotenv).

# Validation

ParseFlags returns an error if required values are missing or malformed:

  - DATABASE_URL must be provided
  - ADMIN_KEY_SALT must be provided
  - VOTER_TOKEN_SALT must be provided
  - DATABASE_TYPE must be sqlite or postgres
  - durations must parse with time.ParseDuration and be non-negative
*/
package cliparse
