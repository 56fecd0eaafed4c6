// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the revote API server.

Revote is a re-votable, coercion-resistant ballot board. Voters may cast
as many ballots as they like; a ballot only replaces the voter's counted one
when it correctly names every earlier ballot by its reminder artifact.
Ballots cast under duress are recorded and silently invalidated, and the
response to the voter looks the same either way.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=file:revote.db ADMIN_KEY_SALT=... VOTER_TOKEN_SALT=... go run .

Or against PostgreSQL with flags:

	go run . -t postgres -d "postgres://..." -p 3318

Print the key that authorizes POST /elections and exit:

	go run . -print-admin-key

# Configuration

Settings may also come from a .env file (-env to choose another path).

Required settings:

  - DATABASE_URL (-d): SQLite file URL or PostgreSQL connection string
  - ADMIN_KEY_SALT (--admin-salt): Secret for admin key HMAC
  - VOTER_TOKEN_SALT (--voter-salt): Secret for voter session tokens

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - IMAGE_POOL_FILE (-images): Reminder image names, one per line
  - CAST_LATENCY_FLOOR (-cast-floor): Minimum ballot cast duration (default: 250ms)
  - TALLY_GRACE (-tally-grace): Delay between election end and tally (default: 1m)
  - LIFECYCLE_TICK (-tick): Background loop interval (default: 5s)
  - DECOY_COUNT (-decoys): Decoys per voter over an election (default: 19)
  - DECOY_MEAN_INTERVAL (-decoy-mean): Fixed decoy spacing (default: derived from DECOY_COUNT)

# Architecture

  - handlers: HTTP request handlers (elections, ballots, results)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers, voter sessions, latency floor
  - casting: Ballot validity resolver
  - linkage: Revote linkage verifier
  - tally: Tally engine and digest
  - lifecycle: Closes and tallies elections after their end
  - decoy: Server-cast decoy ballots
  - store: Ballot record, credential, and snapshot persistence
  - models: Request/response and domain types
  - auth: Token generation and validation
  - db: Connection and schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
