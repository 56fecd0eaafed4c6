// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// defaultDecoysPerVoter matches decoy.DefaultPerVoter.
const defaultDecoysPerVoter = 19

type Config struct {
	Port           int
	DatabaseURL    string
	DatabaseType   string
	AdminKeySalt   string
	VoterTokenSalt string
	ImagePoolFile  string

	// Minimum wall time of a cast request, applied to every outcome alike.
	CastLatencyFloor time.Duration
	// Delay after an election's end before it is closed and tallied.
	TallyGrace time.Duration
	// How often the background lifecycle loop runs. Zero disables it.
	LifecycleTick time.Duration
	// Fixed mean spacing of server-cast decoy ballots. Zero derives the
	// mean per election from its voting window and DecoysPerVoter.
	DecoyMeanInterval time.Duration
	// Decoys spread over each election's voting window per voter.
	DecoysPerVoter int

	PrintAdminKey bool
}

// ParseFlags validates flags and fills in defaults from the environment.
// A .env file (or the one named by -env) is loaded first; variables already
// set in the process environment win over the file.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var envFile string

	fset := flag.NewFlagSet("revote", flag.ContinueOnError)

	fset.StringVar(&envFile, "env", ".env", "Path to an optional .env file")

	// Network config (can be CLI args or env)
	fset.IntVar(&cfg.Port, "p", 0, "Server port")
	fset.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fset.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fset.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")
	fset.StringVar(&cfg.VoterTokenSalt, "voter-salt", "", "Voter token salt (prefer env)")

	fset.StringVar(&cfg.ImagePoolFile, "images", "", "File with one reminder image name per line")
	fset.DurationVar(&cfg.CastLatencyFloor, "cast-floor", -1, "Minimum duration of a ballot cast request")
	fset.DurationVar(&cfg.TallyGrace, "tally-grace", -1, "Grace period between election end and tally")
	fset.DurationVar(&cfg.LifecycleTick, "tick", -1, "Lifecycle loop interval (0 disables)")
	fset.DurationVar(&cfg.DecoyMeanInterval, "decoy-mean", -1, "Fixed mean decoy ballot interval (0 derives it per election)")
	fset.IntVar(&cfg.DecoysPerVoter, "decoys", -1, "Decoy ballots per voter over an election (0 with no mean disables)")
	fset.BoolVar(&cfg.PrintAdminKey, "print-admin-key", false, "Print the election-creation admin key and exit")

	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	// Secrets - MUST be provided
	if cfg.AdminKeySalt == "" {
		cfg.AdminKeySalt = os.Getenv("ADMIN_KEY_SALT")
	}
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}

	if cfg.VoterTokenSalt == "" {
		cfg.VoterTokenSalt = os.Getenv("VOTER_TOKEN_SALT")
	}
	if cfg.VoterTokenSalt == "" {
		return Config{}, errors.New("VOTER_TOKEN_SALT required")
	}

	if cfg.ImagePoolFile == "" {
		cfg.ImagePoolFile = os.Getenv("IMAGE_POOL_FILE")
	}

	var err error
	if cfg.CastLatencyFloor, err = durationOrEnv(cfg.CastLatencyFloor, "CAST_LATENCY_FLOOR", 250*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.TallyGrace, err = durationOrEnv(cfg.TallyGrace, "TALLY_GRACE", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.LifecycleTick, err = durationOrEnv(cfg.LifecycleTick, "LIFECYCLE_TICK", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.DecoyMeanInterval, err = durationOrEnv(cfg.DecoyMeanInterval, "DECOY_MEAN_INTERVAL", 0); err != nil {
		return Config{}, err
	}
	if cfg.DecoysPerVoter < 0 {
		cfg.DecoysPerVoter = defaultDecoysPerVoter
		if countStr := os.Getenv("DECOY_COUNT"); countStr != "" {
			count, err := strconv.Atoi(countStr)
			if err != nil || count < 0 {
				return Config{}, errors.New("invalid DECOY_COUNT env variable")
			}
			cfg.DecoysPerVoter = count
		}
	}

	return cfg, nil
}

// durationOrEnv keeps a flag value when it was set (>= 0), otherwise reads
// the named variable, otherwise returns def.
func durationOrEnv(flagVal time.Duration, key string, def time.Duration) (time.Duration, error) {
	if flagVal >= 0 {
		return flagVal, nil
	}
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}
