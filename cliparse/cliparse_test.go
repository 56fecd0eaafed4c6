// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("ADMIN_KEY_SALT", "test-salt")
	t.Setenv("VOTER_TOKEN_SALT", "test-voter-salt")
}

func TestParseFlags_EnvVars(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("TALLY_GRACE", "90s")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected default database type sqlite, got %s", cfg.DatabaseType)
	}
	if cfg.TallyGrace != 90*time.Second {
		t.Errorf("expected tally grace 90s, got %v", cfg.TallyGrace)
	}
	if cfg.CastLatencyFloor != 250*time.Millisecond {
		t.Errorf("expected default cast floor 250ms, got %v", cfg.CastLatencyFloor)
	}
	if cfg.DecoyMeanInterval != 0 {
		t.Errorf("expected no fixed decoy mean by default, got %v", cfg.DecoyMeanInterval)
	}
	if cfg.DecoysPerVoter != 19 {
		t.Errorf("decoys should be on by default with 19 per voter, got %d", cfg.DecoysPerVoter)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("CAST_LATENCY_FLOOR", "1s")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:other.db", "-admin-salt", "s1", "-voter-salt", "s2", "-cast-floor", "0s"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.DatabaseURL != "file:other.db" {
		t.Errorf("expected database URL from flag, got %s", cfg.DatabaseURL)
	}
	if cfg.CastLatencyFloor != 0 {
		t.Errorf("expected cast floor 0 from flag, got %v", cfg.CastLatencyFloor)
	}
}

func TestParseFlags_DecoyCount(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DECOY_COUNT", "5")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DecoysPerVoter != 5 {
		t.Errorf("expected 5 decoys from env, got %d", cfg.DecoysPerVoter)
	}

	cfg, err = ParseFlags([]string{"-decoys", "0"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DecoysPerVoter != 0 {
		t.Errorf("flag should override env, got %d", cfg.DecoysPerVoter)
	}

	t.Setenv("DECOY_COUNT", "many")
	if _, err := ParseFlags([]string{}); err == nil {
		t.Error("expected error for invalid DECOY_COUNT")
	}
}

func TestParseFlags_MissingSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("ADMIN_KEY_SALT", "")
	t.Setenv("VOTER_TOKEN_SALT", "")

	if _, err := ParseFlags([]string{}); err == nil {
		t.Error("expected error when ADMIN_KEY_SALT is missing")
	}

	t.Setenv("ADMIN_KEY_SALT", "salt")
	if _, err := ParseFlags([]string{}); err == nil {
		t.Error("expected error when VOTER_TOKEN_SALT is missing")
	}
}

func TestParseFlags_RejectsUnknownDatabaseType(t *testing.T) {
	setRequiredEnv(t)

	if _, err := ParseFlags([]string{"-t", "mysql"}); err == nil {
		t.Error("expected error for unsupported database type")
	}
}

func TestParseFlags_DotEnvFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ADMIN_KEY_SALT", "")
	t.Setenv("VOTER_TOKEN_SALT", "from-process")
	// godotenv sets these; make sure they are cleared afterwards
	t.Cleanup(func() {
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("ADMIN_KEY_SALT")
	})
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("ADMIN_KEY_SALT")

	envPath := filepath.Join(t.TempDir(), "test.env")
	content := "DATABASE_URL=file:dotenv.db\nADMIN_KEY_SALT=dotenv-salt\nVOTER_TOKEN_SALT=from-file\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := ParseFlags([]string{"-env", envPath})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.DatabaseURL != "file:dotenv.db" {
		t.Errorf("expected DATABASE_URL from .env, got %s", cfg.DatabaseURL)
	}
	if cfg.AdminKeySalt != "dotenv-salt" {
		t.Errorf("expected ADMIN_KEY_SALT from .env, got %s", cfg.AdminKeySalt)
	}
	// process environment wins over the file
	if cfg.VoterTokenSalt != "from-process" {
		t.Errorf("expected process env to win, got %s", cfg.VoterTokenSalt)
	}
}

func TestParseFlags_InvalidDuration(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LIFECYCLE_TICK", "soon")

	if _, err := ParseFlags([]string{}); err == nil {
		t.Error("expected error for invalid LIFECYCLE_TICK")
	}
}
