// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"testing"
	"time"
)

func TestParseFlags_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected sqlite, got %s", cfg.DatabaseType)
	}
	if cfg.DatabaseURL != "file:wynnextras.db" {
		t.Errorf("unexpected database URL %s", cfg.DatabaseURL)
	}
	if cfg.SessionServerURL != DefaultSessionServer {
		t.Errorf("unexpected session server %s", cfg.SessionServerURL)
	}
	if cfg.AuthCacheTTL != 20*time.Second {
		t.Errorf("expected 20s auth cache TTL, got %v", cfg.AuthCacheTTL)
	}
	if cfg.ApproveThreshold != 3 || cfg.LockThreshold != 10 {
		t.Errorf("expected thresholds 3/10, got %d/%d", cfg.ApproveThreshold, cfg.LockThreshold)
	}
}

func TestParseFlags_EnvVars(t *testing.T) {
	os.Setenv("PORT", "9000")
	os.Setenv("DATABASE_TYPE", "postgres")
	os.Setenv("DATABASE_URL", "postgres://test")
	os.Setenv("AUTH_CACHE_TTL", "45s")
	os.Setenv("APPROVE_THRESHOLD", "5")
	os.Setenv("LOCK_THRESHOLD", "20")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("expected postgres, got %s", cfg.DatabaseType)
	}
	if cfg.AuthCacheTTL != 45*time.Second {
		t.Errorf("expected 45s TTL, got %v", cfg.AuthCacheTTL)
	}
	if cfg.ApproveThreshold != 5 || cfg.LockThreshold != 20 {
		t.Errorf("expected thresholds 5/20, got %d/%d", cfg.ApproveThreshold, cfg.LockThreshold)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	os.Setenv("PORT", "9000")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{"-p", "8081", "-d", "file:test.db"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8081 {
		t.Errorf("CLI should override env: expected 8081, got %d", cfg.Port)
	}
}

func TestParseFlags_InvalidDatabaseType(t *testing.T) {
	os.Clearenv()

	if _, err := ParseFlags([]string{"-t", "mysql"}); err == nil {
		t.Error("expected error for unsupported database type")
	}
}

func TestParseFlags_PostgresRequiresURL(t *testing.T) {
	os.Clearenv()

	if _, err := ParseFlags([]string{"-t", "postgres"}); err == nil {
		t.Error("expected error for postgres without a database URL")
	}
}

func TestParseFlags_InvalidThresholds(t *testing.T) {
	os.Clearenv()

	// Lock below approve is nonsense
	if _, err := ParseFlags([]string{"-approve-threshold", "5", "-lock-threshold", "2"}); err == nil {
		t.Error("expected error for lock < approve")
	}

	if _, err := ParseFlags([]string{"-approve-threshold", "-1"}); err == nil {
		t.Error("expected error for negative approve threshold")
	}
}

func TestParseFlags_InvalidTTL(t *testing.T) {
	os.Clearenv()

	if _, err := ParseFlags([]string{"-auth-cache-ttl", "soon"}); err == nil {
		t.Error("expected error for unparseable TTL")
	}
	if _, err := ParseFlags([]string{"-auth-cache-ttl", "-5s"}); err == nil {
		t.Error("expected error for negative TTL")
	}
}
