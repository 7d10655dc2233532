package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/boddenberg/moneta-ledger/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()

	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.StoreDriver != config.DriverSQLite {
		t.Errorf("expected sqlite driver, got %q", cfg.StoreDriver)
	}
	if cfg.SchedulerInterval != 0 {
		t.Errorf("expected scheduler interval disabled, got %v", cfg.SchedulerInterval)
	}
	if !cfg.AutoArchive {
		t.Error("expected auto archive on by default")
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SCHEDULER_INTERVAL", "1m")
	t.Setenv("AUTO_ARCHIVE", "false")
	t.Setenv("MAX_RETRIES", "not-a-number")

	cfg := config.Load()

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.StoreDriver != config.DriverMemory {
		t.Errorf("expected memory driver, got %q", cfg.StoreDriver)
	}
	if cfg.SchedulerInterval != time.Minute {
		t.Errorf("expected 1m, got %v", cfg.SchedulerInterval)
	}
	if cfg.AutoArchive {
		t.Error("expected auto archive off")
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("expected fallback of 3 retries, got %d", cfg.MaxRetries)
	}
}

func TestLoadDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "MONETA_TEST_A=from-file\nMONETA_TEST_B=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MONETA_TEST_A", "from-env")
	t.Cleanup(func() { os.Unsetenv("MONETA_TEST_B") })

	if err := config.LoadDotEnv(path); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got := os.Getenv("MONETA_TEST_A"); got != "from-env" {
		t.Errorf("expected env to win, got %q", got)
	}
	if got := os.Getenv("MONETA_TEST_B"); got != "from-file" {
		t.Errorf("expected value from file, got %q", got)
	}
}

func TestLoadDotEnv_MissingFileIsIgnored(t *testing.T) {
	if err := config.LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
