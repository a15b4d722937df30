package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("BMKGALERT_DATABASE_URL", "")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error without database URL")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BMKGALERT_DATABASE_URL", "postgres://env/db")
	t.Setenv("BMKGALERT_LISTEN_ADDR", ":9999")
	t.Setenv("BMKGALERT_AUTO_START", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://env/db" {
		t.Errorf("database url: got %s", cfg.DatabaseURL)
	}
	if cfg.ListenAddr != ":9999" {
		t.Errorf("listen addr: got %s", cfg.ListenAddr)
	}
	if cfg.AutoStart {
		t.Error("auto_start override not applied")
	}
	// Untouched fields keep defaults.
	if cfg.UpstreamBaseURL != Default().UpstreamBaseURL {
		t.Errorf("upstream url: got %s", cfg.UpstreamBaseURL)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	t.Setenv("BMKGALERT_DATABASE_URL", "")
	t.Setenv("BMKGALERT_LISTEN_ADDR", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("database_url: postgres://file/db\nlisten_addr: \":7070\"\nlog_level: debug\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://file/db" || cfg.ListenAddr != ":7070" || cfg.LogLevel != "debug" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestEnvWinsOverFile(t *testing.T) {
	t.Setenv("BMKGALERT_DATABASE_URL", "postgres://env/db")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("database_url: postgres://file/db\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://env/db" {
		t.Errorf("env override lost: %s", cfg.DatabaseURL)
	}
}

func TestConstantsConsistency(t *testing.T) {
	if TrialIPRateLimit <= 0 || TrialIPRateWindow <= 0 {
		t.Error("trial rate limit constants must be positive")
	}
	if SenderTimeout >= UpstreamTimeout {
		t.Error("sender timeout should be tighter than the upstream timeout")
	}
	if DefaultPaginationLimit > MaxActivityLimit {
		t.Error("default pagination exceeds the activity cap")
	}
}
