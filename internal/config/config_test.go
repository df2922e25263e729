package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
server:
  port: "9090"
log:
  level: debug
redis:
  addr: localhost:6379
  ttl: 5m
roster:
  class-1: 30
`

func TestLoadReadsYAMLAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LIVE_REDIS_ADDR", "redis:6380")
	t.Setenv("LIVE_AUTH_SECRET", "s3cret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Log.Level != "debug" {
		t.Fatalf("yaml values not applied: %+v", cfg)
	}
	if cfg.Redis.Addr != "redis:6380" {
		t.Fatalf("expected env override, got %q", cfg.Redis.Addr)
	}
	if cfg.Auth.Secret != "s3cret" {
		t.Fatalf("expected secret from env, got %q", cfg.Auth.Secret)
	}
	if cfg.Redis.TTL != "5m" {
		t.Fatalf("yaml value lost without env override: %q", cfg.Redis.TTL)
	}
	if cfg.Roster["class-1"] != 30 {
		t.Fatalf("expected roster entry, got %v", cfg.Roster)
	}
}

func TestLoadWithoutFileUsesEnv(t *testing.T) {
	t.Setenv("LIVE_POSTGRES_URL", "postgres://live@localhost/live")
	t.Setenv("LIVE_ROSTER", "class-1:20,class-2:25")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Postgres.URL != "postgres://live@localhost/live" {
		t.Fatalf("unexpected postgres url %q", cfg.Postgres.URL)
	}
	if cfg.Roster["class-2"] != 25 {
		t.Fatalf("expected roster from env, got %v", cfg.Roster)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestTTLDuration(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{"", time.Minute},
		{"30s", 30 * time.Second},
		{"garbage", time.Minute},
	}
	for _, tc := range cases {
		if got := TTLDuration(tc.raw, time.Minute); got != tc.want {
			t.Fatalf("TTLDuration(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}
