package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Dongwon38/wpyvr-sub000/internal/store"
	"github.com/Dongwon38/wpyvr-sub000/pkg/client"
)

// isolate points Load at an empty directory so a developer's own config
// and .env files cannot leak into the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return dir
}

func TestLoad_defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(Options{}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WP.BaseURL != "http://localhost:8000" {
		t.Errorf("BaseURL = %q", cfg.WP.BaseURL)
	}
	if cfg.WP.HubURL != cfg.WP.BaseURL {
		t.Errorf("HubURL should fall back to BaseURL, got %q", cfg.WP.HubURL)
	}
	if cfg.HTTP.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v", cfg.HTTP.Timeout)
	}
	if cfg.Session.Backend != store.BackendFile {
		t.Errorf("Backend = %q", cfg.Session.Backend)
	}
	if cfg.Gateway.Port != 8080 || cfg.Gateway.RateLimitRPS != 20 {
		t.Errorf("Gateway = %+v", cfg.Gateway)
	}
	if len(cfg.Gateway.CORSOrigins) != 1 || cfg.Gateway.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("CORSOrigins = %v", cfg.Gateway.CORSOrigins)
	}
}

func TestLoad_envOverridesFile(t *testing.T) {
	dir := isolate(t)

	yaml := "wp:\n  base_url: https://file.example.org/\n  hub_url: https://hub.example.org\nhttp:\n  timeout: 5s\n"
	if err := os.WriteFile(filepath.Join(dir, "wpyvr.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WP_BASE_URL", "https://env.example.org")
	t.Setenv("GATEWAY_CORS_ORIGINS", "https://a.example.org, https://b.example.org")

	cfg, err := Load(Options{}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WP.BaseURL != "https://env.example.org" {
		t.Errorf("BaseURL = %q, env should win", cfg.WP.BaseURL)
	}
	if cfg.WP.HubURL != "https://hub.example.org" {
		t.Errorf("HubURL = %q", cfg.WP.HubURL)
	}
	if cfg.HTTP.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.HTTP.Timeout)
	}
	if len(cfg.Gateway.CORSOrigins) != 2 || cfg.Gateway.CORSOrigins[1] != "https://b.example.org" {
		t.Errorf("CORSOrigins = %v", cfg.Gateway.CORSOrigins)
	}
}

func TestLoad_dotenv(t *testing.T) {
	dir := isolate(t)

	env := filepath.Join(dir, "local.env")
	if err := os.WriteFile(env, []byte("FIREBASE_API_KEY=from-dotenv\nSESSION_BACKEND=sqlite\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides a variable that is already set.
	t.Setenv("SESSION_BACKEND", "memory")
	t.Cleanup(func() { os.Unsetenv("FIREBASE_API_KEY") })

	cfg, err := Load(Options{EnvFiles: []string{env, filepath.Join(dir, "missing.env")}}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Firebase.APIKey != "from-dotenv" {
		t.Errorf("APIKey = %q", cfg.Firebase.APIKey)
	}
	if cfg.Session.Backend != store.BackendMemory {
		t.Errorf("Backend = %q", cfg.Session.Backend)
	}
}

func TestLoad_invalid(t *testing.T) {
	isolate(t)

	t.Setenv("SESSION_BACKEND", "floppy")
	if _, err := Load(Options{}, nil); err == nil {
		t.Error("expected error for unknown session backend")
	}
}

func TestLoad_explicitFileMustExist(t *testing.T) {
	dir := isolate(t)

	if _, err := Load(Options{File: filepath.Join(dir, "nope.yaml")}, nil); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestStoreOptions(t *testing.T) {
	cfg := &Config{Session: SessionConfig{Backend: "redis", RedisAddr: "localhost:6379"}}
	opts := cfg.StoreOptions()
	if opts.Backend != "redis" || opts.RedisAddr != "localhost:6379" || opts.Namespace != "wpyvr" {
		t.Errorf("StoreOptions = %+v", opts)
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &Config{
		WP:    WPConfig{BaseURL: "https://cms.example.org", HubURL: "https://hub.example.org"},
		HTTP:  HTTPConfig{Timeout: time.Second},
		Cache: CacheConfig{Enabled: true},
	}
	c, err := client.New(cfg.WP.BaseURL, cfg.ClientOptions(nil)...)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	if c.HubURL() != "https://hub.example.org" {
		t.Errorf("HubURL = %q", c.HubURL())
	}
	if n := len(cfg.ClientOptions(nil)); n != 3 {
		t.Errorf("len(opts) = %d, want 3 with cache enabled", n)
	}
}
