package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, expected %q", cfg.Server.Port, "8080")
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, expected %q", cfg.Database.Driver, "sqlite")
	}
	if cfg.JWT.AccessExpireHour != 1 {
		t.Errorf("JWT.AccessExpireHour = %d, expected 1", cfg.JWT.AccessExpireHour)
	}
	if cfg.JWT.RefreshExpireHour != 720 {
		t.Errorf("JWT.RefreshExpireHour = %d, expected 720", cfg.JWT.RefreshExpireHour)
	}
	if cfg.OAuth.Enabled {
		t.Error("OAuth should be disabled by default")
	}
	if cfg.Redis.Enabled {
		t.Error("Redis should be disabled by default")
	}
	if cfg.RateLimit.RefreshMax != 30 || cfg.RateLimit.RefreshWindowSec != 300 {
		t.Errorf("refresh limit = %d/%ds, expected 30/300s",
			cfg.RateLimit.RefreshMax, cfg.RateLimit.RefreshWindowSec)
	}
	if cfg.RateLimit.LoginMax != 10 || cfg.RateLimit.LoginWindowSec != 60 {
		t.Errorf("login limit = %d/%ds, expected 10/60s",
			cfg.RateLimit.LoginMax, cfg.RateLimit.LoginWindowSec)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, expected default %q", cfg.Server.Port, "8080")
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  host: "127.0.0.1"
  port: "9090"
  mode: "release"
database:
  driver: "postgres"
  dsn: "host=localhost user=app dbname=food"
jwt:
  secret: "file-secret"
  access_expire_hour: 2
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %q, expected %q", cfg.Server.Port, "9090")
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Database.Driver = %q, expected %q", cfg.Database.Driver, "postgres")
	}
	if cfg.JWT.Secret != "file-secret" {
		t.Errorf("JWT.Secret = %q, expected %q", cfg.JWT.Secret, "file-secret")
	}
	// Unspecified fields still get defaults
	if cfg.JWT.RefreshExpireHour != 720 {
		t.Errorf("JWT.RefreshExpireHour = %d, expected default 720", cfg.JWT.RefreshExpireHour)
	}
	if cfg.RateLimit.LoginMax != 10 {
		t.Errorf("RateLimit.LoginMax = %d, expected default 10", cfg.RateLimit.LoginMax)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	os.Setenv("SERVER_PORT", "3000")
	os.Setenv("JWT_SECRET", "env-secret")
	defer os.Unsetenv("SERVER_PORT")
	defer os.Unsetenv("JWT_SECRET")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "3000" {
		t.Errorf("Server.Port = %q, expected env override %q", cfg.Server.Port, "3000")
	}
	if cfg.JWT.Secret != "env-secret" {
		t.Errorf("JWT.Secret = %q, expected env override %q", cfg.JWT.Secret, "env-secret")
	}
}

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		wantAddr     string
		wantPassword string
		wantDB       int
	}{
		{"full", "redis://:secret@redis.host:6380/2", "redis.host:6380", "secret", 2},
		{"no auth", "redis://localhost:6379/0", "localhost:6379", "", 0},
		{"no db", "redis://:pw@localhost:6379", "localhost:6379", "pw", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.parseRedisURL(tt.url)

			if cfg.Redis.Addr != tt.wantAddr {
				t.Errorf("Addr = %q, expected %q", cfg.Redis.Addr, tt.wantAddr)
			}
			if cfg.Redis.Password != tt.wantPassword {
				t.Errorf("Password = %q, expected %q", cfg.Redis.Password, tt.wantPassword)
			}
			if cfg.Redis.DB != tt.wantDB {
				t.Errorf("DB = %d, expected %d", cfg.Redis.DB, tt.wantDB)
			}
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.Port = "8888"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Server.Port != "8888" {
		t.Errorf("Server.Port = %q, expected %q", loaded.Server.Port, "8888")
	}
}
