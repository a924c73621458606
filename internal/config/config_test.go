package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if cfg.Service.Name != defaultServiceName {
		t.Errorf("service.name: got %q, want %q", cfg.Service.Name, defaultServiceName)
	}
	if cfg.Service.Port != defaultServicePort {
		t.Errorf("service.port: got %d, want %d", cfg.Service.Port, defaultServicePort)
	}
	if cfg.Database.Port != defaultDBPort {
		t.Errorf("database.port: got %d, want %d", cfg.Database.Port, defaultDBPort)
	}
	if cfg.Database.ConnMaxLifetime != defaultDBConnLifetime {
		t.Errorf("database.conn_max_lifetime: got %v", cfg.Database.ConnMaxLifetime)
	}
	if len(cfg.Subscriber.Channels) != len(DefaultChannels) {
		t.Errorf("subscriber.channels: got %d, want %d", len(cfg.Subscriber.Channels), len(DefaultChannels))
	}
	if cfg.Subscriber.Workers != defaultWorkers {
		t.Errorf("subscriber.workers: got %d, want %d", cfg.Subscriber.Workers, defaultWorkers)
	}
	if len(cfg.Content.AllowedTags) != len(DefaultAllowedTags) {
		t.Errorf("content.allowed_tags: got %v", cfg.Content.AllowedTags)
	}
	if cfg.Ingest.ShouldClassifyMissing() {
		t.Error("ingest.classify_missing_relevance should default to false")
	}
	if cfg.Schedule.TagRecount != defaultTagRecountSchedule {
		t.Errorf("schedule.tag_recount: got %q", cfg.Schedule.TagRecount)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("logging.level: got %q", cfg.Logging.Level)
	}
}

func TestLoad_FileValuesAndEnvOverrides(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("SUBSCRIBER_CHANNELS", "articles:crime, crime:courts")
	t.Setenv("SUBSCRIBER_WORKERS", "8")

	path := writeConfig(t, `
service:
  port: 9000
database:
  host: localhost
  database: news
subscriber:
  min_quality_score: 40
  retry_initial_delay: 1s
ingest:
  classify_missing_relevance: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.Port != 9000 {
		t.Errorf("service.port: got %d, want 9000", cfg.Service.Port)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("database.host: got %q, want env override", cfg.Database.Host)
	}
	if cfg.Database.Database != "news" {
		t.Errorf("database.database: got %q", cfg.Database.Database)
	}
	if got := cfg.Subscriber.Channels; len(got) != 2 || got[1] != "crime:courts" {
		t.Errorf("subscriber.channels: got %v", got)
	}
	if cfg.Subscriber.Workers != 8 {
		t.Errorf("subscriber.workers: got %d, want 8", cfg.Subscriber.Workers)
	}
	if cfg.Subscriber.MinQualityScore != 40 {
		t.Errorf("subscriber.min_quality_score: got %d", cfg.Subscriber.MinQualityScore)
	}
	if cfg.Subscriber.RetryInitialDelay != time.Second {
		t.Errorf("subscriber.retry_initial_delay: got %v", cfg.Subscriber.RetryInitialDelay)
	}
	if !cfg.Ingest.ShouldClassifyMissing() {
		t.Error("ingest.classify_missing_relevance: expected opt-in from file")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Redis.Address != defaultRedisAddress {
		t.Errorf("redis.address: got %q", cfg.Redis.Address)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	path := writeConfig(t, "service: [unclosed")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	cfg.Subscriber.MinQualityScore = -1
	cfg.Redis.Address = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	want := "redis.address: is required\nsubscriber.min_quality_score: must not be negative"
	if err.Error() != want {
		t.Errorf("error message: got %q, want %q", err.Error(), want)
	}
}

func TestDatabaseURLs(t *testing.T) {
	db := DatabaseConfig{
		Host: "pg", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "disable",
	}

	if got, want := db.DSN(), "host=pg port=5433 user=u password=p dbname=d sslmode=disable"; got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
	if got, want := db.MigrateURL(), "postgres://u:p@pg:5433/d?sslmode=disable"; got != want {
		t.Errorf("MigrateURL() = %q, want %q", got, want)
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	if got := GetConfigPath("config.yml"); got != "config.yml" {
		t.Errorf("GetConfigPath() = %q", got)
	}

	t.Setenv("CONFIG_PATH", "/etc/streetcode.yml")
	if got := GetConfigPath("config.yml"); got != "/etc/streetcode.yml" {
		t.Errorf("GetConfigPath() = %q", got)
	}
}
