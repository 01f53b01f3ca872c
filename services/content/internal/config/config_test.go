package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const minimalYAML = `
port: "8080"
databaseURL: "postgres://localhost/brandcraft"
redisAddr: "localhost:6379"
minioEndpoint: "localhost:9000"
minioAccessKey: "minio"
minioSecretKey: "minio123"
minioBucket: "assets"
freepikBaseURL: "https://api.freepik.com"
freepikAPIKey: "fp-key"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.QueueStream != "adapt_jobs" || cfg.QueueGroup != "content_workers" {
		t.Fatalf("queue defaults: %+v", cfg)
	}
	if cfg.WorkerConcurrency != 4 {
		t.Fatalf("expected default concurrency 4, got %d", cfg.WorkerConcurrency)
	}
	if cfg.GovernorDailyQuota != 100 {
		t.Fatalf("expected default daily quota 100, got %d", cfg.GovernorDailyQuota)
	}
}

func TestLoadMissingRequiredField(t *testing.T) {
	noDB := strings.Replace(minimalYAML, `databaseURL: "postgres://localhost/brandcraft"`, "", 1)
	_, err := Load(writeConfig(t, noDB))
	if err == nil || !strings.Contains(err.Error(), "databaseURL") {
		t.Fatalf("expected databaseURL error, got %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db-host/prod")
	t.Setenv("FREEPIK_API_KEY", "fp-env")
	t.Setenv("CONTENT_WORKER_CONCURRENCY", "8")

	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://db-host/prod" {
		t.Fatalf("DATABASE_URL override not applied: %s", cfg.DatabaseURL)
	}
	if cfg.FreepikAPIKey != "fp-env" {
		t.Fatalf("FREEPIK_API_KEY override not applied: %s", cfg.FreepikAPIKey)
	}
	if cfg.WorkerConcurrency != 8 {
		t.Fatalf("CONTENT_WORKER_CONCURRENCY override not applied: %d", cfg.WorkerConcurrency)
	}
}
