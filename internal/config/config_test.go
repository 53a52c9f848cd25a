package config

import (
	"testing"
	"time"
)

// setRequiredEnv fills the credentials validate() insists on but ships no
// defaults for.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MINIO_ACCESS_KEY_ID", "test-access-key")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "test-secret-key")
	t.Setenv("GEMINI_API_KEY", "test-api-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Ops.Port != 8080 {
		t.Errorf("ops port = %d, want 8080", cfg.Ops.Port)
	}
	if cfg.Report.GenerationBudget != 30*time.Second {
		t.Errorf("generation budget = %v, want 30s", cfg.Report.GenerationBudget)
	}
	if cfg.Report.BatchConcurrency != 3 {
		t.Errorf("batch concurrency = %d, want 3", cfg.Report.BatchConcurrency)
	}
	if cfg.Report.MinArtifactBytes != 100*1024 || cfg.Report.MaxArtifactBytes != 5*1024*1024 {
		t.Errorf("artifact bounds = (%d, %d)", cfg.Report.MinArtifactBytes, cfg.Report.MaxArtifactBytes)
	}
	if cfg.Report.MinPageCount != 2 || cfg.Report.MaxPageCount != 20 {
		t.Errorf("page bounds = (%d, %d)", cfg.Report.MinPageCount, cfg.Report.MaxPageCount)
	}
	if cfg.Monitor.Retention != 30*24*time.Hour {
		t.Errorf("retention = %v", cfg.Monitor.Retention)
	}
	if cfg.Gemini.ModelID != "gemini-2.5-flash" {
		t.Errorf("model id = %q", cfg.Gemini.ModelID)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OPS_PORT", "9090")
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("REPORT_GENERATION_BUDGET", "45s")
	t.Setenv("REPORT_BATCH_CONCURRENCY", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Ops.Port != 9090 {
		t.Errorf("ops port = %d, want 9090", cfg.Ops.Port)
	}
	if got := cfg.Redis.Addr(); got != "redis.internal:6379" {
		t.Errorf("redis addr = %q", got)
	}
	if cfg.Report.GenerationBudget != 45*time.Second {
		t.Errorf("generation budget = %v, want 45s", cfg.Report.GenerationBudget)
	}
	if cfg.Report.BatchConcurrency != 5 {
		t.Errorf("batch concurrency = %d, want 5", cfg.Report.BatchConcurrency)
	}
}

func TestLoadValidationFailures(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"missing minio credentials", map[string]string{
			"MINIO_ACCESS_KEY_ID":     "",
			"MINIO_SECRET_ACCESS_KEY": "",
		}},
		{"non positive ops port", map[string]string{
			"MINIO_ACCESS_KEY_ID":     "k",
			"MINIO_SECRET_ACCESS_KEY": "s",
			"OPS_PORT":                "0",
		}},
		{"inverted artifact bounds", map[string]string{
			"MINIO_ACCESS_KEY_ID":       "k",
			"MINIO_SECRET_ACCESS_KEY":   "s",
			"REPORT_MIN_ARTIFACT_BYTES": "1000000",
			"REPORT_MAX_ARTIFACT_BYTES": "1000",
		}},
		{"inverted page bounds", map[string]string{
			"MINIO_ACCESS_KEY_ID":     "k",
			"MINIO_SECRET_ACCESS_KEY": "s",
			"REPORT_MIN_PAGE_COUNT":   "30",
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "db.internal", Port: 5433, Name: "reports",
		User: "svc", Password: "pw", SSLMode: "require",
	}
	want := "host=db.internal port=5433 user=svc password=pw dbname=reports sslmode=require"
	if got := d.DSN(); got != want {
		t.Fatalf("dsn = %q, want %q", got, want)
	}
}
