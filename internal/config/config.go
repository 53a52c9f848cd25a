package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	Ops      OpsConfig      `mapstructure:"ops"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	Report   ReportConfig   `mapstructure:"report"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
}

// OpsConfig contains settings for the observability HTTP listener.
type OpsConfig struct {
	Port int `mapstructure:"port"`
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig contains connection options for Redis (task queue and pub/sub).
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint         string `mapstructure:"endpoint"`
	AccessKeyID      string `mapstructure:"access_key_id"`
	SecretAccessKey  string `mapstructure:"secret_access_key"`
	UseSSL           bool   `mapstructure:"use_ssl"`
	Bucket           string `mapstructure:"bucket"`
	AutoCreateBucket bool   `mapstructure:"auto_create_bucket"`
}

// GeminiConfig contains credentials for the external content generator.
type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	ModelID string `mapstructure:"model_id"`
}

// ReportConfig tunes the report assembly pipeline.
type ReportConfig struct {
	// GenerationBudget bounds the wall-clock time a single report may take.
	// Checked between pipeline stages; advisory rather than preemptive.
	GenerationBudget time.Duration `mapstructure:"generation_budget"`
	// BatchConcurrency bounds in-flight generations during batch mode.
	BatchConcurrency int `mapstructure:"batch_concurrency"`
	// Contract bounds for the analysis-report quality gate.
	MinArtifactBytes int64 `mapstructure:"min_artifact_bytes"`
	MaxArtifactBytes int64 `mapstructure:"max_artifact_bytes"`
	MinPageCount     int   `mapstructure:"min_page_count"`
	MaxPageCount     int   `mapstructure:"max_page_count"`
}

// MonitorConfig tunes the performance/quality monitoring engine.
type MonitorConfig struct {
	Retention     time.Duration `mapstructure:"retention"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Addr renders the host:port pair used by the Redis clients.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Load reads configuration solely from environment variables (with optional defaults).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ops.port", 8080)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "reportforge")
	v.SetDefault("database.user", "reportforge")
	v.SetDefault("database.password", "reportforge")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "reports")
	v.SetDefault("minio.auto_create_bucket", true)
	v.SetDefault("gemini.model_id", "gemini-2.5-flash")
	v.SetDefault("report.generation_budget", 30*time.Second)
	v.SetDefault("report.batch_concurrency", 3)
	v.SetDefault("report.min_artifact_bytes", 100*1024)
	v.SetDefault("report.max_artifact_bytes", 5*1024*1024)
	v.SetDefault("report.min_page_count", 2)
	v.SetDefault("report.max_page_count", 20)
	v.SetDefault("monitor.retention", 30*24*time.Hour)
	v.SetDefault("monitor.sweep_interval", time.Hour)
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"ops.port":                  "OPS_PORT",
		"database.host":             "DATABASE_HOST",
		"database.port":             "DATABASE_PORT",
		"database.name":             "POSTGRES_DB",
		"database.user":             "POSTGRES_USER",
		"database.password":         "POSTGRES_PASSWORD",
		"database.sslmode":          "DATABASE_SSLMODE",
		"redis.host":                "REDIS_HOST",
		"redis.port":                "REDIS_PORT",
		"minio.endpoint":            "MINIO_ENDPOINT",
		"minio.access_key_id":       "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":   "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":             "MINIO_USE_SSL",
		"minio.bucket":              "MINIO_BUCKET",
		"minio.auto_create_bucket":  "MINIO_AUTO_CREATE_BUCKET",
		"gemini.api_key":            "GEMINI_API_KEY",
		"gemini.model_id":           "GEMINI_MODEL_ID",
		"report.generation_budget":  "REPORT_GENERATION_BUDGET",
		"report.batch_concurrency":  "REPORT_BATCH_CONCURRENCY",
		"report.min_artifact_bytes": "REPORT_MIN_ARTIFACT_BYTES",
		"report.max_artifact_bytes": "REPORT_MAX_ARTIFACT_BYTES",
		"report.min_page_count":     "REPORT_MIN_PAGE_COUNT",
		"report.max_page_count":     "REPORT_MAX_PAGE_COUNT",
		"monitor.retention":         "MONITOR_RETENTION",
		"monitor.sweep_interval":    "MONITOR_SWEEP_INTERVAL",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.Ops.Port <= 0 {
		return errors.New("ops port must be positive")
	}
	if cfg.Database.Host == "" {
		return errors.New("database host is required")
	}
	if cfg.Database.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if cfg.Database.Name == "" {
		return errors.New("database name is required")
	}
	if cfg.Database.User == "" {
		return errors.New("database user is required")
	}
	if cfg.Database.Password == "" {
		return errors.New("database password is required")
	}
	if cfg.Database.SSLMode == "" {
		return errors.New("database sslmode is required")
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}
	if cfg.MinIO.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if cfg.MinIO.AccessKeyID == "" {
		return errors.New("minio access key id is required")
	}
	if cfg.MinIO.SecretAccessKey == "" {
		return errors.New("minio secret access key is required")
	}
	if cfg.MinIO.Bucket == "" {
		return errors.New("minio bucket is required")
	}
	if cfg.Report.GenerationBudget <= 0 {
		return errors.New("report generation budget must be positive")
	}
	if cfg.Report.BatchConcurrency <= 0 {
		return errors.New("report batch concurrency must be positive")
	}
	if cfg.Report.MinArtifactBytes >= cfg.Report.MaxArtifactBytes {
		return errors.New("report artifact byte bounds are inverted")
	}
	if cfg.Report.MinPageCount >= cfg.Report.MaxPageCount {
		return errors.New("report page count bounds are inverted")
	}
	if cfg.Monitor.Retention <= 0 {
		return errors.New("monitor retention must be positive")
	}
	if cfg.Monitor.SweepInterval <= 0 {
		return errors.New("monitor sweep interval must be positive")
	}
	return nil
}
