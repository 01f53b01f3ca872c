package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config location relative to the working directory.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"logLevel"`

	DatabaseURL string `yaml:"databaseURL"`

	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	MinioEndpoint  string `yaml:"minioEndpoint"`
	MinioAccessKey string `yaml:"minioAccessKey"`
	MinioSecretKey string `yaml:"minioSecretKey"`
	MinioBucket    string `yaml:"minioBucket"`
	MinioUseSSL    bool   `yaml:"minioUseSSL"`

	FreepikBaseURL string `yaml:"freepikBaseURL"`
	FreepikAPIKey  string `yaml:"freepikAPIKey"`

	// Optional YAML file overriding the built-in platform specs.
	PlatformSpecPath string `yaml:"platformSpecPath"`

	QueueStream       string `yaml:"queueStream"`
	QueueGroup        string `yaml:"queueGroup"`
	WorkerConcurrency int    `yaml:"workerConcurrency"`

	EventsChannel string `yaml:"eventsChannel"`

	ProfileCacheTTL time.Duration `yaml:"profileCacheTTL"`

	// External API governor limits, applied per (org, provider) pair.
	GovernorRatePerMinute  int     `yaml:"governorRatePerMinute"`
	GovernorDailyQuota     int     `yaml:"governorDailyQuota"`
	GovernorDailyCostLimit float64 `yaml:"governorDailyCostLimit"`

	// HTTP rate limit on submissions, per client IP.
	SubmitRateLimit  int           `yaml:"submitRateLimit"`
	SubmitRateWindow time.Duration `yaml:"submitRateWindow"`

	EscalationSweepInterval time.Duration `yaml:"escalationSweepInterval"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = v
	}
	if v := os.Getenv("MINIO_USE_SSL"); v == "true" {
		cfg.MinioUseSSL = true
	}
	if v := os.Getenv("FREEPIK_API_KEY"); v != "" {
		cfg.FreepikAPIKey = v
	}
	if v := os.Getenv("CONTENT_WORKER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WorkerConcurrency = n
		}
	}
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *FileConfig) {
	if cfg.QueueStream == "" {
		cfg.QueueStream = "adapt_jobs"
	}
	if cfg.QueueGroup == "" {
		cfg.QueueGroup = "content_workers"
	}
	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = 4
	}
	if cfg.ProfileCacheTTL <= 0 {
		cfg.ProfileCacheTTL = 10 * time.Minute
	}
	if cfg.GovernorRatePerMinute <= 0 {
		cfg.GovernorRatePerMinute = 60
	}
	if cfg.GovernorDailyQuota <= 0 {
		cfg.GovernorDailyQuota = 100
	}
	if cfg.GovernorDailyCostLimit <= 0 {
		cfg.GovernorDailyCostLimit = 25.0
	}
	if cfg.SubmitRateLimit <= 0 {
		cfg.SubmitRateLimit = 30
	}
	if cfg.SubmitRateWindow <= 0 {
		cfg.SubmitRateWindow = time.Minute
	}
	if cfg.EscalationSweepInterval <= 0 {
		cfg.EscalationSweepInterval = time.Minute
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	if cfg.RedisAddr == "" {
		return errors.New("config: redisAddr is required (set in config.yaml or REDIS_ADDR)")
	}
	if cfg.MinioEndpoint == "" {
		return errors.New("config: minioEndpoint is required (set in config.yaml)")
	}
	if cfg.MinioAccessKey == "" {
		return errors.New("config: minioAccessKey is required (set in config.yaml)")
	}
	if cfg.MinioSecretKey == "" {
		return errors.New("config: minioSecretKey is required (set in config.yaml)")
	}
	if cfg.MinioBucket == "" {
		return errors.New("config: minioBucket is required (set in config.yaml)")
	}
	if cfg.FreepikBaseURL == "" {
		return errors.New("config: freepikBaseURL is required (set in config.yaml)")
	}
	if cfg.FreepikAPIKey == "" {
		return errors.New("config: freepikAPIKey is required (set in config.yaml or FREEPIK_API_KEY)")
	}
	return nil
}
