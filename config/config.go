package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"narrative_framework/logging"
)

// Config holds settings derived from environment variables, an optional
// config file and built-in defaults, in that order of precedence.
type Config struct {
	InboxDir          string
	OutboxDir         string
	JobQueueSize      int
	WorkerCount       int
	JobTimeoutSec     int
	LogLevel          string
	MetricsTextfile   string
	ConfigPath        string
	PhrasesConfigPath string
	Phrases           PhraseConfig
	Embedding         EmbeddingConfig
	StrictConfig      bool
}

// EmbeddingConfig controls the optional sentence-embedding collaborator.
type EmbeddingConfig struct {
	Enabled      bool
	BaseURL      string
	Model        string
	APIKey       string
	TimeoutSec   int
	LoadAttempts int
}

type fileConfig struct {
	InboxDir        string              `json:"inbox_dir" yaml:"inbox_dir"`
	OutboxDir       string              `json:"outbox_dir" yaml:"outbox_dir"`
	LogLevel        string              `json:"log_level" yaml:"log_level"`
	MetricsTextfile string              `json:"metrics_textfile" yaml:"metrics_textfile"`
	Embedding       embeddingFileConfig `json:"embedding" yaml:"embedding"`
}

type embeddingFileConfig struct {
	Enabled    *bool  `json:"enabled" yaml:"enabled"`
	BaseURL    string `json:"base_url" yaml:"base_url"`
	Model      string `json:"model" yaml:"model"`
	TimeoutSec *int   `json:"timeout_sec" yaml:"timeout_sec"`
}

const (
	defaultInboxDir         = "runtime/inbox"
	defaultOutboxDir        = "runtime/narratives"
	defaultLogLevel         = "info"
	minQueueSize            = 1
	defaultQueueSize        = 100
	maxQueueSize            = 1024
	defaultWorkerCount      = 4
	defaultJobTimeoutSec    = 30
	defaultEmbedTimeoutSec  = 5
	defaultEmbedAttempts    = 3
	defaultEmbeddingBaseURL = "https://api.openai.com"
	defaultEmbeddingModel   = "text-embedding-3-small"
)

// Load reads configuration from environment variables and applies sane defaults.
func Load() (Config, error) {
	log := logging.Default()
	cfg := Config{
		JobQueueSize:  defaultQueueSize,
		WorkerCount:   defaultWorkerCount,
		JobTimeoutSec: defaultJobTimeoutSec,
		StrictConfig:  parseBoolEnv("STRICT_CONFIG"),
		Embedding: EmbeddingConfig{
			TimeoutSec:   defaultEmbedTimeoutSec,
			LoadAttempts: defaultEmbedAttempts,
		},
	}

	configPath := getEnv("CONFIG_PATH", filepath.Join("config", "config.yaml"))
	phrasesPath := getEnv("PHRASES_CONFIG_PATH", configPath)
	cfg.ConfigPath = configPath
	cfg.PhrasesConfigPath = phrasesPath

	fileCfg, fileErr := loadFileConfig(configPath)
	if fileErr != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("config load failed (%s): %w", configPath, fileErr)
		}
		log.Debug("config file not loaded, using defaults", "path", configPath, "error", fileErr.Error())
	}

	cfg.InboxDir = firstNonEmpty(os.Getenv("INBOX_DIR"), fileCfg.InboxDir, defaultInboxDir)
	cfg.OutboxDir = firstNonEmpty(os.Getenv("OUTBOX_DIR"), fileCfg.OutboxDir, defaultOutboxDir)
	cfg.LogLevel = strings.ToLower(firstNonEmpty(os.Getenv("LOG_LEVEL"), fileCfg.LogLevel, defaultLogLevel))
	cfg.MetricsTextfile = firstNonEmpty(os.Getenv("METRICS_TEXTFILE"), fileCfg.MetricsTextfile)

	if v := os.Getenv("WORKER_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Warn("invalid WORKER_COUNT, using default", "value", v, "default", defaultWorkerCount)
			n = defaultWorkerCount
		}
		if n <= 0 {
			log.Warn("WORKER_COUNT must be positive, using default", "value", n, "default", defaultWorkerCount)
			n = defaultWorkerCount
		}
		cfg.WorkerCount = n
	}

	if v := os.Getenv("JOB_QUEUE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Warn("invalid JOB_QUEUE_SIZE, using default", "value", v, "default", defaultQueueSize)
			n = defaultQueueSize
		}
		if n < minQueueSize {
			log.Warn("JOB_QUEUE_SIZE raised to minimum", "value", n, "min", minQueueSize)
			n = minQueueSize
		}
		if n > maxQueueSize {
			log.Warn("JOB_QUEUE_SIZE capped", "value", n, "max", maxQueueSize)
			n = maxQueueSize
		}
		cfg.JobQueueSize = n
	}

	if cfg.JobQueueSize < cfg.WorkerCount {
		log.Warn("JOB_QUEUE_SIZE must be >= WORKER_COUNT, using default", "default", defaultQueueSize)
		cfg.JobQueueSize = max(defaultQueueSize, cfg.WorkerCount)
	}

	if v := os.Getenv("JOB_TIMEOUT_SEC"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid JOB_TIMEOUT_SEC: %w", err)
		}
		if n <= 0 {
			return cfg, fmt.Errorf("JOB_TIMEOUT_SEC must be positive")
		}
		cfg.JobTimeoutSec = n
	}

	if err := applyEmbedding(&cfg, fileCfg.Embedding); err != nil {
		if cfg.StrictConfig {
			return cfg, err
		}
		log.Warn("embedding config invalid, using defaults", "error", err.Error())
	}

	phrases, err := LoadPhraseConfig(phrasesPath)
	if err != nil {
		if cfg.StrictConfig && phrasesPath != configPath {
			return cfg, fmt.Errorf("phrase config load failed (%s): %w", phrasesPath, err)
		}
		log.Debug("phrase config not loaded, using defaults", "path", phrasesPath, "error", err.Error())
		phrases = DefaultPhraseConfig()
	}
	cfg.Phrases = phrases

	if err := validateConfig(cfg); err != nil {
		if cfg.StrictConfig {
			return cfg, err
		}
		log.Warn("config validation failed, continuing", "error", err.Error())
	}

	return cfg, nil
}

func applyEmbedding(cfg *Config, file embeddingFileConfig) error {
	e := &cfg.Embedding
	if file.Enabled != nil {
		e.Enabled = *file.Enabled
	}
	if strings.TrimSpace(os.Getenv("EMBEDDING_ENABLED")) != "" {
		e.Enabled = parseBoolEnv("EMBEDDING_ENABLED")
	}
	e.BaseURL = strings.TrimRight(firstNonEmpty(os.Getenv("EMBEDDING_BASE_URL"), os.Getenv("OPENAI_BASE_URL"), file.BaseURL, defaultEmbeddingBaseURL), "/")
	e.Model = firstNonEmpty(os.Getenv("EMBEDDING_MODEL"), file.Model, defaultEmbeddingModel)
	e.APIKey = firstNonEmpty(os.Getenv("EMBEDDING_API_KEY"), os.Getenv("OPENAI_API_KEY"))
	if file.TimeoutSec != nil && *file.TimeoutSec > 0 {
		e.TimeoutSec = *file.TimeoutSec
	}
	if v, ok, err := parseIntEnv("EMBEDDING_TIMEOUT_SEC"); err != nil {
		return fmt.Errorf("invalid EMBEDDING_TIMEOUT_SEC: %w", err)
	} else if ok && v > 0 {
		e.TimeoutSec = v
	}
	if v, ok, err := parseIntEnv("EMBEDDING_LOAD_ATTEMPTS"); err != nil {
		return fmt.Errorf("invalid EMBEDDING_LOAD_ATTEMPTS: %w", err)
	} else if ok && v > 0 {
		e.LoadAttempts = v
	}
	return nil
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if len(data) == 0 {
		return cfg, errors.New("empty config file")
	}
	if err := unmarshalByExt(path, data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func unmarshalByExt(path string, data []byte, out any) error {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return json.Unmarshal(data, out)
	}
	return yaml.Unmarshal(data, out)
}

func validateConfig(cfg Config) error {
	var errs []error
	if strings.TrimSpace(cfg.InboxDir) == "" {
		errs = append(errs, errors.New("INBOX_DIR is required"))
	}
	if strings.TrimSpace(cfg.OutboxDir) == "" {
		errs = append(errs, errors.New("OUTBOX_DIR is required"))
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", cfg.LogLevel))
	}
	if cfg.Embedding.Enabled && strings.TrimSpace(cfg.Embedding.APIKey) == "" {
		errs = append(errs, errors.New("embedding enabled but EMBEDDING_API_KEY/OPENAI_API_KEY is not set"))
	}
	return errors.Join(errs...)
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return val
		}
	}
	return ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseIntEnv(key string) (int, bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false, nil
	}
	val, err := strconv.Atoi(raw)
	return val, true, err
}
