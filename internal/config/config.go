package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"

	"github.com/MimeLyc/dialogue-translator/internal/translator"
	"github.com/MimeLyc/dialogue-translator/pkg/log"
)

// Config holds all application configuration, read from environment
// variables (and an optional .env file) with sensible defaults.
//
// Environment Variables:
// Translation:
// - TRANSLATE_SKIP: honour the ignore list (default: true)
// - TRANSLATE_FIX: run the text-fix pipeline (default: true)
// - SOURCE_LANGUAGE: source language tag (default: ja)
// - TARGET_LANGUAGE: target language tag (default: zh)
// - NPC_CHANNELS: comma separated channel codes whose names are translated (default: 003D,0044,2AB9)
// - DICTIONARY_DIR: dictionary directory (default: nearest ancestor holding dictionary.yaml)
// - TRANSLATE_ENGINE: openai or echo (default: openai)
//
// LLM:
// - LLM_API_KEY: API key (required for the openai engine)
// - LLM_API_URL: API endpoint URL (default: https://api.openai.com/v1)
// - LLM_MODEL: model name (default: gpt-4o-mini)
// - LLM_TEMPERATURE: temperature (default: 0.3)
// - LLM_MAX_RETRIES: retries for retryable failures (default: 3)
//
// Cache:
// - CACHE_BACKEND: file, sqlite or redis (default: file)
// - CACHE_DIR: directory of the file backend (default: ./data)
// - CACHE_DB_PATH: sqlite database path (default: $CACHE_DIR/cache.db)
// - REDIS_URL: redis url for the redis backend
// - REDIS_PREFIX: redis key prefix (default: dialogue:)
// - CACHE_KEY: name of the learned-name segment (default: chTemp.json)
//
// Service:
// - INBOX_DIR: directory scanned for *.jsonl batches (default: ./inbox)
// - CRON_EXPR: scan schedule (default: */5 * * * *)
// - WORKER_CONCURRENCY: lines translated in parallel (default: 4)
//
// System:
// - LOG_LEVEL: debug, info, warn or error (default: info)
// - LOG_FILE: also write logs to this file (optional)
// - ENV_FILE: .env file to load (default: .env)
type Config struct {
	LLM       LLMConfig       `json:"llm"`
	Translate TranslateConfig `json:"translate"`
	Cache     CacheConfig     `json:"cache"`
	Service   ServiceConfig   `json:"service"`
	System    SystemConfig    `json:"system"`
}

type TranslateConfig struct {
	Skip           bool         `json:"skip"`
	Fix            bool         `json:"fix"`
	SourceLanguage language.Tag `json:"source_language"`
	TargetLanguage language.Tag `json:"target_language"`
	NPCChannels    []string     `json:"npc_channels"`
	DictionaryDir  string       `json:"dictionary_dir"`
	Engine         string       `json:"engine"`
}

// LLMConfig holds the configuration of an OpenAI compatible backend.
type LLMConfig struct {
	APIKey      string  `json:"-"`
	APIURL      string  `json:"api_url"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxRetries  int     `json:"max_retries"`
}

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"

	EngineOpenAI = "openai"
	EngineEcho   = "echo"
)

type CacheConfig struct {
	Backend     string `json:"backend"`
	Dir         string `json:"dir"`
	DBPath      string `json:"db_path"`
	RedisURL    string `json:"-"`
	RedisPrefix string `json:"redis_prefix"`
	Key         string `json:"key"`
}

type ServiceConfig struct {
	InboxDir    string `json:"inbox_dir"`
	CronExpr    string `json:"cron_expr"`
	Concurrency int    `json:"concurrency"`
}

type SystemConfig struct {
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	if err := loadDotEnv(getEnvString("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	cacheDir := getEnvString("CACHE_DIR", "./data")
	config := &Config{
		LLM: LLMConfig{
			APIKey:      getEnvString("LLM_API_KEY", ""),
			APIURL:      getEnvString("LLM_API_URL", "https://api.openai.com/v1"),
			Model:       getEnvString("LLM_MODEL", "gpt-4o-mini"),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.3),
			MaxRetries:  getEnvInt("LLM_MAX_RETRIES", 3),
		},
		Translate: TranslateConfig{
			Skip:           getEnvBool("TRANSLATE_SKIP", true),
			Fix:            getEnvBool("TRANSLATE_FIX", true),
			SourceLanguage: getEnvLanguage("SOURCE_LANGUAGE", language.Japanese),
			TargetLanguage: getEnvLanguage("TARGET_LANGUAGE", language.Chinese),
			NPCChannels:    getEnvList("NPC_CHANNELS", []string{"003D", "0044", "2AB9"}),
			DictionaryDir:  getEnvString("DICTIONARY_DIR", ""),
			Engine:         strings.ToLower(getEnvString("TRANSLATE_ENGINE", EngineOpenAI)),
		},
		Cache: CacheConfig{
			Backend:     strings.ToLower(getEnvString("CACHE_BACKEND", BackendFile)),
			Dir:         cacheDir,
			DBPath:      getEnvString("CACHE_DB_PATH", filepath.Join(cacheDir, "cache.db")),
			RedisURL:    getEnvString("REDIS_URL", ""),
			RedisPrefix: getEnvString("REDIS_PREFIX", "dialogue:"),
			Key:         getEnvString("CACHE_KEY", "chTemp.json"),
		},
		Service: ServiceConfig{
			InboxDir:    getEnvString("INBOX_DIR", "./inbox"),
			CronExpr:    getEnvString("CRON_EXPR", "*/5 * * * *"),
			Concurrency: getEnvInt("WORKER_CONCURRENCY", 4),
		},
		System: SystemConfig{
			LogLevel: getEnvString("LOG_LEVEL", "info"),
			LogFile:  getEnvString("LOG_FILE", ""),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	log.Info("Config: %+v", *config)

	// Validate required configuration
	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// TranslateOptions returns the per-call flags for the translator and pipeline.
func (c *Config) TranslateOptions() translator.Options {
	return translator.Options{
		Skip:       c.Translate.Skip,
		Fix:        c.Translate.Fix,
		SourceLang: c.Translate.SourceLanguage,
		TargetLang: c.Translate.TargetLanguage,
	}
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	switch c.Translate.Engine {
	case EngineOpenAI:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("LLM_API_KEY is required")
		}
	case EngineEcho:
	default:
		return fmt.Errorf("unknown TRANSLATE_ENGINE %q", c.Translate.Engine)
	}

	switch c.Cache.Backend {
	case BackendFile:
		if strings.TrimSpace(c.Cache.Dir) == "" {
			return fmt.Errorf("CACHE_DIR is required")
		}
	case BackendSQLite:
		if strings.TrimSpace(c.Cache.DBPath) == "" {
			return fmt.Errorf("CACHE_DB_PATH is required")
		}
	case BackendRedis:
		if strings.TrimSpace(c.Cache.RedisURL) == "" {
			return fmt.Errorf("REDIS_URL is required")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend)
	}

	if _, err := cron.ParseStandard(c.Service.CronExpr); err != nil {
		return fmt.Errorf("invalid CRON_EXPR: %w", err)
	}
	if c.Service.Concurrency <= 0 {
		return fmt.Errorf("WORKER_CONCURRENCY must be positive")
	}
	return nil
}

// loadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean value from environment variables with default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvLanguage gets a BCP 47 language tag from environment variables with default
func getEnvLanguage(key string, defaultValue language.Tag) language.Tag {
	if value := os.Getenv(key); value != "" {
		if tag, err := language.Parse(value); err == nil {
			return tag
		}
		log.Warn("Ignoring invalid %s %q", key, value)
	}
	return defaultValue
}

// getEnvList gets a comma separated list from environment variables with default
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	ret := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			ret = append(ret, item)
		}
	}
	return ret
}
