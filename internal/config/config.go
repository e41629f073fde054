// Package config loads runtime configuration from the environment with an
// optional YAML overlay file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LLM provider identifiers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection (empty URL selects the in-memory store)
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"surrealdb_pass"`
	SurrealDBAuthLevel string `yaml:"surrealdb_auth_level"`

	// LLM ports
	LLMProvider     string `yaml:"llm_provider"`
	LLMModel        string `yaml:"llm_model"`
	OpenAIAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`
	OllamaHost      string `yaml:"ollama_host"`

	// Dialogue tuning
	CompletionThreshold  float64  `yaml:"completion_threshold"`
	MaxFollowUps         int      `yaml:"max_follow_ups"`
	MaxFieldsPerQuestion int      `yaml:"max_fields_per_question"`
	Modifiers            []string `yaml:"modifiers"`

	// Medication pipeline
	TesseractCmd string `yaml:"tesseract_cmd"`
	LabelDir     string `yaml:"label_dir"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`
}

// Defaults returns the built-in configuration values.
func Defaults() Config {
	return Config{
		SurrealDBNamespace: "intake",
		SurrealDBDatabase:  "threads",
		SurrealDBUser:      "root",
		SurrealDBPass:      "root",
		SurrealDBAuthLevel: "root",

		LLMProvider: ProviderOpenAI,
		LLMModel:    "gpt-4o",
		OllamaHost:  "http://localhost:11434",

		CompletionThreshold:  0.4,
		MaxFollowUps:         3,
		MaxFieldsPerQuestion: 2,

		TesseractCmd: "tesseract",
		LabelDir:     "data/drug_labels",

		LogLevel: slog.LevelInfo,
	}
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	cfg := Defaults()
	applyEnv(&cfg)
	return cfg
}

// LoadWithFile layers configuration: built-in defaults, then the YAML file,
// then environment variables. Set environment variables always win over the
// file.
func LoadWithFile(path string) (Config, error) {
	cfg := Defaults()
	if err := LoadFile(&cfg, path); err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

// LoadFile overlays a YAML config file onto cfg. Missing file is not an
// error; a malformed one is.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides cfg with any environment variables that are set.
func applyEnv(cfg *Config) {
	setEnv(&cfg.SurrealDBURL, "INTAKE_DB_URL")
	setEnv(&cfg.SurrealDBNamespace, "INTAKE_DB_NAMESPACE")
	setEnv(&cfg.SurrealDBDatabase, "INTAKE_DB_DATABASE")
	setEnv(&cfg.SurrealDBUser, "INTAKE_DB_USER")
	setEnv(&cfg.SurrealDBPass, "INTAKE_DB_PASS")
	setEnv(&cfg.SurrealDBAuthLevel, "INTAKE_DB_AUTH_LEVEL")

	setEnv(&cfg.LLMProvider, "INTAKE_LLM_PROVIDER")
	setEnv(&cfg.LLMModel, "INTAKE_LLM_MODEL")
	setEnv(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	setEnv(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setEnv(&cfg.OllamaHost, "OLLAMA_HOST")

	setEnvFloat(&cfg.CompletionThreshold, "INTAKE_COMPLETION_THRESHOLD")
	setEnvInt(&cfg.MaxFollowUps, "INTAKE_MAX_FOLLOW_UPS")
	setEnvInt(&cfg.MaxFieldsPerQuestion, "INTAKE_MAX_FIELDS_PER_QUESTION")

	setEnv(&cfg.TesseractCmd, "TESSERACT_CMD")
	setEnv(&cfg.LabelDir, "INTAKE_LABEL_DIR")

	setEnv(&cfg.LogFile, "INTAKE_LOG_FILE")
	if val := os.Getenv("INTAKE_LOG_LEVEL"); val != "" {
		cfg.LogLevel = parseLogLevel(val)
	}
}

func setEnv(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setEnvInt(dst *int, key string) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func setEnvFloat(dst *float64, key string) {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
