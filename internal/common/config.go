package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	LLM      LLMConfig      `toml:"llm"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Auth     AuthConfig     `toml:"auth"`
	Log      LogConfig      `toml:"log"`
}

// DatabaseConfig holds database-related configuration.
// DSN selects Postgres; when empty the daemon uses SQLite at SQLitePath.
type DatabaseConfig struct {
	DSN              string   `toml:"dsn"`
	SQLitePath       string   `toml:"sqlite_path"`
	MaxConns         int32    `toml:"max_conns"`
	MinConns         int32    `toml:"min_conns"`
	MaxConnLifetime  Duration `toml:"max_conn_lifetime"`
	MaxConnIdleTime  Duration `toml:"max_conn_idle_time"`
	DialTimeout      Duration `toml:"dial_timeout"`
	StatementTimeout Duration `toml:"statement_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string `toml:"grpc_addr"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	BaseURL     string   `toml:"base_url"`
	Model       string   `toml:"model"`
	APIKey      string   `toml:"api_key"`
	Temperature float32  `toml:"temperature"`
	Timeout     Duration `toml:"timeout"`
}

// PipelineConfig controls the extraction worker pool and job lifecycle.
type PipelineConfig struct {
	Workers                  int      `toml:"workers"`
	QueueSize                int      `toml:"queue_size"`
	JobTimeout               Duration `toml:"job_timeout"`
	InvokeAttempts           int      `toml:"invoke_attempts"`
	CommitAttempts           int      `toml:"commit_attempts"`
	StuckAfter               Duration `toml:"stuck_after"`
	ReaperInterval           Duration `toml:"reaper_interval"`
	RequireProcessedEvidence bool     `toml:"require_processed_evidence"`
}

// AuthConfig holds JWT settings.
type AuthConfig struct {
	Secret   string   `toml:"secret"`
	TokenTTL Duration `toml:"token_ttl"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text | json | auto
}

// Duration is a time.Duration that decodes from TOML strings like "45s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// D wraps a time.Duration.
func D(v time.Duration) Duration {
	return Duration{Duration: v}
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			SQLitePath:      "./tmp/custody.db",
			MaxConns:        20,
			MinConns:        5,
			MaxConnLifetime: D(30 * time.Minute),
			MaxConnIdleTime: D(5 * time.Minute),
			DialTimeout:     D(3 * time.Second),
		},
		Server: ServerConfig{
			GRPCAddr: ":8080",
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Temperature: 0.0,
			Timeout:     D(45 * time.Second),
		},
		Pipeline: PipelineConfig{
			Workers:                  4,
			QueueSize:                256,
			JobTimeout:               D(3 * time.Minute),
			InvokeAttempts:           3,
			CommitAttempts:           3,
			StuckAfter:               D(10 * time.Minute),
			ReaperInterval:           D(time.Minute),
			RequireProcessedEvidence: true,
		},
		Auth: AuthConfig{
			TokenTTL: D(24 * time.Hour),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads defaults, then the optional TOML file at path, then environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = os.Getenv("CUSTODY_CONFIG")
	}
	if path != "" {
		file, err := os.Open(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, NewAppError(CodeConfig, "config file not found: "+path, ErrInvalidInput)
		case err != nil:
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer func() { _ = file.Close() }()

		if err := toml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, NewAppError(CodeConfig, "parse config", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Database.DSN = getEnv("DB_URL", c.Database.DSN)
	c.Database.SQLitePath = getEnv("SQLITE_PATH", c.Database.SQLitePath)
	c.Database.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Database.MaxConnLifetime)
	c.Database.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", c.Database.MaxConnIdleTime)
	c.Database.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout)
	c.Database.StatementTimeout = getEnvAsDuration("DB_STATEMENT_TIMEOUT", c.Database.StatementTimeout)

	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)

	c.LLM.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.BaseURL)
	c.LLM.Model = getEnv("OPENAI_MODEL", c.LLM.Model)
	c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
	c.LLM.Temperature = getEnvAsFloat32("OPENAI_TEMPERATURE", c.LLM.Temperature)
	c.LLM.Timeout = getEnvAsDuration("OPENAI_TIMEOUT", c.LLM.Timeout)

	c.Pipeline.Workers = getEnvAsInt("PIPELINE_WORKERS", c.Pipeline.Workers)
	c.Pipeline.QueueSize = getEnvAsInt("PIPELINE_QUEUE_SIZE", c.Pipeline.QueueSize)
	c.Pipeline.JobTimeout = getEnvAsDuration("PIPELINE_JOB_TIMEOUT", c.Pipeline.JobTimeout)
	c.Pipeline.InvokeAttempts = getEnvAsInt("PIPELINE_INVOKE_ATTEMPTS", c.Pipeline.InvokeAttempts)
	c.Pipeline.CommitAttempts = getEnvAsInt("PIPELINE_COMMIT_ATTEMPTS", c.Pipeline.CommitAttempts)
	c.Pipeline.StuckAfter = getEnvAsDuration("PIPELINE_STUCK_AFTER", c.Pipeline.StuckAfter)
	c.Pipeline.ReaperInterval = getEnvAsDuration("PIPELINE_REAPER_INTERVAL", c.Pipeline.ReaperInterval)
	c.Pipeline.RequireProcessedEvidence = getEnvAsBool("PIPELINE_REQUIRE_PROCESSED_EVIDENCE", c.Pipeline.RequireProcessedEvidence)

	c.Auth.Secret = getEnv("JWT_SECRET", c.Auth.Secret)
	c.Auth.TokenTTL = getEnvAsDuration("JWT_TTL", c.Auth.TokenTTL)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue Duration) Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return D(duration)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" && c.Database.SQLitePath == "" {
		return NewAppError(CodeConfig, "DB_URL or SQLITE_PATH is required", ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError(CodeConfig, "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError(CodeConfig, "GRPC_ADDR is required", ErrInvalidInput)
	}
	if c.Auth.Secret == "" {
		return NewAppError(CodeConfig, "JWT_SECRET is required", ErrInvalidInput)
	}
	if c.Pipeline.Workers <= 0 {
		return NewAppError(CodeConfig, "pipeline.workers must be positive", ErrInvalidInput)
	}
	if c.Pipeline.InvokeAttempts <= 0 || c.Pipeline.CommitAttempts <= 0 {
		return NewAppError(CodeConfig, "pipeline attempts must be positive", ErrInvalidInput)
	}
	if c.LLM.Timeout.Duration <= 0 {
		return NewAppError(CodeConfig, "llm.timeout must be positive", ErrInvalidInput)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json", "auto":
	default:
		return NewAppError(CodeConfig, "log.format must be text, json or auto", ErrInvalidInput)
	}
	if c.Server.GRPCAddr != "" && !strings.Contains(c.Server.GRPCAddr, ":") {
		c.Server.GRPCAddr = ":" + c.Server.GRPCAddr
	}
	return nil
}
