// Package config reads oaskeyguard settings from the environment.
//
// Settings are read once, by Load, and passed explicitly to the commands,
// the MCP server, and the shell. Invalid values log a warning and fall back
// to the default.
package config

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/moenvlab/oaskeyguard/oaserrors"
)

// Environment variable names.
const (
	EnvModelName     = "LITELLM_MODEL_NAME"
	EnvAPIBase       = "LITELLM_API_BASE"
	EnvAPIKey        = "LITELLM_API_KEY"
	EnvDataKey       = "MOENV_API_KEY"
	EnvFullLog       = "OASKEYGUARD_FULL_LOG"
	EnvLogFile       = "OASKEYGUARD_LOG_FILE"
	EnvLogLevel      = "OASKEYGUARD_LOG_LEVEL"
	EnvSpec          = "OASKEYGUARD_SPEC"
	EnvMaxInlineSize = "OASKEYGUARD_MAX_INLINE_SIZE"
)

// Defaults.
const (
	DefaultModelName     = "openai/gpt-3.5-turbo"
	DefaultLogFile       = "oaskeyguard-events.jsonl"
	DefaultSpec          = "moenv_openapi.yaml"
	DefaultMaxInlineSize = 10 * 1024 * 1024
)

// Config holds every setting.
type Config struct {
	// Model routing of the agent that consumes the tools. The MCP server
	// reports it at startup; nothing here calls the model.
	ModelName string
	APIBase   string
	APIKey    string

	// DataKeyEnv names the variable that holds the data-platform API key.
	// The key itself is read by toolset.CredentialFromEnv when needed.
	DataKeyEnv string

	// FullLog enables the JSON-lines fix log at LogFile.
	FullLog  bool
	LogFile  string
	LogLevel slog.Level

	// Spec is the default document path.
	Spec string

	// MaxInlineSize caps inline content accepted by the MCP server, in bytes.
	MaxInlineSize int64
}

// Load reads the configuration from the environment.
func Load() *Config {
	return &Config{
		ModelName:     envString(EnvModelName, DefaultModelName),
		APIBase:       envString(EnvAPIBase, ""),
		APIKey:        envString(EnvAPIKey, ""),
		DataKeyEnv:    EnvDataKey,
		FullLog:       envBool(EnvFullLog, false),
		LogFile:       envString(EnvLogFile, DefaultLogFile),
		LogLevel:      envLevel(EnvLogLevel, slog.LevelInfo),
		Spec:          envString(EnvSpec, DefaultSpec),
		MaxInlineSize: envInt64(EnvMaxInlineSize, DefaultMaxInlineSize),
	}
}

// RequireDataKey returns a *oaserrors.ConfigError when the data-platform key
// is not set.
func (c *Config) RequireDataKey() error {
	if strings.TrimSpace(os.Getenv(c.DataKeyEnv)) == "" {
		return &oaserrors.ConfigError{
			Option:  c.DataKeyEnv,
			Message: "environment variable is required",
		}
	}
	return nil
}

// NewLogger returns a text logger writing to w at the configured level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid bool env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return b
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return n
}

// envLevel accepts the names slog understands (debug, info, warn, error),
// case-insensitively.
func envLevel(key string, fallback slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		slog.Warn("invalid log level env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return level
}
