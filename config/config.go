// Package config loads runtime settings for the office binaries: a .env
// file, environment variables and command line flags, plus the agent roster.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/hupe1980/agentoffice/logging"
)

// Providers accepted by --provider.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)

// DefaultOllamaModel is used when the provider is ollama and no model is set.
const DefaultOllamaModel = "llama3.1"

// Config is the resolved runtime configuration.
type Config struct {
	Provider  string
	Model     string
	Streaming bool

	LogLevel  logging.LogLevel
	LogPretty bool

	RosterPath string
	Watch      bool
	NotesDir   string

	MaxSteps       int
	FollowUpRounds int
	ToolTimeout    time.Duration

	SkipCheck  bool
	ListModels bool

	// Addr is the listen address of the HTTP server.
	Addr string

	OllamaHost      string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	GeminiAPIKey    string
	SerpAPIKey      string
	RunnerImage     string
}

// Load reads .env (if present), the environment and then args. Flags win
// over environment variables. name is used in usage output.
func Load(name string, args []string, output io.Writer) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Provider:        getEnv("OFFICE_PROVIDER", ProviderOllama),
		Model:           getEnv("OFFICE_MODEL", getEnv("DEFAULT_MODEL", "")),
		Streaming:       getBoolEnv("OFFICE_STREAMING", true),
		LogPretty:       getBoolEnv("OFFICE_LOG_PRETTY", true),
		RosterPath:      getEnv("OFFICE_ROSTER", ""),
		Watch:           getBoolEnv("OFFICE_WATCH", false),
		NotesDir:        getEnv("OFFICE_NOTES_DIR", "./notes"),
		MaxSteps:        getIntEnv("OFFICE_MAX_STEPS", 8),
		FollowUpRounds:  getIntEnv("OFFICE_FOLLOW_UP_ROUNDS", 0),
		ToolTimeout:     getDurationEnv("OFFICE_TOOL_TIMEOUT", 30*time.Second),
		Addr:            getEnv("OFFICE_ADDR", ":8080"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		SerpAPIKey:      getEnv("SERPAPI_API_KEY", ""),
		RunnerImage:     getEnv("OFFICE_RUNNER_IMAGE", "python:3.12-slim"),
	}

	level := getEnv("OFFICE_LOG_LEVEL", "info")
	noStreaming := !cfg.Streaming

	fsFlags := flag.NewFlagSet(name, flag.ContinueOnError)
	if output != nil {
		fsFlags.SetOutput(output)
	}

	fsFlags.StringVar(&cfg.Provider, "provider", cfg.Provider, "model provider: ollama, openai, anthropic, gemini or mock")
	fsFlags.StringVar(&cfg.Model, "model", cfg.Model, "model identifier (provider default when empty)")
	fsFlags.BoolVar(&noStreaming, "no-streaming", noStreaming, "disable token streaming")
	fsFlags.StringVar(&level, "log-level", level, "log level: debug, info, warn or error")
	fsFlags.BoolVar(&cfg.LogPretty, "log-pretty", cfg.LogPretty, "human readable logs")
	fsFlags.StringVar(&cfg.RosterPath, "roster", cfg.RosterPath, "roster YAML file (built-in roster when empty)")
	fsFlags.BoolVar(&cfg.Watch, "watch", cfg.Watch, "reload personas when the roster file changes")
	fsFlags.StringVar(&cfg.NotesDir, "notes-dir", cfg.NotesDir, "root directory for agent notes")
	fsFlags.IntVar(&cfg.MaxSteps, "max-steps", cfg.MaxSteps, "maximum tool steps per agent turn")
	fsFlags.IntVar(&cfg.FollowUpRounds, "follow-up-rounds", cfg.FollowUpRounds, "extra passes for agents addressed during a round")
	fsFlags.DurationVar(&cfg.ToolTimeout, "tool-timeout", cfg.ToolTimeout, "timeout for a single tool call")
	fsFlags.BoolVar(&cfg.SkipCheck, "skip-check", cfg.SkipCheck, "skip the model availability check")
	fsFlags.BoolVar(&cfg.ListModels, "list-models", cfg.ListModels, "list the provider's models and exit")
	fsFlags.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")

	if err := fsFlags.Parse(args); err != nil {
		return nil, err
	}

	cfg.Streaming = !noStreaming

	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = lvl

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges and provider requirements.
func (c *Config) Validate() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))

	switch c.Provider {
	case ProviderOllama, ProviderMock:
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY", ErrMissingCredential)
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("%w: ANTHROPIC_API_KEY", ErrMissingCredential)
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingCredential)
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	if c.MaxSteps < 1 {
		return fmt.Errorf("max-steps must be at least 1, got %d", c.MaxSteps)
	}

	if c.FollowUpRounds < 0 {
		return fmt.Errorf("follow-up-rounds must not be negative, got %d", c.FollowUpRounds)
	}

	if c.ToolTimeout <= 0 {
		return fmt.Errorf("tool-timeout must be positive, got %s", c.ToolTimeout)
	}

	return nil
}

// Logger builds the zerolog backed logger described by the config.
func (c *Config) Logger() logging.Logger {
	return logging.NewZerolog(func(zc *logging.ZerologConfig) {
		zc.Level = c.LogLevel
		zc.Pretty = c.LogPretty
	})
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}

	return b
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}

	return d
}
