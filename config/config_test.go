package config

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentoffice/logging"
)

func clearEnv(t *testing.T) {
	t.Helper()

	for _, k := range []string{
		"OFFICE_PROVIDER", "OFFICE_MODEL", "DEFAULT_MODEL", "OFFICE_STREAMING", "OFFICE_LOG_PRETTY",
		"OFFICE_LOG_LEVEL", "OFFICE_ROSTER", "OFFICE_WATCH", "OFFICE_NOTES_DIR", "OFFICE_MAX_STEPS",
		"OFFICE_FOLLOW_UP_ROUNDS", "OFFICE_TOOL_TIMEOUT", "OFFICE_ADDR", "OLLAMA_HOST",
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "SERPAPI_API_KEY", "OFFICE_RUNNER_IMAGE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("agent-office", nil, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, ProviderOllama, cfg.Provider)
	assert.True(t, cfg.Streaming)
	assert.Equal(t, logging.LogLevelInfo, cfg.LogLevel)
	assert.Equal(t, 8, cfg.MaxSteps)
	assert.Equal(t, 0, cfg.FollowUpRounds)
	assert.Equal(t, 30*time.Second, cfg.ToolTimeout)
	assert.Equal(t, "http://localhost:11434", cfg.OllamaHost)
	assert.Equal(t, "./notes", cfg.NotesDir)
	assert.Empty(t, cfg.RosterPath)
}

func TestLoad_EnvAndFlags(t *testing.T) {
	clearEnv(t)
	t.Setenv("OFFICE_PROVIDER", "mock")
	t.Setenv("OFFICE_MAX_STEPS", "4")
	t.Setenv("OFFICE_LOG_LEVEL", "warn")

	cfg, err := Load("agent-office", []string{
		"--max-steps", "2",
		"--no-streaming",
		"--log-level", "debug",
		"--follow-up-rounds", "1",
		"--skip-check",
	}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, ProviderMock, cfg.Provider)
	assert.Equal(t, 2, cfg.MaxSteps)
	assert.False(t, cfg.Streaming)
	assert.Equal(t, logging.LogLevelDebug, cfg.LogLevel)
	assert.Equal(t, 1, cfg.FollowUpRounds)
	assert.True(t, cfg.SkipCheck)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load("agent-office", []string{"--provider", "openai"}, io.Discard)
	assert.ErrorIs(t, err, ErrMissingCredential)

	_, err = Load("agent-office", []string{"--provider", "carrier-pigeon"}, io.Discard)
	assert.ErrorContains(t, err, "unknown provider")

	_, err = Load("agent-office", []string{"--max-steps", "0"}, io.Discard)
	assert.ErrorContains(t, err, "max-steps")

	_, err = Load("agent-office", []string{"--log-level", "loud"}, io.Discard)
	assert.ErrorContains(t, err, "unknown log level")

	_, err = Load("agent-office", []string{"--no-such-flag"}, io.Discard)
	assert.Error(t, err)
}

func TestLoad_ProviderKeys(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := Load("agent-office", []string{"--provider", "Anthropic"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "sk-ant", cfg.AnthropicAPIKey)
}
