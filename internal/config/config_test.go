package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCmd(configPath string) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("config", configPath, "")
	cmd.Flags().String("log_level", DefaultLogLevel, "")
	return cmd
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultJulesBaseURL, cfg.Jules.BaseURL)
	assert.Equal(t, DefaultKeeperCheckIntervalSeconds, cfg.Keeper.CheckIntervalSeconds)
	assert.Equal(t, DefaultKeeperMessages, cfg.Keeper.Messages)
	assert.True(t, cfg.Keeper.AutoSwitch)
	assert.False(t, cfg.Keeper.AutoResume)
	assert.Equal(t, DefaultSmartProvider, cfg.Keeper.Smart.Provider)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
log_level: debug
jules:
  api_key: file-key
keeper:
  check_interval_seconds: 120
  inactivity_threshold_minutes: 2.5
  messages:
    - "carry on"
debate:
  participants:
    - id: alice
      name: Alice
      role: Architect
      provider: openai
      model: gpt-4o
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(newTestCmd(path))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "file-key", cfg.Jules.APIKey)
	assert.Equal(t, 120, cfg.Keeper.CheckIntervalSeconds)
	assert.Equal(t, 2.5, cfg.Keeper.InactivityThresholdMinutes)
	assert.Equal(t, []string{"carry on"}, cfg.Keeper.Messages)
	require.Len(t, cfg.Debate.Participants, 1)
	assert.Equal(t, "openai", cfg.Debate.Participants[0].Provider)
}

func TestLoadClampsIntervalToMinimum(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keeper:\n  check_interval_seconds: 2\n"), 0o644))

	cfg, err := Load(newTestCmd(path))
	require.NoError(t, err)

	assert.Equal(t, MinKeeperCheckIntervalSeconds, cfg.Keeper.CheckIntervalSeconds)
}

func TestLoadInjectsAPIKeyFromEnv(t *testing.T) {
	t.Setenv("JULES_API_KEY", "env-key")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Jules.APIKey)
}

func TestLoadInjectsProviderKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("GEMINI_API_KEY", "sk-gemini")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
keeper:
  smart:
    provider: openai
review:
  provider: gemini
debate:
  participants:
    - id: alice
      provider: openai
    - id: bob
      provider: gemini
      api_key: explicit-key
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(newTestCmd(path))
	require.NoError(t, err)

	assert.Equal(t, "sk-openai", cfg.Keeper.Smart.APIKey)
	assert.Equal(t, "sk-gemini", cfg.Review.APIKey)
	assert.Equal(t, "sk-openai", cfg.Debate.Participants[0].APIKey)
	// An explicit key is never overwritten by the environment.
	assert.Equal(t, "explicit-key", cfg.Debate.Participants[1].APIKey)
}

func TestDurationOrDefault(t *testing.T) {
	d, err := DurationOrDefault("5s", "30s")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)

	d, err = DurationOrDefault("", "30s")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)

	_, err = DurationOrDefault("not a duration", "30s")
	assert.Error(t, err)
}
