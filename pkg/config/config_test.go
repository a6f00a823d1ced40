package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ProviderOpenRouter, cfg.LLM.Provider)
	assert.Equal(t, DefaultMaxIterations, cfg.Brain.MaxIterations)
	assert.Equal(t, DefaultContextBudget, cfg.Brain.ContextBudget)
	assert.Equal(t, DefaultMonitorInterval, cfg.Monitor.IntervalSec)
	assert.True(t, cfg.Monitor.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenRouter, cfg.LLM.Provider)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
database_path: /data/bot.db
llm:
  provider: anthropic
  model: claude-sonnet-4-20250514
brain:
  max_iterations: 3
telegram:
  allowed_users: ["12345", "67890"]
monitor:
  enabled: true
  interval_sec: 60
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/bot.db", cfg.DatabasePath)
	assert.Equal(t, ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, 3, cfg.Brain.MaxIterations)
	assert.Equal(t, []string{"12345", "67890"}, cfg.Telegram.AllowedUsers)
	assert.Equal(t, 60, cfg.Monitor.IntervalSec)
	// Unset fields keep defaults.
	assert.Equal(t, DefaultContextBudget, cfg.Brain.ContextBudget)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PHOENIX_LLM_PROVIDER", "google")
	t.Setenv("PHOENIX_LLM_MODEL", "gemini-2.0-flash")
	t.Setenv("TELEGRAM_ALLOWED_USERS", "111, 222,")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ProviderGoogle, cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.Equal(t, []string{"111", "222"}, cfg.Telegram.AllowedUsers)
}

func TestValidateRejectsBadProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Provider = "bedrock"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown llm provider")
}

func TestValidateRejectsNonPositiveLimits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Brain.MaxIterations = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Brain.ContextBudget = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Monitor.IntervalSec = 0
	assert.Error(t, cfg.Validate())
}

func TestSecretsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	secrets := map[string]string{
		SecretTelegramToken: "123:abc",
		SecretGitHubToken:   "ghp_test",
	}

	require.NoError(t, EncryptSecretsFile(dir, "password123", secrets))
	assert.True(t, SecretsFileExists(dir))

	decrypted, err := DecryptSecretsFile(dir, "password123")
	require.NoError(t, err)
	assert.Equal(t, secrets, decrypted)
}

func TestSecretsWrongPassword(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EncryptSecretsFile(dir, "correct", map[string]string{"K": "v"}))

	_, err := DecryptSecretsFile(dir, "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decryption failed")
}

func TestGetSecretPrecedence(t *testing.T) {
	t.Cleanup(func() { SetDecryptedSecrets(nil) })

	t.Setenv("PHOENIX_TEST_SECRET", "from-env")

	// Env fallback when nothing is loaded.
	v, err := GetSecret("PHOENIX_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	// Decrypted file wins over env.
	SetDecryptedSecrets(map[string]string{"PHOENIX_TEST_SECRET": "from-file"})
	v, err = GetSecret("PHOENIX_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-file", v)

	_, err = GetSecret("PHOENIX_MISSING_SECRET")
	assert.Error(t, err)
}
