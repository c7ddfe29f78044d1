package krakengo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWsConfig(t *testing.T) {
	cfg := DefaultWsConfig()
	assert.Equal(t, time.Second, cfg.InitialBackoff)
	assert.Equal(t, 60*time.Second, cfg.MaxBackoff)
	assert.Equal(t, 10*time.Second, cfg.ChallengeTimeout)
	assert.Nil(t, cfg.MaxReconnectAttempts)
}

func TestLoadFileConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
api_key_env_var = "MY_KEY"
api_secret_env_var = "MY_SECRET"
verification_tier = "pro"
spot_base_url = "https://api.kraken.com"
debug = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFileConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "MY_KEY", cfg.APIKeyEnvVar)
	assert.Equal(t, "pro", cfg.Tier)
	assert.True(t, cfg.Debug)

	clientCfg, err := cfg.ClientConfig("")
	require.NoError(t, err)
	assert.Equal(t, "https://api.kraken.com", clientCfg.BaseURL)
	assert.Equal(t, TierPro, clientCfg.RateLimit.Tier)
	assert.True(t, clientCfg.Debug)
}

func TestLoadFileConfigMissingFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	assert.Error(t, err)
}

func TestFileConfigClientConfigRejectsUnknownTier(t *testing.T) {
	cfg := &FileConfig{Tier: "legendary"}
	_, err := cfg.ClientConfig("https://api.kraken.com")
	assert.Error(t, err)
}
