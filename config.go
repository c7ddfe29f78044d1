package krakengo

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	SpotRestURL      = "https://api.kraken.com"
	SpotWsPublicURL  = "wss://ws.kraken.com/v2"
	SpotWsPrivateURL = "wss://ws-auth.kraken.com/v2"
	FuturesRestURL   = "https://futures.kraken.com/derivatives"
	FuturesWsURL     = "wss://futures.kraken.com/ws/v1"
)

// ClientConfig configures a REST client (Spot or Futures).
type ClientConfig struct {
	BaseURL     string
	Credentials CredentialsProvider
	RateLimit   RateLimitConfig
	Debug       bool
}

// WsConfig configures a streaming Session: reconnect backoff, liveness
// timers, and the reconnect-attempt ceiling.
type WsConfig struct {
	InitialBackoff       time.Duration
	MaxBackoff           time.Duration
	MaxReconnectAttempts *uint32 // nil means unbounded
	PingInterval         time.Duration
	PongTimeout          time.Duration
	ChallengeTimeout     time.Duration // Futures auth only
}

// DefaultWsConfig matches the values the Rust client this library was
// ported from uses for both its Spot and Futures streaming sessions.
func DefaultWsConfig() WsConfig {
	return WsConfig{
		InitialBackoff:   time.Second,
		MaxBackoff:       60 * time.Second,
		PingInterval:     30 * time.Second,
		PongTimeout:      10 * time.Second,
		ChallengeTimeout: 10 * time.Second,
	}
}

// FileConfig is the shape of an optional on-disk TOML configuration file,
// for deployments that prefer a config file to environment variables and
// functional options.
type FileConfig struct {
	APIKeyEnvVar    string `toml:"api_key_env_var"`
	APISecretEnvVar string `toml:"api_secret_env_var"`
	Tier            string `toml:"verification_tier"`
	SpotBaseURL     string `toml:"spot_base_url"`
	FuturesBaseURL  string `toml:"futures_base_url"`
	Debug           bool   `toml:"debug"`
}

// LoadFileConfig reads and decodes a TOML configuration file from path.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &TransportError{Op: "read config file", Err: err}
	}
	var cfg FileConfig
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, &SerializationError{Op: "decode config file", Err: err}
	}
	return &cfg, nil
}

// ClientConfig builds a ClientConfig from a FileConfig, with an
// EnvCredentialsProvider that reads the environment variable names it names
// (falling back to the package defaults when unset).
func (f *FileConfig) ClientConfig(baseURL string) (ClientConfig, error) {
	keyVar := f.APIKeyEnvVar
	if keyVar == "" {
		keyVar = DefaultAPIKeyEnvVar
	}
	secretVar := f.APISecretEnvVar
	if secretVar == "" {
		secretVar = DefaultAPISecretEnvVar
	}

	tier := TierStarter
	if f.Tier != "" {
		parsed, err := ParseVerificationTier(f.Tier)
		if err != nil {
			return ClientConfig{}, err
		}
		tier = parsed
	}

	if baseURL == "" {
		baseURL = f.SpotBaseURL
	}

	return ClientConfig{
		BaseURL:     baseURL,
		Credentials: NewEnvCredentialsProvider(WithEnvVarNames(keyVar, secretVar)),
		RateLimit:   RateLimitConfig{Tier: tier, Enabled: true},
		Debug:       f.Debug,
	}, nil
}
