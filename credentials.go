package krakengo

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// DefaultAPIKeyEnvVar and DefaultAPISecretEnvVar are the environment variable
// names EnvCredentialsProvider reads from when no override is supplied.
const (
	DefaultAPIKeyEnvVar    = "KRAKEN_API_KEY"
	DefaultAPISecretEnvVar = "KRAKEN_API_SECRET"
)

// secretString holds a sensitive value that must never leak through the
// fmt verbs, including %v and %+v.
type secretString string

func (secretString) String() string { return "[REDACTED]" }

func (s secretString) GoString() string { return "[REDACTED]" }

// Credentials is an API key/secret pair. The secret is redacted from every
// fmt rendering of a *Credentials; use Reveal to obtain the raw value for
// signing.
type Credentials struct {
	apiKey    string
	apiSecret secretString
}

// NewCredentials builds Credentials from a literal key and secret.
func NewCredentials(apiKey, apiSecret string) *Credentials {
	return &Credentials{apiKey: apiKey, apiSecret: secretString(apiSecret)}
}

// Key returns the public API key.
func (c *Credentials) Key() string {
	if c == nil {
		return ""
	}
	return c.apiKey
}

// Reveal exposes the raw secret. Callers must not log or print the result.
func (c *Credentials) Reveal() string {
	if c == nil {
		return ""
	}
	return string(c.apiSecret)
}

// String implements fmt.Stringer, redacting the secret.
func (c *Credentials) String() string {
	if c == nil {
		return "Credentials(nil)"
	}
	return fmt.Sprintf("Credentials{apiKey: %q, apiSecret: %s}", c.apiKey, c.apiSecret)
}

// GoString implements fmt.GoStringer, so %#v is redacted as well.
func (c *Credentials) GoString() string {
	return c.String()
}

// CredentialsProvider abstracts where credentials come from, so a client can
// be constructed with literal values, environment variables, or a
// user-supplied secrets manager.
type CredentialsProvider interface {
	Credentials() *Credentials
}

// StaticCredentialsProvider wraps a fixed Credentials value.
type StaticCredentialsProvider struct {
	creds *Credentials
}

// NewStaticCredentialsProvider wraps literal credentials.
func NewStaticCredentialsProvider(apiKey, apiSecret string) *StaticCredentialsProvider {
	return &StaticCredentialsProvider{creds: NewCredentials(apiKey, apiSecret)}
}

func (p *StaticCredentialsProvider) Credentials() *Credentials { return p.creds }

// EnvCredentialsProvider reads credentials from environment variables,
// optionally preloaded from a .env file.
type EnvCredentialsProvider struct {
	keyVar    string
	secretVar string
}

// EnvCredentialsOpt configures an EnvCredentialsProvider before it reads the
// environment.
type EnvCredentialsOpt func(*EnvCredentialsProvider)

// WithEnvVarNames overrides the two environment variable names read by
// NewEnvCredentialsProvider. Defaults are DefaultAPIKeyEnvVar and
// DefaultAPISecretEnvVar.
func WithEnvVarNames(keyVar, secretVar string) EnvCredentialsOpt {
	return func(p *EnvCredentialsProvider) {
		p.keyVar = keyVar
		p.secretVar = secretVar
	}
}

// NewEnvCredentialsProvider builds a provider that reads from the
// environment at Credentials() call time.
func NewEnvCredentialsProvider(opts ...EnvCredentialsOpt) *EnvCredentialsProvider {
	p := &EnvCredentialsProvider{
		keyVar:    DefaultAPIKeyEnvVar,
		secretVar: DefaultAPISecretEnvVar,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LoadDotEnv preloads the given .env files (or ".env" if none given) into
// the process environment, without overwriting variables already set. It is
// a thin wrapper over godotenv, intended for local development only.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	if err := godotenv.Load(filenames...); err != nil {
		return fmt.Errorf("load dotenv: %w", err)
	}
	return nil
}

// Credentials reads the configured environment variables. It returns nil if
// either variable is unset; callers that require credentials should check
// for nil and surface MissingCredentialsError.
func (p *EnvCredentialsProvider) Credentials() *Credentials {
	apiKey, ok := os.LookupEnv(p.keyVar)
	if !ok || apiKey == "" {
		return nil
	}
	apiSecret, ok := os.LookupEnv(p.secretVar)
	if !ok || apiSecret == "" {
		return nil
	}
	return NewCredentials(apiKey, apiSecret)
}
