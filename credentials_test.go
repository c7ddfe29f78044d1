package krakengo

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentialsRedactsSecret(t *testing.T) {
	creds := NewCredentials("my-key", "super-secret")

	assert.Equal(t, "my-key", creds.Key())
	assert.Equal(t, "super-secret", creds.Reveal())

	rendered := creds.String()
	assert.NotContains(t, rendered, "super-secret")
	assert.Contains(t, rendered, "[REDACTED]")

	asVerb := fmt.Sprintf("%v", creds)
	assert.NotContains(t, asVerb, "super-secret")

	asPlusVerb := fmt.Sprintf("%+v", creds)
	assert.NotContains(t, asPlusVerb, "super-secret")
}

func TestNilCredentialsAreSafe(t *testing.T) {
	var creds *Credentials
	assert.Equal(t, "", creds.Key())
	assert.Equal(t, "", creds.Reveal())
	assert.Equal(t, "Credentials(nil)", creds.String())
}

func TestStaticCredentialsProvider(t *testing.T) {
	p := NewStaticCredentialsProvider("k", "s")
	got := p.Credentials()
	assert.Equal(t, "k", got.Key())
	assert.Equal(t, "s", got.Reveal())
}

func TestEnvCredentialsProviderMissing(t *testing.T) {
	p := NewEnvCredentialsProvider(WithEnvVarNames("KRAKENGO_TEST_MISSING_KEY", "KRAKENGO_TEST_MISSING_SECRET"))
	assert.Nil(t, p.Credentials())
}

func TestEnvCredentialsProviderPresent(t *testing.T) {
	t.Setenv("KRAKENGO_TEST_KEY", "env-key")
	t.Setenv("KRAKENGO_TEST_SECRET", "env-secret")

	p := NewEnvCredentialsProvider(WithEnvVarNames("KRAKENGO_TEST_KEY", "KRAKENGO_TEST_SECRET"))
	got := p.Credentials()
	if assert.NotNil(t, got) {
		assert.Equal(t, "env-key", got.Key())
		assert.Equal(t, "env-secret", got.Reveal())
	}
}
