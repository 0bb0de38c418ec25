package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corsairlabs/meetcore/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SKIP_AUTH", "JWT_SECRET", "AUTH0_DOMAIN", "AUTH0_AUDIENCE",
		"SIGNALING_PORT", "ALLOWED_ORIGINS", "STUN_SERVER", "GO_ENV",
	} {
		t.Setenv(key, "")
	}
}

func TestValidateEnv_DefaultsWhenSkippingAuth(t *testing.T) {
	clearEnv(t)
	t.Setenv("SKIP_AUTH", "true")

	cfg, err := config.ValidateEnv()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.SignalingPort)
	assert.Equal(t, "development", cfg.GoEnv)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, "5-M", cfg.AuthRateLimit)
}

func TestValidateEnv_FailsWithoutAuthConfigUnlessSkipped(t *testing.T) {
	clearEnv(t)

	_, err := config.ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidateEnv_JWTSecretSatisfiesAuthRequirement(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "some-secret-value")

	cfg, err := config.ValidateEnv()
	require.NoError(t, err)
	assert.Equal(t, "some-secret-value", cfg.JWTSecret)
}

func TestValidateEnv_Auth0DomainAndAudienceSatisfyAuthRequirement(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTH0_DOMAIN", "example.auth0.com")
	t.Setenv("AUTH0_AUDIENCE", "https://api.example.com")

	_, err := config.ValidateEnv()
	require.NoError(t, err)
}

func TestValidateEnv_InvalidPortIsRejected(t *testing.T) {
	clearEnv(t)
	t.Setenv("SKIP_AUTH", "true")
	t.Setenv("SIGNALING_PORT", "not-a-number")

	_, err := config.ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SIGNALING_PORT")
}

func TestValidateEnv_ParsesCommaSeparatedOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("SKIP_AUTH", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := config.ValidateEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}
