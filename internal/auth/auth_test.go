package auth_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corsairlabs/meetcore/internal/auth"
)

func TestIsGuest(t *testing.T) {
	assert.True(t, auth.IsGuest("guest:abc123"))
	assert.False(t, auth.IsGuest("auth0|abc123"))
}

func unsignedToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	body, err := json.Marshal(claims)
	require.NoError(t, err)
	payload := base64.RawURLEncoding.EncodeToString(body)
	return header + "." + payload + "."
}

func TestMockValidator_ParsesSubjectNameEmailFromPayload(t *testing.T) {
	v := &auth.MockValidator{}
	token := unsignedToken(t, map[string]any{
		"sub": "user-42", "name": "Ada Lovelace", "email": "ada@example.com",
	})

	identity, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", identity.UserID)
	assert.Equal(t, "Ada Lovelace", identity.DisplayName)
	assert.Equal(t, "ada@example.com", identity.Email)
}

func TestMockValidator_GuestClaimAddsPrefix(t *testing.T) {
	v := &auth.MockValidator{}
	token := unsignedToken(t, map[string]any{"sub": "visitor-1", "guest": true})

	identity, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, auth.IsGuest(identity.UserID))
	assert.Equal(t, auth.GuestPrefix+"visitor-1", identity.UserID)
}

func TestMockValidator_MalformedTokenFallsBackToDevIdentity(t *testing.T) {
	v := &auth.MockValidator{}
	identity, err := v.Verify(context.Background(), "not-a-jwt")
	require.NoError(t, err)
	assert.True(t, auth.IsGuest(identity.UserID))
}

func TestMockValidator_MalformedPayloadIsAnError(t *testing.T) {
	v := &auth.MockValidator{}
	_, err := v.Verify(context.Background(), "aGVhZGVy.bm90LWpzb24.")
	require.Error(t, err)
}
