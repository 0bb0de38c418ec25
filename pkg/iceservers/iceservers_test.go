package iceservers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corsairlabs/meetcore/internal/config"
	"github.com/corsairlabs/meetcore/pkg/iceservers"
)

func TestNewBuilder_StunOnly(t *testing.T) {
	cfg := &config.Config{StunServer: "stun:stun.example.com:3478"}
	b := iceservers.NewBuilder(cfg)

	servers := b.IceServers()
	require.Len(t, servers, 1)
	assert.Equal(t, "stun:stun.example.com:3478", servers[0]["urls"])
}

func TestNewBuilder_IncludesTurnWhenConfigured(t *testing.T) {
	cfg := &config.Config{
		StunServer:           "stun:stun.example.com:3478",
		TurnServerURL:        "turn:turn.example.com:3478",
		TurnServerUsername:   "user",
		TurnServerCredential: "secret",
	}
	b := iceservers.NewBuilder(cfg)

	servers := b.IceServers()
	require.Len(t, servers, 2)
	assert.Equal(t, "turn:turn.example.com:3478", servers[1]["urls"])
	assert.Equal(t, "user", servers[1]["username"])
	assert.Equal(t, "secret", servers[1]["credential"])
}

func TestNewBuilder_OmitsTurnCredentialsWhenUnset(t *testing.T) {
	cfg := &config.Config{
		StunServer:    "stun:stun.example.com:3478",
		TurnServerURL: "turn:turn.example.com:3478",
	}
	b := iceservers.NewBuilder(cfg)

	servers := b.IceServers()
	require.Len(t, servers, 2)
	_, hasUsername := servers[1]["username"]
	assert.False(t, hasUsername)
}
