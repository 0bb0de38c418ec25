// Package iceservers builds the ICE-server list returned by
// webrtc:get-ice-servers (§6.1, §6.2, §6.3) from the STUN/TURN
// configuration.
package iceservers

import "github.com/corsairlabs/meetcore/internal/config"

// Builder answers webrtc:get-ice-servers with a static list built from
// configuration at startup.
type Builder struct {
	servers []map[string]any
}

// NewBuilder constructs a Builder from the process configuration.
func NewBuilder(cfg *config.Config) *Builder {
	servers := []map[string]any{
		{"urls": cfg.StunServer},
	}
	if cfg.TurnServerURL != "" {
		turn := map[string]any{"urls": cfg.TurnServerURL}
		if cfg.TurnServerUsername != "" {
			turn["username"] = cfg.TurnServerUsername
		}
		if cfg.TurnServerCredential != "" {
			turn["credential"] = cfg.TurnServerCredential
		}
		servers = append(servers, turn)
	}
	return &Builder{servers: servers}
}

// IceServers implements signaling.IceServerLister.
func (b *Builder) IceServers() []map[string]any {
	return b.servers
}
