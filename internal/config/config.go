// Package config loads and validates process configuration from the
// environment, failing fast on missing required variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every environment-derived setting the signaling process needs.
type Config struct {
	// Core
	SignalingPort int
	GoEnv         string
	LogLevel      string
	SkipAuth      bool

	// Auth (C1)
	Auth0Domain   string
	Auth0Audience string
	JWTSecret     string

	// CORS / handshake
	AllowedOrigins []string

	// Rate limiting (§5, ulule/limiter formatted rates e.g. "5-M")
	AuthRateLimit    string
	GlobalRateLimit  string
	MessageRateLimit string
	RedisAddr        string
	RedisPassword    string

	// ICE / TURN (§6.2)
	StunServer          string
	TurnServerURL       string
	TurnServerUsername  string
	TurnServerCredential string

	// SFU worker binding (§6.2, §6.3)
	MediasoupListenIP    string
	MediasoupAnnouncedIP string
	MediasoupMinPort     int
	MediasoupMaxPort     int
	MediaWorkerAddr      string

	// Reaping (§4.1)
	ReapGrace      time.Duration
	RoomSweepEvery time.Duration
	RoomSweepAfter time.Duration

	// Tracing
	OtelCollectorAddr string
}

// ValidateEnv reads the process environment into a Config, applying defaults
// for optional fields and accumulating errors for missing required ones.
func ValidateEnv() (*Config, error) {
	var errs []string

	cfg := &Config{
		GoEnv:                getEnvOrDefault("GO_ENV", "development"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		SkipAuth:             os.Getenv("SKIP_AUTH") == "true",
		Auth0Domain:          os.Getenv("AUTH0_DOMAIN"),
		Auth0Audience:        os.Getenv("AUTH0_AUDIENCE"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		AuthRateLimit:        getEnvOrDefault("AUTH_RATE_LIMIT", "5-M"),
		GlobalRateLimit:      getEnvOrDefault("GLOBAL_RATE_LIMIT", "100-M"),
		MessageRateLimit:     getEnvOrDefault("MESSAGE_RATE_LIMIT", "60-M"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		StunServer:           getEnvOrDefault("STUN_SERVER", "stun:stun.l.google.com:19302"),
		TurnServerURL:        os.Getenv("TURN_SERVER_URL"),
		TurnServerUsername:  os.Getenv("TURN_SERVER_USERNAME"),
		TurnServerCredential: os.Getenv("TURN_SERVER_CREDENTIAL"),
		MediasoupListenIP:    getEnvOrDefault("MEDIASOUP_LISTEN_IP", "0.0.0.0"),
		MediasoupAnnouncedIP: os.Getenv("MEDIASOUP_ANNOUNCED_IP"),
		MediaWorkerAddr:      os.Getenv("MEDIA_WORKER_ADDR"),
		OtelCollectorAddr:    os.Getenv("OTEL_COLLECTOR_ADDR"),
		ReapGrace:            30 * time.Second,
		RoomSweepEvery:       2 * time.Minute,
		RoomSweepAfter:       5 * time.Minute,
	}

	cfg.AllowedOrigins = parseOrigins(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000"))

	port, err := strconv.Atoi(getEnvOrDefault("SIGNALING_PORT", "8080"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("SIGNALING_PORT must be an integer: %v", err))
	}
	cfg.SignalingPort = port

	cfg.MediasoupMinPort = atoiOrDefault("MEDIASOUP_MIN_PORT", 40000)
	cfg.MediasoupMaxPort = atoiOrDefault("MEDIASOUP_MAX_PORT", 49999)

	if !cfg.SkipAuth {
		if cfg.JWTSecret == "" && (cfg.Auth0Domain == "" || cfg.Auth0Audience == "") {
			errs = append(errs, "either JWT_SECRET or both AUTH0_DOMAIN and AUTH0_AUDIENCE must be set when SKIP_AUTH=false")
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	logValidatedConfig(cfg)
	return cfg, nil
}

func parseOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func redactSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:8] + "..."
}

func logValidatedConfig(cfg *Config) {
	slog.Info("configuration loaded",
		"go_env", cfg.GoEnv,
		"signaling_port", cfg.SignalingPort,
		"skip_auth", cfg.SkipAuth,
		"allowed_origins", cfg.AllowedOrigins,
		"jwt_secret", redactSecret(cfg.JWTSecret),
		"auth0_domain", cfg.Auth0Domain,
		"redis_addr", cfg.RedisAddr,
		"stun_server", cfg.StunServer,
		"mediasoup_listen_ip", cfg.MediasoupListenIP,
	)
}
