// Command signaling is the process entrypoint: it wires the auth,
// call-store, media, room, and relay collaborators together and serves
// the websocket signaling endpoint plus the ambient HTTP surface
// (metrics, health, CORS, correlation ids).
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/corsairlabs/meetcore/internal/auth"
	"github.com/corsairlabs/meetcore/internal/callstore"
	"github.com/corsairlabs/meetcore/internal/config"
	"github.com/corsairlabs/meetcore/internal/health"
	"github.com/corsairlabs/meetcore/internal/logging"
	"github.com/corsairlabs/meetcore/internal/media"
	"github.com/corsairlabs/meetcore/internal/middleware"
	"github.com/corsairlabs/meetcore/internal/ratelimit"
	"github.com/corsairlabs/meetcore/internal/room"
	"github.com/corsairlabs/meetcore/internal/signaling"
	"github.com/corsairlabs/meetcore/internal/tracing"
	"github.com/corsairlabs/meetcore/pkg/iceservers"
)

func main() {
	for _, path := range []string{".env", "../../.env"} {
		if err := godotenv.Load(path); err == nil {
			slog.Info("loaded environment file", "path", path)
			break
		}
	}

	cfg, err := config.ValidateEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	development := cfg.GoEnv != "production"
	if err := logging.Initialize(development); err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	logger := logging.GetLogger()
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
	}

	if cfg.OtelCollectorAddr != "" {
		tp, err := tracing.InitTracer(ctx, "meetcore-signaling", cfg.OtelCollectorAddr)
		if err != nil {
			logging.Warn(ctx, "tracing disabled: failed to initialize tracer", zap.Error(err))
		} else {
			defer func() { _ = tp.Shutdown(ctx) }()
		}
	}

	var verifier auth.TokenVerifier
	if cfg.SkipAuth {
		logging.Warn(ctx, "authentication disabled: SKIP_AUTH=true, do not use in production")
		verifier = &auth.MockValidator{}
	} else {
		v, err := auth.NewValidator(ctx, cfg.Auth0Domain, cfg.Auth0Audience)
		if err != nil {
			logging.Error(ctx, "failed to initialize auth validator", zap.Error(err))
			os.Exit(1)
		}
		verifier = v
	}

	store := callstore.NewBreakerStore(callstore.NewMemStore())
	worker := media.NewBreakerWorker(media.NewFakeWorker())
	iceBuilder := iceservers.NewBuilder(cfg)

	limiter, err := ratelimit.NewHandshakeLimiter(cfg.AuthRateLimit, redisClient)
	if err != nil {
		logging.Error(ctx, "failed to initialize rate limiter", zap.Error(err))
		os.Exit(1)
	}

	// The relay is constructed before the registry/media session because
	// both of those need it as their Notifier; Bind closes the cycle.
	relay := signaling.New(nil, nil, verifier, limiter, iceBuilder, cfg.AllowedOrigins)
	mediaSession := media.New(worker, relay, cfg.MediasoupListenIP, cfg.MediasoupAnnouncedIP)
	registry := room.New(store, relay, mediaSession)
	defer registry.Close()
	relay.Bind(registry, mediaSession)

	// Media worker death is fatal (§4.4): exit shortly after so an external
	// supervisor restarts the process, rather than keep serving signaling
	// traffic against a dead SFU.
	go func() {
		err := <-mediaSession.Died()
		logging.Error(ctx, "media worker died, exiting for supervisor restart", zap.Error(err))
		time.Sleep(2 * time.Second)
		os.Exit(1)
	}()

	healthHandler := health.NewHandler(redisClient, cfg.MediaWorkerAddr)

	if development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	router.Use(cors.New(corsConfig))

	router.GET("/ws", relay.ServeWs)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health/live", healthHandler.Liveness)
	router.GET("/health/ready", healthHandler.Readiness)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.SignalingPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info(ctx, "signaling server starting", zap.Int("port", cfg.SignalingPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error(ctx, "server failed", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error(ctx, "server forced to shutdown", zap.Error(err))
	}
	logging.Info(ctx, "server exited")
}
