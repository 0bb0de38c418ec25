// Package health exposes liveness/readiness probes for the signaling
// process: liveness reports process aliveness only, readiness checks Redis
// (when configured) and the media worker (when its address is set).
package health

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/corsairlabs/meetcore/internal/logging"
	"go.uber.org/zap"
)

// MediaWorkerChecker checks connectivity to the media worker collaborator.
type MediaWorkerChecker interface {
	Check(ctx context.Context, addr string) string
}

// GRPCMediaWorkerChecker checks a media worker exposing the standard gRPC
// health checking protocol.
type GRPCMediaWorkerChecker struct{}

func (c *GRPCMediaWorkerChecker) Check(ctx context.Context, addr string) string {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		logging.Error(ctx, "failed to connect to media worker for health check", zap.Error(err), zap.String("addr", addr))
		return "unhealthy"
	}
	defer func() { _ = conn.Close() }()

	client := healthpb.NewHealthClient(conn)
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ""})
	if err != nil {
		logging.Error(ctx, "media worker health check RPC failed", zap.Error(err))
		return "unhealthy"
	}
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		logging.Warn(ctx, "media worker is not serving", zap.String("status", resp.Status.String()))
		return "unhealthy"
	}
	return "healthy"
}

// Handler serves the /health/live and /health/ready endpoints.
type Handler struct {
	redisClient     *redis.Client
	mediaWorkerAddr string
	mediaEnabled    bool
	mediaChecker    MediaWorkerChecker
}

// NewHandler builds a Handler. redisClient may be nil when the deployment
// runs without a shared store (single-instance mode). mediaWorkerAddr may
// be empty, in which case the media worker check is skipped.
func NewHandler(redisClient *redis.Client, mediaWorkerAddr string) *Handler {
	enabled := os.Getenv("MEDIA_WORKER_HEALTH_CHECK_ENABLED") != "false" && mediaWorkerAddr != ""
	return &Handler{
		redisClient:     redisClient,
		mediaWorkerAddr: mediaWorkerAddr,
		mediaEnabled:    enabled,
		mediaChecker:    &GRPCMediaWorkerChecker{},
	}
}

// LivenessResponse is returned by GET /health/live.
type LivenessResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ReadinessResponse is returned by GET /health/ready.
type ReadinessResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Liveness returns 200 whenever the process can respond at all.
func (h *Handler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, LivenessResponse{
		Status:    "alive",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Readiness returns 200 only when every enabled dependency check passes,
// 503 otherwise.
func (h *Handler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	redisStatus := h.checkRedis(ctx)
	checks["redis"] = redisStatus
	if redisStatus != "healthy" {
		allHealthy = false
	}

	if h.mediaEnabled {
		mediaStatus := h.checkMediaWorker(ctx)
		checks["media_worker"] = mediaStatus
		if mediaStatus != "healthy" {
			allHealthy = false
		}
	}

	status := "ready"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "unavailable"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, ReadinessResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) checkRedis(ctx context.Context) string {
	if h.redisClient == nil {
		return "healthy"
	}
	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		logging.Error(ctx, "redis health check failed", zap.Error(err))
		return "unhealthy"
	}
	return "healthy"
}

func (h *Handler) checkMediaWorker(ctx context.Context) string {
	if h.mediaChecker == nil {
		return "unhealthy"
	}
	return h.mediaChecker.Check(ctx, h.mediaWorkerAddr)
}
