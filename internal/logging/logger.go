// Package logging provides a process-wide structured logger built on zap,
// with context-aware correlation/user/room fields and PII redaction helpers.
package logging

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger
	once   sync.Once
)

type contextKey string

const (
	CorrelationIDKey contextKey = "correlation_id"
	UserIDKey        contextKey = "user_id"
	RoomIDKey        contextKey = "room_id"
)

// Initialize sets up the global logger based on the environment. Safe to call once;
// subsequent calls are no-ops.
func Initialize(development bool) error {
	var err error
	once.Do(func() {
		var config zap.Config
		if development {
			config = zap.NewDevelopmentConfig()
			config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		} else {
			config = zap.NewProductionConfig()
			config.EncoderConfig.TimeKey = "timestamp"
			config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		}

		config.OutputPaths = []string{"stdout"}
		config.ErrorOutputPaths = []string{"stderr"}

		logger, err = config.Build(zap.AddCallerSkip(1))
	})
	return err
}

// GetLogger returns the global logger instance, falling back to a development
// logger if Initialize was never called (e.g. in tests).
func GetLogger() *zap.Logger {
	if logger == nil {
		l, _ := zap.NewDevelopment()
		return l
	}
	return logger
}

func Info(ctx context.Context, msg string, fields ...zap.Field) {
	GetLogger().Info(msg, appendContextFields(ctx, fields)...)
}

func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, appendContextFields(ctx, fields)...)
}

func Error(ctx context.Context, msg string, fields ...zap.Field) {
	GetLogger().Error(msg, appendContextFields(ctx, fields)...)
}

func appendContextFields(ctx context.Context, fields []zap.Field) []zap.Field {
	if ctx == nil {
		return fields
	}

	if cid, ok := ctx.Value(CorrelationIDKey).(string); ok {
		fields = append(fields, zap.String("correlation_id", cid))
	}
	if uid, ok := ctx.Value(UserIDKey).(string); ok {
		fields = append(fields, zap.String("user_id", uid))
	}
	if rid, ok := ctx.Value(RoomIDKey).(string); ok {
		fields = append(fields, zap.String("room_id", rid))
	}

	return append(fields, zap.String("service", "meetcore-signaling"))
}

// WithRoom returns a child context carrying roomID for downstream logging.
func WithRoom(ctx context.Context, roomID string) context.Context {
	return context.WithValue(ctx, RoomIDKey, roomID)
}

// WithUser returns a child context carrying userID for downstream logging.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// WithCorrelationID returns a child context carrying a correlation id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// RedactEmail masks the local part of an email address, keeping the domain
// for debuggability without leaking the full address into logs.
func RedactEmail(email string) string {
	if len(email) == 0 {
		return ""
	}
	atIndex := -1
	for i, c := range email {
		if c == '@' {
			atIndex = i
			break
		}
	}
	if atIndex > 0 {
		return "***" + email[atIndex:]
	}
	return "***"
}
