package signaling

import (
	"context"

	"go.uber.org/zap"

	"github.com/corsairlabs/meetcore/internal/apperr"
	"github.com/corsairlabs/meetcore/internal/logging"
)

func metaField(key, value string) zap.Field {
	return zap.String(key, value)
}

// errorCode extracts the wire code for an error, used when building the
// {message, code} error envelope (§7).
func errorCode(err error) apperr.Code {
	return apperr.CodeOf(err)
}

func logEvent(ctx context.Context, msg string, socketID string) {
	logging.Info(ctx, msg, metaField("socket_id", socketID))
}
