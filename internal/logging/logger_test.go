package logging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corsairlabs/meetcore/internal/logging"
)

func TestInitialize_IsIdempotent(t *testing.T) {
	require.NoError(t, logging.Initialize(true))
	require.NoError(t, logging.Initialize(true))
	assert.NotNil(t, logging.GetLogger())
}

func TestGetLogger_FallsBackWhenUninitialized(t *testing.T) {
	assert.NotNil(t, logging.GetLogger())
}

func TestWithCorrelationIDUserRoom_RoundTrip(t *testing.T) {
	ctx := context.Background()
	ctx = logging.WithCorrelationID(ctx, "corr-1")
	ctx = logging.WithUser(ctx, "user-1")
	ctx = logging.WithRoom(ctx, "room-1")

	assert.Equal(t, "corr-1", ctx.Value(logging.CorrelationIDKey))
	assert.Equal(t, "user-1", ctx.Value(logging.UserIDKey))
	assert.Equal(t, "room-1", ctx.Value(logging.RoomIDKey))
}

func TestRedactEmail(t *testing.T) {
	cases := map[string]string{
		"":                 "",
		"ada@example.com":  "***@example.com",
		"not-an-email":     "***",
		"@example.com":     "***",
	}
	for input, want := range cases {
		assert.Equal(t, want, logging.RedactEmail(input), "input=%q", input)
	}
}
