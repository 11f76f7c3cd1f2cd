package logger

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdata/booktone-api/internal/config"
)

func TestSetup(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "INFO"} {
		logger, err := Setup(config.ServerConfig{LogLevel: level})
		require.NoError(t, err, "level %q", level)
		assert.NotNil(t, logger)
	}
}

func TestSetup_InvalidLevel(t *testing.T) {
	_, err := Setup(config.ServerConfig{LogLevel: "verbose"})
	assert.Error(t, err)

	_, err = Setup(config.ServerConfig{})
	assert.Error(t, err)
}

func TestContextCarrier(t *testing.T) {
	t.Parallel()

	stored := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := WithLogger(context.Background(), stored)

	assert.Same(t, stored, FromContext(ctx))
	assert.Same(t, stored, FromContextOrDefault(ctx, nil))

	// Without a stored logger, the fallback wins, then the default.
	fallback := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.Same(t, fallback, FromContextOrDefault(context.Background(), fallback))
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}
