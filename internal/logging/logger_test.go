package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewDevelopmentLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(true)
	require.NoError(t, err)
	require.NotNil(t, logger)
	defer logger.Sync() //nolint:errcheck // 退出前尽量刷盘
	logger.Info("development logger ready")
}

func TestNewProductionLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(false)
	require.NoError(t, err)
	require.NotNil(t, logger)
	defer logger.Sync() //nolint:errcheck // 退出前尽量刷盘
	logger.Info("production logger ready")
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	attached := zap.New(core).With(zap.String("run_id", "r1"))
	fallback := zap.NewNop()

	ctx := WithContext(context.Background(), attached)
	FromContext(ctx, fallback).Info("hello")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "r1", logs.All()[0].ContextMap()["run_id"])
	assert.Same(t, fallback, FromContext(context.Background(), fallback))
	assert.NotNil(t, FromContext(context.Background(), nil))
}
