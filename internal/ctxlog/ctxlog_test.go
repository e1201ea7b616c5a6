package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext_FallsBackToDefault(t *testing.T) {
	t.Parallel()
	require.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestWith_AddsAttributes(t *testing.T) {
	t.Parallel()
	// Arrange
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	// Act
	FromContext(With(ctx, "object_id", "abc")).Info("Compiled.")

	// Assert
	assert.Contains(t, buf.String(), "object_id=abc")
	assert.Contains(t, buf.String(), "msg=Compiled.")
}
