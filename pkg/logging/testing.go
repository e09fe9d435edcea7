package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// TestLogger returns a debug logger that writes through t.
func TestLogger(t testing.TB) *zap.Logger {
	t.Helper()
	logger := zaptest.NewLogger(t, zaptest.Level(zap.DebugLevel)).Named(t.Name())
	require.NotNil(t, logger)
	return logger
}
