package observability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"meshrpc/pkg/config"
)

func TestSetupLoggerWritesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "logs", "node.log")
	logger, err := SetupLogger(config.LogConfig{Level: "debug", Format: "json", Outputs: []string{out}})
	require.NoError(t, err)
	defer zap.ReplaceGlobals(zap.NewNop())

	logger.Debug("transport ready", zap.String("contact", "tcp://127.0.0.1:1"))
	_ = logger.Sync()

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"contact":"tcp://127.0.0.1:1"`)
	assert.Contains(t, string(b), `"level":"debug"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}
