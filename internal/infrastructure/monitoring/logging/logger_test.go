package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

func newTestLogger(t *testing.T, level zapcore.Level) (*zapLogger, *zaptest.Buffer) {
	t.Helper()
	buf := &zaptest.Buffer{}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	atom := zap.NewAtomicLevelAt(level)
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), buf, atom)
	return &zapLogger{z: zap.New(core), level: atom}, buf
}

func TestNewLogger_JSONFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: LevelInfo, Format: "json", OutputPaths: []string{"stdout"}})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: LevelDebug, Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_EmptyOutputPaths(t *testing.T) {
	l, err := NewLogger(LogConfig{OutputPaths: []string{}})
	assert.Error(t, err)
	assert.Nil(t, l)
}

func TestZapLogger_WritesFields(t *testing.T) {
	l, buf := newTestLogger(t, zapcore.DebugLevel)

	l.Info("submission validated",
		MembershipID("m-1"),
		SubmissionID("s-1"),
		Int("applied", 2),
		Bool("degraded", false),
		Err(errors.New("rollup write failed")),
	)

	out := buf.String()
	assert.Contains(t, out, `"msg":"submission validated"`)
	assert.Contains(t, out, `"membership_id":"m-1"`)
	assert.Contains(t, out, `"submission_id":"s-1"`)
	assert.Contains(t, out, `"applied":2`)
	assert.Contains(t, out, `"error":"rollup write failed"`)
}

func TestZapLogger_WithAndNamed(t *testing.T) {
	l, buf := newTestLogger(t, zapcore.DebugLevel)

	child := l.With(String("component", "sweep")).Named("worker")
	child.Warn("membership skipped")

	out := buf.String()
	assert.Contains(t, out, `"component":"sweep"`)
	assert.Contains(t, out, `"logger":"worker"`)
}

func TestSetLevel_AffectsChildren(t *testing.T) {
	l, buf := newTestLogger(t, zapcore.InfoLevel)
	child := l.With(String("k", "v"))

	child.Debug("hidden")
	assert.Empty(t, buf.String())

	require.True(t, SetLevel(l, "debug"))
	child.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestSetLevel_UnsupportedLogger(t *testing.T) {
	assert.False(t, SetLevel(NewNopLogger(), "debug"))
}

func TestErr_Nil(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "<nil>", f.Value)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel(" warn "))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestDefault_SetDefault(t *testing.T) {
	original := Default()
	t.Cleanup(func() { SetDefault(original) })

	l, _ := newTestLogger(t, zapcore.InfoLevel)
	SetDefault(nil)
	assert.Equal(t, original, Default())
	SetDefault(l)
	assert.Equal(t, Logger(l), Default())
}

func TestNopLogger_AllMethodsNoOp(t *testing.T) {
	l := NewNopLogger()
	l.Debug("msg")
	l.Info("msg")
	l.Warn("msg")
	l.Error("msg")
	assert.NotNil(t, l.With(String("a", "b")))
	assert.NotNil(t, l.Named("x"))
}

//Personal.AI order the ending
