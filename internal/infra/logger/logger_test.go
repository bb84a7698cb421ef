package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, LevelWarn)

	l.Info("hidden %d", 1)
	l.Warn("shown %d", 2)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[WARN] shown 2")
}

func TestNamedPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, LevelDebug).Named("assembler")

	l.Debug("decoding %s", "a.rar")
	assert.Contains(t, buf.String(), "[DEBUG] [assembler] decoding a.rar")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("bogus"))
}

func TestWriteTrimsNewline(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, LevelInfo)

	_, err := l.Write([]byte("GET /api/jobs\n"))
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "[INFO] GET /api/jobs\n")
}
