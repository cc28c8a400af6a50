package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "json", slog.LevelInfo)
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("loaded", "file", "a.php")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"loaded"`)
	assert.Contains(t, buf.String(), `"file":"a.php"`)
}

func TestNewUnknownFormat(t *testing.T) {
	_, err := New(nil, "xml", slog.LevelInfo)
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
