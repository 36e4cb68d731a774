package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, parseLevel(" warn "))
	require.Equal(t, slog.LevelError, parseLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLevel(""))
	require.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestJSONFormatCarriesService(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter("crawler", &buf, "info", "json")
	log.Info("run finished", slog.Int("published", 3))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "crawler", line["service"])
	require.Equal(t, "run finished", line["msg"])
	require.EqualValues(t, 3, line["published"])
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter("api", &buf, "warn", "")
	log.Info("hidden")
	require.Zero(t, buf.Len())
	log.Warn("shown")
	require.Contains(t, buf.String(), "service=api")
}
