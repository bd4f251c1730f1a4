package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{" warn ", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"Error", zerolog.ErrorLevel},
		{"trace", zerolog.TraceLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := New(Config{Level: "info", Format: "json", Service: "skyfight", Out: &buf})
	require.NoError(t, err)
	defer closer.Close()

	log.Debug().Msg("hidden")
	comp := Component(log, "session")
	comp.Info().Int("tick", 3).Msg("visible")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line), buf.String())
	assert.Equal(t, "visible", line["message"])
	assert.Equal(t, "skyfight", line["service"])
	assert.Equal(t, "session", line["component"])
	assert.EqualValues(t, 3, line["tick"])
	assert.Contains(t, line, "time")
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(Config{Level: "debug", Out: &buf})
	require.NoError(t, err)

	log.Debug().Str("vehicle", "d1").Msg("created")
	assert.Contains(t, buf.String(), "created")
	assert.Contains(t, buf.String(), "vehicle=d1")
}
