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
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel(""))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("ERROR"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("verbose"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(" info "))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("Debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("WARNING"))
	assert.Equal(t, zerolog.FatalLevel, ParseLevel("CRITICAL"))
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "INFO")

	logger.Debug().Msg("hidden")
	logger.Info().Str("snapshot", "db-1").Msg("deleting snapshot")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "deleting snapshot", entry["message"])
	assert.Equal(t, "db-1", entry["snapshot"])
	assert.Equal(t, "snapshot-sweeper", entry["service"])
	assert.Contains(t, entry, "time")
}
