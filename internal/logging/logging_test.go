package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleSetup(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := Setup(Options{Mode: Console, Level: zerolog.WarnLevel, Out: &buf})
	require.NoError(t, err)
	defer closer.Close()

	log.Info().Msg("hidden")
	log.Warn().Str("job", "j1").Msg("visible")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "j1")
}

func TestFileSetupWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "thunderdash.log")
	log, closer, err := Setup(Options{Mode: File, Level: zerolog.DebugLevel, Path: path})
	require.NoError(t, err)

	log.Debug().Str("component", "test").Msg("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &line))
	assert.Equal(t, "hello", line["message"])
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "test", line["component"])
}

func TestFileSetupNeedsPath(t *testing.T) {
	_, _, err := Setup(Options{Mode: File})
	assert.Error(t, err)
}
