package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{
		Level:      LevelDebug,
		Component:  "test",
		JSONFormat: true,
		Output:     &buf,
	})

	log.Info("hello", F("stage", 2), F("coverage", 0.75))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "test", entry["component"])
	assert.Equal(t, float64(2), entry["stage"])
	assert.Equal(t, 0.75, entry["coverage"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{
		Level:      LevelWarn,
		Component:  "test",
		JSONFormat: true,
		Output:     &buf,
	})

	log.Debug("not emitted")
	log.Info("not emitted either")
	assert.Zero(t, buf.Len())

	log.Warn("emitted")
	assert.NotZero(t, buf.Len())
}

func TestWithAttachesFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{
		Level:      LevelInfo,
		Component:  "test",
		JSONFormat: true,
		Output:     &buf,
	})

	child := log.With(F("action", "fuzzy_match"))
	child.Info("scored")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "fuzzy_match", entry["action"])
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	// Must not panic and With must keep returning a usable logger.
	log.With(F("k", "v")).Error("discarded", Err(assert.AnError))
}
