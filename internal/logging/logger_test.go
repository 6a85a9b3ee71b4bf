package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentTagsEntries(t *testing.T) {
	previous := log.Logger
	t.Cleanup(func() { log.Logger = previous })

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)

	l := Component("gorm")
	l.Warn().Msg("slow query")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "gorm", entry["component"])
	assert.Equal(t, "slow query", entry["message"])
}

func TestSetupFallsBackToInfo(t *testing.T) {
	previousLogger, previousLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = previousLogger
		zerolog.SetGlobalLevel(previousLevel)
	})

	Setup("chatty", "json")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	Setup("debug", "console")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}
