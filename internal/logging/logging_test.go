package logging

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("info"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zerolog.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("verbose"), "unknown levels fall back to info")
}

func TestNewRespectsLevel(t *testing.T) {
	log := New(Config{Level: "warn", Format: "json"})
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())
}
