package logging

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"golang.org/x/term"
)

func resetLoggingState() {
	mu.Lock()
	defer mu.Unlock()

	baseWriter = os.Stderr
	log.Logger = zerolog.New(baseWriter).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	isTerminalFn = term.IsTerminal
}

func TestInitJSONFormatSetsLevel(t *testing.T) {
	t.Cleanup(resetLoggingState)

	Init(Config{Format: "json", Level: "debug", Component: "proposals"})

	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	assert.Equal(t, os.Stderr, baseWriter)
}

func TestInitConsoleFormat(t *testing.T) {
	t.Cleanup(resetLoggingState)

	Init(Config{Format: "console", Level: "warn"})

	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
	_, ok := baseWriter.(zerolog.ConsoleWriter)
	assert.True(t, ok)
}

func TestAutoFormatFollowsTerminal(t *testing.T) {
	t.Cleanup(resetLoggingState)

	isTerminalFn = func(int) bool { return true }
	_, ok := selectWriter("auto").(zerolog.ConsoleWriter)
	assert.True(t, ok)

	isTerminalFn = func(int) bool { return false }
	assert.Equal(t, os.Stderr, selectWriter("auto"))
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":         zerolog.InfoLevel,
		"DEBUG":    zerolog.DebugLevel,
		" warning": zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"bogus":    zerolog.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestFingerprintIsStableAndShort(t *testing.T) {
	a := Fingerprint("token-a")
	assert.Len(t, a, 8)
	assert.Equal(t, a, Fingerprint("token-a"))
	assert.NotEqual(t, a, Fingerprint("token-b"))
	assert.Empty(t, Fingerprint(""))
	assert.NotContains(t, a, "token")
}
