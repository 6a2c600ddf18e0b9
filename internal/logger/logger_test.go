package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	buf := &bytes.Buffer{}
	l := Component(New(Config{Level: "warn", Output: buf}), "walk")

	l.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	l.Warn().Str("path", "g1").Msg("cannot list directory")
	out := buf.String()
	assert.Contains(t, out, `"service":"zconsolidate"`)
	assert.Contains(t, out, `"component":"walk"`)
	assert.Contains(t, out, `"path":"g1"`)
}

func TestNewDefaultsToInfo(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(Config{Level: "bogus", Output: buf})
	l.Debug().Msg("hidden")
	assert.Empty(t, buf.String())
	l.Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}
