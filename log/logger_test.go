package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("warn")
	assert.NoError(t, err)
	assert.Equal(t, LevelWarn, lvl)

	_, err = ParseLevel("nonsense")
	assert.Error(t, err)
}

func TestLoggerWritesModuleTag(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(NewTerminalHandler(&buf, LevelInfo))
	l.Info(ModuleDisasm, "unknown opcode", "offset", 0x10)
	assert.Contains(t, buf.String(), "unknown opcode")
	assert.Contains(t, buf.String(), ModuleDisasm)
}
