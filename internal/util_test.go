package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"trace", "TRACE"},
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"ERROR", "ERROR"},
		{"Fatal", "FATAL"},
	}
	for _, tt := range tests {
		lvl, err := ParseLogLevel(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, FormatLogLevel(lvl), tt.input)
	}

	lvl, err := ParseLogLevel("bogus")
	assert.Error(t, err)
	assert.Equal(t, LevelInfo, lvl)
}
