package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLogLevel(t *testing.T) {
	cases := []struct {
		in   string
		want LogLevel
	}{
		{"DEBUG", LogLevelDebug},
		{" warn ", LogLevelWarn},
		{"warning", LogLevelWarn},
		{"error", LogLevelError},
		{"", LogLevelInfo},
		{"verbose", LogLevelInfo},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeLogLevel(c.in), c.in)
	}
	assert.Equal(t, slog.LevelDebug, LogLevelDebug.SlogLevel())
	assert.Equal(t, slog.LevelInfo, LogLevel("bogus").SlogLevel())
}

func TestNormalizeLogFormat(t *testing.T) {
	assert.Equal(t, LogFormatJSON, NormalizeLogFormat("JSON"))
	assert.Equal(t, LogFormatText, NormalizeLogFormat("logfmt"))
}

func TestNormalizeAppearance(t *testing.T) {
	assert.Equal(t, AppearanceAuto, NormalizeAppearance(""))
	assert.Equal(t, AppearanceForceDark, NormalizeAppearance("Force-Dark"))
	assert.Equal(t, Appearance(""), NormalizeAppearance("sepia"))
}

func TestNormalizeMissingPolicy(t *testing.T) {
	assert.Equal(t, MissingAsCode, NormalizeMissingPolicy(""))
	assert.Equal(t, MissingError, NormalizeMissingPolicy(" ERROR "))
	assert.Equal(t, MissingPolicy(""), NormalizeMissingPolicy("skip"))
}
