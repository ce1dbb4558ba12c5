package logging_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/bavix/macscope/internal/logging"
)

func TestBase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		level     string
		format    string
		wantLevel zerolog.Level
	}{
		{name: "info json", level: "info", format: "json", wantLevel: zerolog.InfoLevel},
		{name: "debug console", level: "debug", format: "console", wantLevel: zerolog.DebugLevel},
		{name: "warn", level: "warn", format: "json", wantLevel: zerolog.WarnLevel},
		{name: "error", level: "error", format: "json", wantLevel: zerolog.ErrorLevel},
		{name: "unknown level falls back to info", level: "verbose", format: "json", wantLevel: zerolog.InfoLevel},
		{name: "whitespace tolerated", level: " DEBUG ", format: "json", wantLevel: zerolog.DebugLevel},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger := logging.Base("macscope", tt.level, tt.format)
			assert.Equal(t, tt.wantLevel, logger.GetLevel())
		})
	}
}
