package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{"json info", "info", "json", false},
		{"text debug", "debug", "text", false},
		{"upper case level", "WARN", "json", false},
		{"bad level", "loud", "json", true},
		{"bad format", "info", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := NewLogger(tt.level, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			log.With("component", "test").Debug("ok", "key", "value")
		})
	}
}

func TestNop(t *testing.T) {
	log := NewNop()
	log.Info("discarded", "n", 1)
	log.Error("discarded")
}
