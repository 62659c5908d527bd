package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty config", Config{}, false},
		{"valid debug json", Config{Level: "debug", Format: "json"}, false},
		{"valid warn console", Config{Level: "warn", Format: "console"}, false},
		{"invalid level", Config{Level: "loud"}, true},
		{"invalid format", Config{Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew(t *testing.T) {
	logger, err := New(Config{Level: "debug", Format: "console"})
	require.NoError(t, err)
	require.NotNil(t, logger)

	logger.Debug("debug message", zap.String("key", "value"))
	logger.Info("info message")
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{Level: "nope"})
	assert.Error(t, err)
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	logger.Info("discarded")
	logger.Named("child").With(zap.Int("n", 1)).Warn("also discarded")
	assert.NoError(t, logger.Sync())
}
