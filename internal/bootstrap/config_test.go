package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/helpdesk-console/config"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, false)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))

	logger.Info("hello", "k", "v")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "v", line["k"])

	buf.Reset()
	dev := newLogger(&buf, true)
	assert.True(t, dev.Enabled(context.Background(), slog.LevelDebug))
	dev.Debug("dev line")
	assert.Contains(t, buf.String(), "msg=\"dev line\"")
}

func TestLoadConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HELPDESK_API_URL", " https://helpdesk.example.com/api/ ")
	t.Setenv("TOKEN_STORAGE", "memory")
	t.Setenv("NAV_LANDING_PATH", "tickets")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://helpdesk.example.com/api", cfg.API.URL)
	assert.Equal(t, config.StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, "/tickets", cfg.Navigation.LandingPath)
}

func TestLoadConfig_InvalidDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TOKEN_STORAGE", "cookie")

	_, err := LoadConfig()
	require.ErrorContains(t, err, "parse config")
}
