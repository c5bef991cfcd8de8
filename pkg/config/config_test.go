package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	level, err := parseLevel("warn")
	require.NoError(t, err)
	require.Equal(t, slog.LevelWarn, level)

	_, err = parseLevel("loud")
	require.ErrorIs(t, err, ErrInvalidLogLevel)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("DEV_LOGIN", "")
	t.Setenv("ADMIN_UIDS", "")
	t.Setenv("HEARTBEAT_INTERVAL", "15s")
	t.Setenv("FEED_CHUNK_SIZE", "not a number")

	cfg := Load()
	require.Equal(t, BackendMemory, cfg.StoreBackend)
	require.Equal(t, 15*time.Second, cfg.HeartbeatInterval)
	require.Equal(t, 120*time.Second, cfg.OnlineThreshold)
	require.Equal(t, 30, cfg.FeedChunkSize)
	require.False(t, cfg.DevLogin)
	require.Empty(t, cfg.AdminUIDs)
}

func TestLoad_DevLoginAndAdmins(t *testing.T) {
	t.Setenv("DEV_LOGIN", "true")
	t.Setenv("ADMIN_UIDS", " root, ,ops ")

	cfg := Load()
	require.True(t, cfg.DevLogin)
	require.Equal(t, []string{"root", "ops"}, cfg.AdminUIDs)
}

func TestValidate(t *testing.T) {
	require.NoError(t, (&Config{Env: "development", DevLogin: true}).Validate())
	require.NoError(t, (&Config{Env: "production"}).Validate())
	require.ErrorIs(t, (&Config{Env: "production", DevLogin: true}).Validate(), ErrDevLoginInProduction)
}
