package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "raffle.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
env = "staging"

[raffle]
lock_ttl = "30s"
platform_wallet = "0x00000000000000000000000000000000000000aa"
admins = ["0x00000000000000000000000000000000000000bb"]

[randomness]
provider = "kafka"
retry_interval = "1s"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "staging", cfg.Env)
	require.Equal(t, 30*time.Second, cfg.Raffle.LockTTL.Duration)
	require.Equal(t, "kafka", cfg.Randomness.Provider)
	require.Equal(t, time.Second, cfg.Randomness.RetryInterval.Duration)
	require.Len(t, cfg.Raffle.Admins, 1)

	// untouched keys keep their defaults
	require.Equal(t, "memory", cfg.Raffle.LockBackend)
	require.Equal(t, 10*time.Second, cfg.Randomness.MaxRetryInterval.Duration)
	require.Equal(t, "raffle.randomness.delivery", cfg.Randomness.DeliveryTopic)
}

func TestLoad_UnknownKeys(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "refund window is not configurable",
			content: "[raffle]\nrefund_window = \"48h\"\n",
		},
		{
			name:    "commission cap is not configurable",
			content: "[raffle]\nmax_commission_bps = 9000\n",
		},
		{
			name:    "misspelled key",
			content: "[randomness]\nprovder = \"kafka\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
		})
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}
