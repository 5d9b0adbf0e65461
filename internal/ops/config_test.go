package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model/enum"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `{
		"endpoint": {"baseUrl": "wss://gcs.local", "channel": "cam1", "mode": "people"},
		"reconnect": {"baseIntervalMs": 1000, "maxIntervalMs": 8000, "maxAttempts": 3},
		"surface": {"width": 960, "height": 540},
		"snapshot": {"dir": "/tmp/snaps", "everyFrames": 30},
		"http": {"addr": ":9091"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "wss://gcs.local", cfg.BaseURL)
	assert.Equal(t, "cam1", cfg.Channel)
	assert.Equal(t, enum.ModePeople, cfg.Mode)
	assert.True(t, cfg.Production)
	assert.Equal(t, time.Second, cfg.Backoff.Base)
	assert.Equal(t, 8*time.Second, cfg.Backoff.Max)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 960, cfg.Surface.Width)
	assert.Equal(t, 540, cfg.Surface.Height)
	assert.Equal(t, "/tmp/snaps", cfg.SnapshotDir)
	assert.Equal(t, 30, cfg.SnapshotEvery)
	assert.Equal(t, ":9091", cfg.HTTPAddr)
}

func TestResolveDefaults(t *testing.T) {
	cfg, err := Resolve(FileConfig{
		Endpoint: EndpointConfig{BaseURL: "wss://gcs.local", Channel: "cam1"},
	})
	require.NoError(t, err)

	assert.Equal(t, enum.ModeCattle, cfg.Mode)
	assert.Equal(t, 3*time.Second, cfg.Backoff.Base)
	assert.Equal(t, 30*time.Second, cfg.Backoff.Max)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 1280, cfg.Surface.Width)
	assert.Equal(t, 720, cfg.Surface.Height)
}

func TestResolveRejectsInsecureEndpointInProduction(t *testing.T) {
	_, err := Resolve(FileConfig{
		Endpoint: EndpointConfig{BaseURL: "ws://gcs.local", Channel: "cam1"},
	})
	assert.Error(t, err)
}

func TestResolveAllowsInsecureEndpointInDev(t *testing.T) {
	dev := false
	cfg, err := Resolve(FileConfig{
		Endpoint: EndpointConfig{BaseURL: "ws://gcs.local", Channel: "cam1", Production: &dev},
	})
	require.NoError(t, err)
	assert.False(t, cfg.Production)
}

func TestResolveRejections(t *testing.T) {
	cases := []struct {
		name string
		cfg  FileConfig
	}{
		{name: "missing base url", cfg: FileConfig{Endpoint: EndpointConfig{Channel: "cam1"}}},
		{name: "missing channel", cfg: FileConfig{Endpoint: EndpointConfig{BaseURL: "wss://gcs.local"}}},
		{
			name: "unknown mode",
			cfg:  FileConfig{Endpoint: EndpointConfig{BaseURL: "wss://gcs.local", Channel: "cam1", Mode: "sheep"}},
		},
		{
			name: "max interval below base",
			cfg: FileConfig{
				Endpoint:  EndpointConfig{BaseURL: "wss://gcs.local", Channel: "cam1"},
				Reconnect: ReconnectConfig{BaseIntervalMS: 5000, MaxIntervalMS: 1000},
			},
		},
		{
			name: "surface below min bound",
			cfg: FileConfig{
				Endpoint: EndpointConfig{BaseURL: "wss://gcs.local", Channel: "cam1"},
				Surface:  SurfaceConfig{Width: 100, Height: 100},
			},
		},
		{
			name: "negative snapshot cadence",
			cfg: FileConfig{
				Endpoint: EndpointConfig{BaseURL: "wss://gcs.local", Channel: "cam1"},
				Snapshot: SnapshotConfig{EveryFrames: -1},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Resolve(tc.cfg)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
