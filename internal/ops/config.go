package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"main/internal/model/enum"
	"main/internal/resize"
	"main/pkg/wsconn"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Endpoint  EndpointConfig  `json:"endpoint"`
	Reconnect ReconnectConfig `json:"reconnect"`
	Surface   SurfaceConfig   `json:"surface"`
	Snapshot  SnapshotConfig  `json:"snapshot"`
	HTTP      HTTPConfig      `json:"http"`
}

// EndpointConfig describes the stream endpoint and the default channel.
type EndpointConfig struct {
	BaseURL    string `json:"baseUrl"`
	Channel    string `json:"channel"`
	Mode       string `json:"mode"`
	Production *bool  `json:"production"`
}

// ReconnectConfig tunes the per-channel backoff schedule.
type ReconnectConfig struct {
	BaseIntervalMS int `json:"baseIntervalMs"`
	MaxIntervalMS  int `json:"maxIntervalMs"`
	MaxAttempts    int `json:"maxAttempts"`
}

// SurfaceConfig describes the render surface and its resize bounds.
type SurfaceConfig struct {
	Width     int `json:"width"`
	Height    int `json:"height"`
	MinWidth  int `json:"minWidth"`
	MinHeight int `json:"minHeight"`
	MaxWidth  int `json:"maxWidth"`
	MaxHeight int `json:"maxHeight"`
}

// SnapshotConfig controls the on-disk snapshot sink.
type SnapshotConfig struct {
	Dir         string `json:"dir"`
	EveryFrames int    `json:"everyFrames"`
}

// HTTPConfig describes the local observability listener.
type HTTPConfig struct {
	Addr string `json:"addr"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	BaseURL    string
	Channel    string
	Mode       enum.Mode
	Production bool

	Backoff     wsconn.Backoff
	MaxAttempts int

	Surface SurfaceSpec

	SnapshotDir   string
	SnapshotEvery int
	HTTPAddr      string
}

// SurfaceSpec is the resolved surface geometry.
type SurfaceSpec struct {
	Width     int
	Height    int
	MinWidth  int
	MinHeight int
	MaxWidth  int
	MaxHeight int
}

// Load reads a JSON config file and resolves it.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return Resolve(cfg)
}

// Resolve validates a FileConfig and fills defaults.
func Resolve(cfg FileConfig) (Loaded, error) {
	production := true
	if cfg.Endpoint.Production != nil {
		production = *cfg.Endpoint.Production
	}

	if cfg.Endpoint.BaseURL == "" {
		return Loaded{}, fmt.Errorf("endpoint baseUrl is empty")
	}
	if err := wsconn.ValidateURL(cfg.Endpoint.BaseURL, production); err != nil {
		return Loaded{}, fmt.Errorf("invalid endpoint baseUrl: %w", err)
	}
	if cfg.Endpoint.Channel == "" {
		return Loaded{}, fmt.Errorf("endpoint channel is empty")
	}

	mode, err := ResolveMode(cfg.Endpoint.Mode)
	if err != nil {
		return Loaded{}, err
	}

	backoff, attempts, err := resolveReconnect(cfg.Reconnect)
	if err != nil {
		return Loaded{}, err
	}

	surface, err := resolveSurface(cfg.Surface)
	if err != nil {
		return Loaded{}, err
	}

	if cfg.Snapshot.EveryFrames < 0 {
		return Loaded{}, fmt.Errorf("snapshot everyFrames must be >= 0")
	}

	return Loaded{
		BaseURL:       cfg.Endpoint.BaseURL,
		Channel:       cfg.Endpoint.Channel,
		Mode:          mode,
		Production:    production,
		Backoff:       backoff,
		MaxAttempts:   attempts,
		Surface:       surface,
		SnapshotDir:   cfg.Snapshot.Dir,
		SnapshotEvery: cfg.Snapshot.EveryFrames,
		HTTPAddr:      cfg.HTTP.Addr,
	}, nil
}

// ResolveMode maps a raw mode string to the enum, defaulting to cattle.
func ResolveMode(raw string) (enum.Mode, error) {
	if raw == "" {
		return enum.ModeCattle, nil
	}
	mode := enum.Mode(raw)
	if !mode.IsAvailable() {
		return "", fmt.Errorf("unknown mode: %s", raw)
	}
	return mode, nil
}

func resolveReconnect(cfg ReconnectConfig) (wsconn.Backoff, int, error) {
	if cfg.BaseIntervalMS < 0 || cfg.MaxIntervalMS < 0 || cfg.MaxAttempts < 0 {
		return wsconn.Backoff{}, 0, fmt.Errorf("reconnect values must be >= 0")
	}

	backoff := wsconn.DefaultBackoff()
	if cfg.BaseIntervalMS > 0 {
		backoff.Base = time.Duration(cfg.BaseIntervalMS) * time.Millisecond
	}
	if cfg.MaxIntervalMS > 0 {
		backoff.Max = time.Duration(cfg.MaxIntervalMS) * time.Millisecond
	}
	if backoff.Max < backoff.Base {
		return wsconn.Backoff{}, 0, fmt.Errorf("reconnect maxIntervalMs must be >= baseIntervalMs")
	}

	attempts := cfg.MaxAttempts
	if attempts == 0 {
		attempts = wsconn.DefaultMaxAttempts
	}
	return backoff, attempts, nil
}

func resolveSurface(cfg SurfaceConfig) (SurfaceSpec, error) {
	spec := SurfaceSpec{
		Width:     cfg.Width,
		Height:    cfg.Height,
		MinWidth:  cfg.MinWidth,
		MinHeight: cfg.MinHeight,
		MaxWidth:  cfg.MaxWidth,
		MaxHeight: cfg.MaxHeight,
	}

	if spec.Width <= 0 {
		spec.Width = 1280
	}
	if spec.Height <= 0 {
		spec.Height = 720
	}
	if spec.MinWidth <= 0 {
		spec.MinWidth = resize.DefaultMinWidth
	}
	if spec.MinHeight <= 0 {
		spec.MinHeight = resize.DefaultMinHeight
	}
	if spec.MaxWidth <= 0 {
		spec.MaxWidth = resize.DefaultMaxWidth
	}
	if spec.MaxHeight <= 0 {
		spec.MaxHeight = resize.DefaultMaxHeight
	}

	if spec.MinWidth > spec.MaxWidth || spec.MinHeight > spec.MaxHeight {
		return SurfaceSpec{}, fmt.Errorf("surface min bounds exceed max bounds")
	}
	if spec.Width < spec.MinWidth || spec.Width > spec.MaxWidth ||
		spec.Height < spec.MinHeight || spec.Height > spec.MaxHeight {
		return SurfaceSpec{}, fmt.Errorf("surface size %dx%d outside bounds", spec.Width, spec.Height)
	}
	return spec, nil
}
