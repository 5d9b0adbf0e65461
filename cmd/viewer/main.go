package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/disintegration/imaging"

	"main/internal/compositor"
	"main/internal/feed"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/resize"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	channel := flag.String("channel", "", "Channel identifier override")
	mode := flag.String("mode", "", "Operating mode override: cattle|people|hunting")
	snapshotDir := flag.String("snapshot-dir", "", "Snapshot output directory override")
	httpAddr := flag.String("http-addr", "", "Observability listen address override")
	flag.Parse()

	if *configPath == "" {
		log.Fatalf("-config is required")
	}

	cfg, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	cfg, err = applyOverrides(cfg, *channel, *mode, *snapshotDir, *httpAddr)
	if err != nil {
		log.Fatalf("invalid override: %v", err)
	}

	metrics := obs.New()

	sink, err := newSnapshotSink(cfg.SnapshotDir, cfg.SnapshotEvery, metrics)
	if err != nil {
		log.Fatalf("snapshot sink init failed: %v", err)
	}

	comp := compositor.New(compositor.Option{
		Width:    cfg.Surface.Width,
		Height:   cfg.Surface.Height,
		Mode:     cfg.Mode,
		Metrics:  metrics,
		OnRender: sink,
	})

	view, err := feed.NewView(feed.Option{
		BaseURL:     cfg.BaseURL,
		Compositor:  comp,
		Production:  cfg.Production,
		Backoff:     cfg.Backoff,
		MaxAttempts: cfg.MaxAttempts,
		Metrics:     metrics,
	})
	if err != nil {
		log.Fatalf("view init failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = view.Mount(ctx, feed.Params{
		Channel:       cfg.Channel,
		Mode:          cfg.Mode,
		SurfaceWidth:  cfg.Surface.Width,
		SurfaceHeight: cfg.Surface.Height,
	})
	if err != nil {
		log.Fatalf("mount failed: %v", err)
	}
	defer view.Unmount()

	srv := startHTTP(cfg, view, comp, metrics)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("http shutdown: %v", err)
		}
	}
}

func applyOverrides(cfg ops.Loaded, channel, mode, snapshotDir, httpAddr string) (ops.Loaded, error) {
	if channel != "" {
		cfg.Channel = channel
	}
	if mode != "" {
		m, err := ops.ResolveMode(mode)
		if err != nil {
			return ops.Loaded{}, err
		}
		cfg.Mode = m
	}
	if snapshotDir != "" {
		cfg.SnapshotDir = snapshotDir
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	return cfg, nil
}

// newSnapshotSink writes every Nth rendered surface to dir as PNG.
// Returns nil when the sink is disabled.
func newSnapshotSink(dir string, every int, metrics *obs.Metrics) (func(img *image.NRGBA), error) {
	if dir == "" || every == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var renders atomic.Uint64
	return func(img *image.NRGBA) {
		n := renders.Add(1)
		if n%uint64(every) != 0 {
			return
		}

		path := filepath.Join(dir, fmt.Sprintf("frame_%08d.png", n))
		f, err := os.Create(path)
		if err != nil {
			log.Printf("snapshot create: %v", err)
			return
		}
		defer f.Close()

		if err := imaging.Encode(f, img, imaging.PNG); err != nil {
			log.Printf("snapshot encode: %v", err)
			return
		}
		metrics.SnapshotsWritten.Add(1)
	}, nil
}

type statusResponse struct {
	Channel         string `json:"channel"`
	Mode            string `json:"mode"`
	VideoState      string `json:"videoState"`
	DetectionsState string `json:"detectionsState"`
	SurfaceWidth    int    `json:"surfaceWidth"`
	SurfaceHeight   int    `json:"surfaceHeight"`
	FramesDecoded   uint64 `json:"framesDecoded"`
	FramesDropped   uint64 `json:"framesDropped"`
	Renders         uint64 `json:"renders"`
}

func startHTTP(cfg ops.Loaded, view *feed.View, comp *compositor.Compositor, metrics *obs.Metrics) *http.Server {
	if cfg.HTTPAddr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		params := view.Params()
		videoState, detectionsState := view.ChannelStates()
		width, height := comp.Size()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(statusResponse{
			Channel:         params.Channel,
			Mode:            params.Mode.String(),
			VideoState:      videoState.String(),
			DetectionsState: detectionsState.String(),
			SurfaceWidth:    width,
			SurfaceHeight:   height,
			FramesDecoded:   metrics.FramesDecoded.Load(),
			FramesDropped:   metrics.FramesDropped.Load(),
			Renders:         metrics.RendersCompleted.Load(),
		})
	})

	// Resize requests go through the drag controller so the same clamp
	// rules apply as for interactive resizing; the committed size
	// restarts both channels via View.Apply.
	width, height := comp.Size()
	resizer := resize.New(width, height, resize.Option{
		MinWidth:  cfg.Surface.MinWidth,
		MinHeight: cfg.Surface.MinHeight,
		MaxWidth:  cfg.Surface.MaxWidth,
		MaxHeight: cfg.Surface.MaxHeight,
		OnCommit: func(w, h int) {
			params := view.Params()
			params.SurfaceWidth, params.SurfaceHeight = w, h
			if err := view.Apply(params); err != nil {
				log.Printf("resize apply: %v", err)
			}
		},
	})

	mux.HandleFunc("/api/resize", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		curW, curH := resizer.Size()
		resizer.PointerDown(0, 0)
		resizer.PointerUp(req.Width-curW, req.Height-curH)

		gotW, gotH := resizer.Size()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"width": gotW, "height": gotH})
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http listen: %v", err)
		}
	}()

	return srv
}
