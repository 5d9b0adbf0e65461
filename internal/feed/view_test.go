package feed

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/compositor"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/pkg/exception"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// streamServer serves /video/<id> and /detections/<id> with the given
// per-channel handlers.
func streamServer(t *testing.T, video, detections func(sock *websocket.Conn)) string {
	t.Helper()

	mux := http.NewServeMux()
	serve := func(handler func(sock *websocket.Conn)) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			sock, err := testUpgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			defer sock.Close()

			if handler != nil {
				handler(sock)
			}
		}
	}
	mux.HandleFunc("/video/", serve(video))
	mux.HandleFunc("/detections/", serve(detections))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func frameJSON(t *testing.T, c color.NRGBA) string {
	t.Helper()

	buf := &bytes.Buffer{}
	require.NoError(t, imaging.Encode(buf, imaging.New(32, 32, c), imaging.JPEG))

	return fmt.Sprintf(`{"type":"frame","data":%q}`, base64.StdEncoding.EncodeToString(buf.Bytes()))
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()

	select {
	case <-ch:
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestMountStreamsBothChannels(t *testing.T) {
	rendered := make(chan struct{}, 8)
	comp := compositor.New(compositor.Option{
		Width:    64,
		Height:   64,
		OnRender: func(*image.NRGBA) { rendered <- struct{}{} },
	})

	modeSeen := make(chan string, 1)
	detectionsSent := make(chan struct{}, 1)

	base := streamServer(t,
		func(sock *websocket.Conn) {
			payload := frameJSON(t, color.NRGBA{R: 0xc8, A: 0xff})
			if err := sock.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
				return
			}
			sock.ReadMessage()
		},
		func(sock *websocket.Conn) {
			_, raw, err := sock.ReadMessage()
			if err != nil {
				return
			}
			modeSeen <- string(raw)

			body := `{"type":"detections","detections":[{"label":"cow","confidence":0.9,"bbox":[2,2,20,20]}]}`
			if err := sock.WriteMessage(websocket.TextMessage, []byte(body)); err != nil {
				return
			}
			detectionsSent <- struct{}{}
			sock.ReadMessage()
		},
	)

	metrics := obs.New()
	view, err := NewView(Option{
		BaseURL:    base,
		Compositor: comp,
		Metrics:    metrics,
	})
	require.NoError(t, err)

	require.NoError(t, view.Mount(context.Background(), Params{
		Channel: "cam1",
		Mode:    enum.ModeCattle,
	}))
	defer view.Unmount()

	waitSignal(t, rendered, "first render")
	waitSignal(t, detectionsSent, "detections delivery")

	select {
	case raw := <-modeSeen:
		assert.JSONEq(t, `{"type":"set_mode","mode":"cattle"}`, raw)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for set_mode")
	}

	assert.Eventually(t, func() bool {
		return metrics.DetectionsKept.Load() == 1
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, uint64(2), metrics.ConnectsOpened.Load())
}

func TestMountRejectsUnusableChannelID(t *testing.T) {
	comp := compositor.New(compositor.Option{Width: 32, Height: 32})
	view, err := NewView(Option{BaseURL: "wss://gcs.local", Compositor: comp})
	require.NoError(t, err)

	err = view.Mount(context.Background(), Params{Channel: "///"})
	require.Error(t, err)
	assert.ErrorIs(t, err, exception.ErrBadChannelID)
	assert.False(t, view.Mounted())
}

func TestMountTwiceFails(t *testing.T) {
	base := streamServer(t, nil, nil)
	comp := compositor.New(compositor.Option{Width: 32, Height: 32})
	view, err := NewView(Option{BaseURL: base, Compositor: comp})
	require.NoError(t, err)

	require.NoError(t, view.Mount(context.Background(), Params{Channel: "cam1"}))
	defer view.Unmount()

	assert.Error(t, view.Mount(context.Background(), Params{Channel: "cam1"}))
}

func TestApplyEqualParamsKeepsConnections(t *testing.T) {
	base := streamServer(t, nil, nil)
	comp := compositor.New(compositor.Option{Width: 32, Height: 32})
	view, err := NewView(Option{BaseURL: base, Compositor: comp})
	require.NoError(t, err)

	params := Params{Channel: "cam1", Mode: enum.ModeCattle, SurfaceWidth: 64, SurfaceHeight: 64}
	require.NoError(t, view.Mount(context.Background(), params))
	defer view.Unmount()

	before := view.video
	require.NoError(t, view.Apply(params))
	assert.Same(t, before, view.video)
}

func TestApplyResizeRestartsBothChannels(t *testing.T) {
	base := streamServer(t, nil, nil)
	comp := compositor.New(compositor.Option{Width: 32, Height: 32})
	view, err := NewView(Option{BaseURL: base, Compositor: comp})
	require.NoError(t, err)

	params := Params{Channel: "cam1", Mode: enum.ModeCattle, SurfaceWidth: 64, SurfaceHeight: 64}
	require.NoError(t, view.Mount(context.Background(), params))
	defer view.Unmount()

	oldVideo, oldDetections := view.video, view.detections

	params.SurfaceWidth = 128
	require.NoError(t, view.Apply(params))

	assert.NotSame(t, oldVideo, view.video)
	assert.NotSame(t, oldDetections, view.detections)
	assert.True(t, view.Mounted())

	w, h := comp.Size()
	assert.Equal(t, 128, w)
	assert.Equal(t, 64, h)
}

func TestApplyWhileUnmountedOnlyStoresParams(t *testing.T) {
	comp := compositor.New(compositor.Option{Width: 32, Height: 32})
	view, err := NewView(Option{BaseURL: "wss://gcs.local", Compositor: comp})
	require.NoError(t, err)

	params := Params{Channel: "cam2", Mode: enum.ModePeople}
	require.NoError(t, view.Apply(params))

	assert.False(t, view.Mounted())
	assert.Equal(t, params, view.Params())
}

func TestUnmountIdempotent(t *testing.T) {
	base := streamServer(t, nil, nil)
	comp := compositor.New(compositor.Option{Width: 32, Height: 32})
	view, err := NewView(Option{BaseURL: base, Compositor: comp})
	require.NoError(t, err)

	require.NoError(t, view.Mount(context.Background(), Params{Channel: "cam1"}))

	view.Unmount()
	view.Unmount()

	assert.False(t, view.Mounted())
}

func TestChannelURLSanitizesIdentifier(t *testing.T) {
	url, err := videoURL("wss://gcs.local/", "cam 1/../x")
	require.NoError(t, err)
	assert.Equal(t, "wss://gcs.local/video/cam1x", url)

	_, err = detectionsURL("wss://gcs.local", "!!!")
	assert.ErrorIs(t, err, exception.ErrBadChannelID)
}
