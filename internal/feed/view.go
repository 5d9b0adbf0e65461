// Package feed owns the lifecycle of the two stream channels. A View
// binds a video connection and a detections connection to one
// Compositor, and guards every asynchronous callback behind a mounted
// flag so a torn-down view never mutates render state.
package feed

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/compositor"
	"main/internal/model"
	"main/internal/obs"
	"main/internal/wire"
	"main/pkg/wsconn"
)

type Option struct {
	// BaseURL is the ws:// or wss:// endpoint base. Channel
	// identifiers are appended as path segments. required.
	BaseURL string

	// Compositor receives validated frames and detection sets. required.
	Compositor *compositor.Compositor

	// Production rejects the insecure ws:// scheme.
	//
	// default: false
	Production bool

	// Backoff defines the reconnect delay schedule for both channels.
	//
	// default: wsconn.DefaultBackoff()
	Backoff wsconn.Backoff

	// MaxAttempts caps consecutive failed reconnects per channel.
	//
	// default: wsconn.DefaultMaxAttempts
	MaxAttempts int

	// Metrics receives ingest and connection counters. optional.
	Metrics *obs.Metrics
}

// View is the lifecycle guard over one channel pair.
type View struct {
	opt Option

	mounted atomic.Bool

	mu         sync.Mutex
	ctx        context.Context
	params     Params
	video      *wsconn.Conn
	detections *wsconn.Conn
}

func NewView(option Option) (*View, error) {
	if option.BaseURL == "" {
		return nil, errors.New("feed: empty base url")
	}

	if option.Compositor == nil {
		return nil, errors.New("feed: nil compositor")
	}

	return &View{opt: option}, nil
}

// Mount brings both channels up for the given parameters. ctx bounds
// the handshake of every dial for the lifetime of the view.
func (v *View) Mount(ctx context.Context, params Params) error {
	if v == nil {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.mounted.Load() {
		return errors.New("feed: view already mounted")
	}

	v.ctx = ctx

	return v.mountLocked(params)
}

// Apply replaces the view parameters. When mounted and any field
// differs, both channels are torn down and re-established with the new
// key. Equal parameters are a no-op.
func (v *View) Apply(params Params) error {
	if v == nil {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if params.Equal(v.params) {
		return nil
	}

	if !v.mounted.Load() {
		v.params = params
		return nil
	}

	channelChanged := params.Channel != v.params.Channel

	v.teardownLocked()

	if channelChanged {
		v.opt.Compositor.Reset()
	}

	return v.mountLocked(params)
}

// Unmount tears both channels down: pending reconnect timers are
// cancelled, live sockets closed once, and the cached frame and
// detection buffers released. Idempotent.
func (v *View) Unmount() {
	if v == nil {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.mounted.Load() {
		return
	}

	v.teardownLocked()
	v.opt.Compositor.Reset()
}

// Mounted reports whether the view currently owns live channels.
func (v *View) Mounted() bool {
	return v != nil && v.mounted.Load()
}

// Params returns the current view parameters.
func (v *View) Params() Params {
	if v == nil {
		return Params{}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	return v.params
}

// ChannelStates returns the video and detections connection states.
func (v *View) ChannelStates() (wsconn.State, wsconn.State) {
	if v == nil {
		return wsconn.StateClosed, wsconn.StateClosed
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	return v.video.State(), v.detections.State()
}

func (v *View) mountLocked(params Params) error {
	vurl, err := videoURL(v.opt.BaseURL, params.Channel)
	if err != nil {
		return errors.Wrap(err, "build video url")
	}

	durl, err := detectionsURL(v.opt.BaseURL, params.Channel)
	if err != nil {
		return errors.Wrap(err, "build detections url")
	}

	v.params = params
	v.opt.Compositor.SetMode(params.Mode)
	if params.SurfaceWidth > 0 && params.SurfaceHeight > 0 {
		if err := v.opt.Compositor.Resize(params.SurfaceWidth, params.SurfaceHeight); err != nil {
			return errors.Wrap(err, "resize surface")
		}
	}

	v.video = wsconn.New(vurl, v.channelOption("video", v.ingestVideo, nil))
	v.detections = wsconn.New(durl, v.channelOption("detections", v.ingestDetections, v.subscribeMode))

	v.mounted.Store(true)

	if err := v.video.Connect(v.ctx); err != nil {
		v.teardownLocked()
		return errors.Wrap(err, "connect video channel")
	}

	if err := v.detections.Connect(v.ctx); err != nil {
		v.teardownLocked()
		return errors.Wrap(err, "connect detections channel")
	}

	return nil
}

func (v *View) teardownLocked() {
	v.mounted.Store(false)
	v.video.Disconnect()
	v.detections.Disconnect()
}

func (v *View) channelOption(name string, ingest func(payload []byte), onOpen func()) wsconn.Option {
	return wsconn.Option{
		Backoff:     v.opt.Backoff,
		MaxAttempts: v.opt.MaxAttempts,
		Production:  v.opt.Production,
		OnOpen: func() {
			if !v.mounted.Load() {
				return
			}

			v.count(func(m *obs.Metrics) { m.ConnectsOpened.Add(1) })

			if onOpen != nil {
				onOpen()
			}
		},
		OnMessage: func(payload []byte) {
			if !v.mounted.Load() {
				return
			}

			ingest(payload)
		},
		OnRetryScheduled: func(attempt int, delay time.Duration) {
			if !v.mounted.Load() {
				return
			}

			v.count(func(m *obs.Metrics) { m.RetriesScheduled.Add(1) })
			logs.Infof("%s channel retry %d scheduled in %s", name, attempt, delay)
		},
		OnTerminal: func(err error) {
			if !v.mounted.Load() {
				return
			}

			v.count(func(m *obs.Metrics) { m.TerminalFailures.Add(1) })
			logs.Errorf("%s channel gave up reconnecting: %+v", name, err)
		},
	}
}

// subscribeMode tells the detections producer which model to run. Sent
// once on every open, reconnects included.
func (v *View) subscribeMode() {
	v.mu.Lock()
	mode := v.params.Mode
	conn := v.detections
	v.mu.Unlock()

	payload, err := wire.EncodeSetMode(mode)
	if err != nil {
		logs.Errorf("encode set_mode: %+v", err)
		return
	}

	if !conn.Send(payload) {
		logs.Warnf("set_mode not sent, detections channel not open")
	}
}

func (v *View) ingestVideo(payload []byte) {
	msg, err := wire.Decode(payload)
	if err != nil {
		v.count(func(m *obs.Metrics) { m.MessagesIgnored.Add(1) })
		logs.Warnf("drop video message: %+v", err)
		return
	}

	switch m := msg.(type) {
	case wire.FrameMessage:
		frame := model.Frame{Payload: m.Payload, ReceivedAt: time.Now()}
		if err := v.opt.Compositor.OnFrame(frame); err != nil {
			logs.Warnf("drop frame: %+v", err)
		}
	case wire.ErrorMessage:
		logs.Warnf("video channel error from server: %s", m.Message)
	default:
		v.count(func(m *obs.Metrics) { m.MessagesIgnored.Add(1) })
	}
}

func (v *View) ingestDetections(payload []byte) {
	msg, err := wire.Decode(payload)
	if err != nil {
		v.count(func(m *obs.Metrics) { m.MessagesIgnored.Add(1) })
		logs.Warnf("drop detections message: %+v", err)
		return
	}

	switch m := msg.(type) {
	case wire.DetectionsMessage:
		v.count(func(met *obs.Metrics) {
			met.DetectionsKept.Add(uint64(len(m.Detections)))
			met.DetectionsDropped.Add(uint64(m.Dropped))
		})
		v.opt.Compositor.OnDetections(model.DetectionSet{Detections: m.Detections})
	case wire.ErrorMessage:
		logs.Warnf("detections channel error from server: %s", m.Message)
	default:
		v.count(func(m *obs.Metrics) { m.MessagesIgnored.Add(1) })
	}
}

func (v *View) count(fn func(m *obs.Metrics)) {
	if v.opt.Metrics != nil {
		fn(v.opt.Metrics)
	}
}
