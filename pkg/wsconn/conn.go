// Package wsconn owns the lifecycle of one websocket endpoint: URL policy,
// the Closed/Connecting/Open/Closing state machine, dirty-close
// classification, and capped exponential-backoff reconnection.
package wsconn

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/pkg/exception"
)

const (
	// DefaultMaxAttempts is the reconnect budget before the connection goes
	// terminal.
	DefaultMaxAttempts = 5
	// DefaultHandshakeTimeout bounds the websocket handshake.
	DefaultHandshakeTimeout = 10 * time.Second
	// DefaultReadLimit bounds a single inbound message. Slightly above the
	// frame payload cap so the ingest layer, not the transport, classifies
	// oversized frames.
	DefaultReadLimit = 16 << 20
)

// Option defines the connection runtime configuration.
type Option struct {
	// Backoff defines the reconnect delay schedule. Optional; default DefaultBackoff.
	Backoff Backoff
	// MaxAttempts caps consecutive failed reconnects. Optional; default 5.
	MaxAttempts int
	// Production rejects the insecure ws:// scheme before dialing. Optional; default false.
	Production bool
	// HandshakeTimeout bounds the dial handshake. Optional; default 10s.
	HandshakeTimeout time.Duration
	// ReadLimit bounds one inbound message in bytes. Optional; default DefaultReadLimit.
	ReadLimit int64

	// OnOpen runs after every successful open, including reconnects. Optional.
	OnOpen func()
	// OnMessage receives every inbound text/binary payload in delivery order. Optional.
	OnMessage func(payload []byte)
	// OnStateChange observes lifecycle transitions. Optional.
	OnStateChange func(state State)
	// OnRetryScheduled observes each scheduled reconnect with its delay. Optional.
	OnRetryScheduled func(attempt int, delay time.Duration)
	// OnTerminal runs once when the reconnect budget is exhausted. Optional.
	OnTerminal func(err error)
}

func (opt *Option) init() {
	if opt.MaxAttempts <= 0 {
		opt.MaxAttempts = DefaultMaxAttempts
	}
	if opt.HandshakeTimeout <= 0 {
		opt.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if opt.ReadLimit <= 0 {
		opt.ReadLimit = DefaultReadLimit
	}
	if opt.Backoff.Base == 0 && opt.Backoff.Max == 0 && opt.Backoff.Factor == 0 {
		opt.Backoff = DefaultBackoff()
	}
}

// Conn manages one websocket endpoint.
type Conn struct {
	id  string
	url string
	opt Option

	mu       sync.Mutex
	state    State
	attempt  int
	lastErr  error
	terminal bool
	sock     *websocket.Conn
	retry    *time.Timer
	ctx      context.Context
	// gen identifies one Connect session; bumped by Connect and Disconnect
	// so callbacks from a torn-down session are ignored.
	gen uint64

	writeMu sync.Mutex
}

// New builds a connection for the given endpoint URL. The URL is validated
// on Connect, not here.
func New(url string, option ...Option) *Conn {
	var opt Option
	if len(option) != 0 {
		opt = option[0]
	}
	opt.init()

	return &Conn{
		id:    uuid.NewString()[:8],
		url:   url,
		opt:   opt,
		state: StateClosed,
	}
}

// Connect validates the URL and starts dialing. It resets the attempt
// counter, so an explicit Connect also resumes a terminal connection.
// ctx bounds the handshake of each dial; closing the socket is the only
// cancellation for an established session.
func (c *Conn) Connect(ctx context.Context) error {
	if c == nil {
		return exception.ErrInvalidScheme
	}
	if err := ValidateURL(c.url, c.opt.Production); err != nil {
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	if c.state != StateClosed {
		c.mu.Unlock()
		return errors.Wrap(exception.ErrAlreadyConnected, c.state.String())
	}
	c.stopRetryLocked()
	if ctx == nil {
		ctx = context.Background()
	}
	c.ctx = ctx
	c.attempt = 0
	c.terminal = false
	c.lastErr = nil
	c.gen++
	gen := c.gen
	c.state = StateConnecting
	c.mu.Unlock()

	c.notifyState(StateConnecting)
	go c.dial(gen)
	return nil
}

// Disconnect performs a clean close: it cancels any pending reconnect timer
// and closes the socket only when the connection is Open or Connecting.
// Calling it on a Closed connection is a no-op.
func (c *Conn) Disconnect() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.stopRetryLocked()
	if c.state == StateClosed || c.state == StateClosing {
		c.mu.Unlock()
		return
	}
	sock := c.sock
	c.sock = nil
	c.gen++
	if sock == nil {
		c.state = StateClosed
		c.mu.Unlock()
		c.notifyState(StateClosed)
		return
	}
	c.state = StateClosing
	c.mu.Unlock()
	c.notifyState(StateClosing)

	deadline := time.Now().Add(time.Second)
	_ = sock.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	_ = sock.Close()

	c.mu.Lock()
	c.state = StateClosed
	c.mu.Unlock()
	c.notifyState(StateClosed)
}

// Send writes one text message. It is a no-op returning false whenever the
// connection is not Open; it never panics.
func (c *Conn) Send(payload []byte) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	sock := c.sock
	open := c.state == StateOpen
	c.mu.Unlock()
	if !open || sock == nil {
		return false
	}

	c.writeMu.Lock()
	err := sock.WriteMessage(websocket.TextMessage, payload)
	c.writeMu.Unlock()
	if err != nil {
		logs.Warnf("conn %s: send failed, err: %+v", c.id, err)
		return false
	}
	return true
}

// State returns the current lifecycle state.
func (c *Conn) State() State {
	if c == nil {
		return StateClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempt returns the consecutive failed-reconnect count. It resets to zero
// every time the connection opens.
func (c *Conn) Attempt() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempt
}

// LastErr returns the most recent connection error, if any.
func (c *Conn) LastErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Terminal reports whether the reconnect budget is exhausted. Only an
// explicit Connect resumes a terminal connection.
func (c *Conn) Terminal() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.terminal
}

// ID returns the short connection instance id used in logs.
func (c *Conn) ID() string { return c.id }

// URL returns the endpoint URL.
func (c *Conn) URL() string { return c.url }

func (c *Conn) stopRetryLocked() {
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
}

func (c *Conn) notifyState(state State) {
	if c.opt.OnStateChange != nil {
		c.opt.OnStateChange(state)
	}
}

func (c *Conn) dial(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.state != StateConnecting {
		c.mu.Unlock()
		return
	}
	ctx := c.ctx
	c.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: c.opt.HandshakeTimeout}
	sock, resp, err := dialer.DialContext(ctx, c.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	c.mu.Lock()
	if gen != c.gen || c.state != StateConnecting {
		c.mu.Unlock()
		if sock != nil {
			_ = sock.Close()
		}
		return
	}
	if err != nil {
		c.mu.Unlock()
		c.dirtyClose(gen, err)
		return
	}

	sock.SetReadLimit(c.opt.ReadLimit)
	c.sock = sock
	c.state = StateOpen
	c.attempt = 0
	c.lastErr = nil
	c.mu.Unlock()

	logs.Infof("conn %s: open %s", c.id, c.url)
	c.notifyState(StateOpen)
	if c.opt.OnOpen != nil {
		c.opt.OnOpen()
	}
	go c.readLoop(gen, sock)
}

func (c *Conn) readLoop(gen uint64, sock *websocket.Conn) {
	for {
		_, payload, err := sock.ReadMessage()
		if err != nil {
			c.onReadEnd(gen, err)
			return
		}
		if c.opt.OnMessage != nil {
			c.opt.OnMessage(payload)
		}
	}
}

func (c *Conn) onReadEnd(gen uint64, cause error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	// A normal closure from the peer is an expected close, not a failure.
	if websocket.IsCloseError(cause, websocket.CloseNormalClosure) {
		sock := c.sock
		c.sock = nil
		c.state = StateClosed
		c.mu.Unlock()
		if sock != nil {
			_ = sock.Close()
		}
		logs.Infof("conn %s: closed by peer", c.id)
		c.notifyState(StateClosed)
		return
	}
	c.mu.Unlock()
	c.dirtyClose(gen, cause)
}

// dirtyClose handles an unclean close: dial failure or a broken session.
// It either schedules the next reconnect or surfaces the terminal state.
func (c *Conn) dirtyClose(gen uint64, cause error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	if sock := c.sock; sock != nil {
		c.sock = nil
		_ = sock.Close()
	}
	c.state = StateClosed
	c.lastErr = cause

	if c.attempt >= c.opt.MaxAttempts {
		c.terminal = true
		c.lastErr = errors.Wrap(exception.ErrMaxAttemptsExceeded, cause.Error()).
			With("attempts", c.opt.MaxAttempts)
		terminalErr := c.lastErr
		c.mu.Unlock()

		logs.Errorf("conn %s: giving up after %d attempts, err: %+v", c.id, c.opt.MaxAttempts, cause)
		c.notifyState(StateClosed)
		if c.opt.OnTerminal != nil {
			c.opt.OnTerminal(terminalErr)
		}
		return
	}

	c.attempt++
	attempt := c.attempt
	delay := c.opt.Backoff.Next(attempt)
	c.retry = time.AfterFunc(delay, func() { c.redial(gen) })
	c.mu.Unlock()

	logs.Warnf("conn %s: dirty close, retry %d in %s, err: %+v", c.id, attempt, delay, cause)
	c.notifyState(StateClosed)
	if c.opt.OnRetryScheduled != nil {
		c.opt.OnRetryScheduled(attempt, delay)
	}
}

func (c *Conn) redial(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.state != StateClosed || c.terminal {
		c.mu.Unlock()
		return
	}
	c.retry = nil
	c.state = StateConnecting
	c.mu.Unlock()

	c.notifyState(StateConnecting)
	c.dial(gen)
}
