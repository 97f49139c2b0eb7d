package client

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultRetryDelay is the reconnect interval after an abnormal closure.
const DefaultRetryDelay = 3 * time.Second

// Frame is one tagged message received on the channel. Raw holds the full
// frame body for the handler to decode against its expected payload type.
type Frame struct {
	Type string
	Raw  []byte
}

// Decode unmarshals the full frame into v.
func (f Frame) Decode(v any) error {
	return json.Unmarshal(f.Raw, v)
}

// ChannelConfig configures a Channel.
type ChannelConfig struct {
	URL string

	// OnFrame receives every well-formed inbound frame. Malformed frames
	// are dropped and logged; they do not affect connection health.
	OnFrame func(Frame)
	// OnError surfaces transport errors. The channel does not close or
	// reopen the connection on error; closure is driven by the close event.
	OnError func(error)
	// OnConnectionChange reports health transitions.
	OnConnectionChange func(connected bool)

	// RetryDelay between reconnect attempts after an abnormal closure.
	// Defaults to DefaultRetryDelay. Every abnormal close retries
	// indefinitely; only Close stops the loop.
	RetryDelay time.Duration
	// BackoffFactor, when above 1, grows the delay exponentially per failed
	// attempt up to MaxRetryDelay, optionally with Jitter. The default is a
	// constant delay.
	BackoffFactor float64
	MaxRetryDelay time.Duration
	Jitter        bool

	Dialer *websocket.Dialer
}

// Channel is a persistent duplex connection that delivers server-pushed
// frames and reconnects automatically on abnormal termination. At most one
// underlying connection is active at a time.
type Channel struct {
	cfg    ChannelConfig
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	rnd    *rand.Rand

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	closed    bool
	lastErr   string
	attempts  int
}

// OpenChannel starts the connection loop and returns immediately. A failed
// initial dial is treated like any abnormal closure: it is retried on the
// configured interval until Close is called.
func OpenChannel(cfg ChannelConfig) *Channel {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Channel{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	go c.run()
	return c
}

// Connected reports current connection health.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// LastError returns the most recent transport error message, cleared on a
// successful connect.
func (c *Channel) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Send writes a JSON message while the connection is healthy. Sends
// attempted while disconnected are silently dropped.
func (c *Channel) Send(v any) {
	c.mu.Lock()
	conn := c.conn
	ok := c.connected
	c.mu.Unlock()
	if !ok || conn == nil {
		return
	}
	if err := conn.WriteJSON(v); err != nil {
		c.reportError(err)
	}
}

// Close tears the channel down deliberately: it cancels any pending
// reconnect, sends the normal closure code, and never reconnects. Safe to
// call from any exit path, more than once.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		<-c.done
		return
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	c.cancel()
	if conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = conn.Close()
	}
	<-c.done
}

func (c *Channel) run() {
	defer close(c.done)
	for {
		conn, resp, err := c.cfg.Dialer.DialContext(c.ctx, c.cfg.URL, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			if c.isClosed() {
				return
			}
			c.reportError(err)
			if !c.waitRetry() {
				return
			}
			continue
		}

		if !c.attach(conn) {
			// Closed while the dial was in flight.
			_ = conn.Close()
			return
		}

		normal := c.readLoop(conn)
		c.detach(conn)

		if normal || c.isClosed() {
			return
		}
		if !c.waitRetry() {
			return
		}
	}
}

// readLoop delivers frames until the connection ends. It reports whether the
// closure was normal (code 1000), which never triggers a reconnect.
func (c *Channel) readLoop(conn *websocket.Conn) (normal bool) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return true
			}
			if !c.isClosed() {
				c.reportError(err)
			}
			return false
		}

		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &head); err != nil || head.Type == "" {
			log.Printf("channel: dropping malformed frame: %v", err)
			continue
		}
		if c.cfg.OnFrame != nil {
			c.cfg.OnFrame(Frame{Type: head.Type, Raw: data})
		}
	}
}

func (c *Channel) attach(conn *websocket.Conn) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.conn = conn
	c.connected = true
	c.lastErr = ""
	c.attempts = 0
	c.mu.Unlock()

	if c.cfg.OnConnectionChange != nil {
		c.cfg.OnConnectionChange(true)
	}
	return true
}

func (c *Channel) detach(conn *websocket.Conn) {
	_ = conn.Close()

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	wasConnected := c.connected
	c.connected = false
	c.mu.Unlock()

	if wasConnected && c.cfg.OnConnectionChange != nil {
		c.cfg.OnConnectionChange(false)
	}
}

func (c *Channel) waitRetry() bool {
	t := time.NewTimer(c.nextDelay())
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-c.ctx.Done():
		return false
	}
}

func (c *Channel) nextDelay() time.Duration {
	c.mu.Lock()
	attempt := c.attempts
	c.attempts++
	c.mu.Unlock()

	delay := c.cfg.RetryDelay
	if c.cfg.BackoffFactor > 1 {
		for i := 0; i < attempt; i++ {
			delay = time.Duration(float64(delay) * c.cfg.BackoffFactor)
			if c.cfg.MaxRetryDelay > 0 && delay >= c.cfg.MaxRetryDelay {
				delay = c.cfg.MaxRetryDelay
				break
			}
		}
		if c.cfg.Jitter && delay > 0 {
			delay = delay/2 + time.Duration(c.rnd.Int63n(int64(delay)/2+1))
		}
	}
	return delay
}

func (c *Channel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Channel) reportError(err error) {
	c.mu.Lock()
	c.lastErr = err.Error()
	c.mu.Unlock()
	if c.cfg.OnError != nil {
		c.cfg.OnError(err)
	}
}
