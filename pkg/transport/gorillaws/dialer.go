package gorillaws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/edukit/go-portal-notify/pkg/interfaces/logger"
	"github.com/edukit/go-portal-notify/pkg/interfaces/transport"
	"github.com/edukit/go-portal-notify/pkg/retry"
)

// Dialer establishes websocket channel connections. Dropped connections are
// redialed behind the Conn handle with exponential backoff; the consumer
// keeps the same Conn and only observes OnStatus flips.
type Dialer struct {
	opts Options
}

// Options tune the websocket transport.
type Options struct {
	HandshakeTimeout time.Duration
	// Backoff paces the internal reconnect loop. DefaultBackoff when nil.
	Backoff retry.Backoff
	// Reconnect enables redialing after a transport-level drop.
	Reconnect bool
	Logger    logger.Logger
}

// New constructs a websocket dialer.
func New(opts Options) *Dialer {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	if opts.Backoff == nil {
		opts.Backoff = retry.DefaultBackoff()
	}
	if opts.Logger == nil {
		opts.Logger = &logger.Nop{}
	}
	return &Dialer{opts: opts}
}

var _ transport.Dialer = (*Dialer)(nil)

// frame is the wire format: one JSON object per websocket message.
type frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var errNotConnected = errors.New("gorillaws: not connected")

// Dial implements transport.Dialer.
func (d *Dialer) Dial(ctx context.Context, url string, creds transport.Credentials, cb transport.Callbacks) (transport.Conn, error) {
	ws, err := d.handshake(ctx, url, creds)
	if err != nil {
		return nil, err
	}

	c := &conn{
		dialer: d,
		url:    url,
		creds:  creds,
		cb:     cb,
		ws:     ws,
		done:   make(chan struct{}),
	}
	c.status(true)
	c.wg.Add(1)
	go c.readLoop()
	return c, nil
}

func (d *Dialer) handshake(ctx context.Context, url string, creds transport.Credentials) (*websocket.Conn, error) {
	wsDialer := websocket.Dialer{HandshakeTimeout: d.opts.HandshakeTimeout}
	header := http.Header{}
	if creds.Token != "" {
		header.Set("Authorization", "Bearer "+creds.Token)
	}
	ws, resp, err := wsDialer.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return ws, nil
}

type conn struct {
	dialer *Dialer
	url    string
	creds  transport.Credentials
	cb     transport.Callbacks

	mu     sync.Mutex
	ws     *websocket.Conn
	closed bool

	done chan struct{}
	wg   sync.WaitGroup
}

var _ transport.Conn = (*conn)(nil)

// Emit implements transport.Conn.
func (c *conn) Emit(event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(frame{Event: event, Payload: raw})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.ws == nil {
		return errNotConnected
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close implements transport.Conn. It waits for the read loop to exit, so
// no callback fires after Close returns.
func (c *conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	ws := c.ws
	c.ws = nil
	c.mu.Unlock()

	var err error
	if ws != nil {
		err = ws.Close()
	}
	c.wg.Wait()
	return err
}

func (c *conn) readLoop() {
	defer c.wg.Done()
	for {
		c.mu.Lock()
		ws := c.ws
		c.mu.Unlock()
		if ws == nil {
			return
		}

		_, data, err := ws.ReadMessage()
		if err != nil {
			if c.isClosed() {
				return
			}
			c.status(false)
			if !c.dialer.opts.Reconnect || !c.redial() {
				return
			}
			c.status(true)
			continue
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.dialer.opts.Logger.Warn("gorillaws: dropping malformed frame",
				logger.F("error", err))
			continue
		}
		if c.isClosed() {
			return
		}
		if c.cb.OnEvent != nil && f.Event != "" {
			c.cb.OnEvent(f.Event, f.Payload)
		}
	}
}

// redial replaces the underlying socket, pacing attempts with the dialer's
// backoff. Returns false once the conn is closed.
func (c *conn) redial() bool {
	for attempt := 1; ; attempt++ {
		select {
		case <-c.done:
			return false
		case <-time.After(c.dialer.opts.Backoff.Next(attempt)):
		}

		ws, err := c.dialer.handshake(context.Background(), c.url, c.creds)
		if err != nil {
			c.dialer.opts.Logger.Warn("gorillaws: reconnect failed",
				logger.F("attempt", attempt), logger.F("error", err))
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			ws.Close()
			return false
		}
		c.ws = ws
		c.mu.Unlock()
		return true
	}
}

func (c *conn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *conn) status(connected bool) {
	if c.isClosed() {
		return
	}
	if c.cb.OnStatus != nil {
		c.cb.OnStatus(connected)
	}
}
