package transport

import "context"

// Credentials authenticate the channel handshake.
type Credentials struct {
	Token string
}

// Callbacks are invoked by the transport from its read loop. OnEvent fires
// once per server-pushed frame with the raw JSON payload. OnStatus fires on
// every liveness change, including internal reconnects.
type Callbacks struct {
	OnEvent  func(event string, payload []byte)
	OnStatus func(connected bool)
}

// Conn is a live bidirectional channel. Reconnection, if any, happens
// behind this handle; callers keep the same Conn across transport-level
// drops.
type Conn interface {
	// Emit sends a named event with a JSON-encodable payload.
	Emit(event string, payload any) error
	// Close tears the channel down. No callbacks fire after Close returns.
	Close() error
}

// Dialer establishes realtime channel connections.
type Dialer interface {
	Dial(ctx context.Context, url string, creds Credentials, cb Callbacks) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, url string, creds Credentials, cb Callbacks) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context, url string, creds Credentials, cb Callbacks) (Conn, error) {
	return f(ctx, url, creds, cb)
}

// Nop is a dialer whose connections accept emits and never deliver events.
type Nop struct{}

var _ Dialer = (*Nop)(nil)

func (n *Nop) Dial(ctx context.Context, url string, creds Credentials, cb Callbacks) (Conn, error) {
	return nopConn{}, nil
}

type nopConn struct{}

func (nopConn) Emit(event string, payload any) error { return nil }
func (nopConn) Close() error                         { return nil }
