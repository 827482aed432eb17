package transport

import (
	"context"
	"errors"
)

// Fallback tries each dialer in preference order and returns the first
// connection that succeeds. Hosts use it to prefer websocket and fall back
// to a polling transport.
type Fallback struct {
	dialers []Dialer
}

// NewFallback assembles a dialer that tries the provided targets in order.
func NewFallback(dialers ...Dialer) *Fallback {
	filtered := make([]Dialer, 0, len(dialers))
	for _, d := range dialers {
		if d != nil {
			filtered = append(filtered, d)
		}
	}
	return &Fallback{dialers: filtered}
}

var _ Dialer = (*Fallback)(nil)

var errNoDialers = errors.New("transport: no dialers configured")

// Dial implements Dialer.
func (f *Fallback) Dial(ctx context.Context, url string, creds Credentials, cb Callbacks) (Conn, error) {
	var lastErr error
	for _, d := range f.dialers {
		conn, err := d.Dial(ctx, url, creds, cb)
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errNoDialers
	}
	return nil, lastErr
}
