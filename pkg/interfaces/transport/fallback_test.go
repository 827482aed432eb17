package transport

import (
	"context"
	"errors"
	"testing"
)

func TestFallbackPrefersFirstWorkingDialer(t *testing.T) {
	failed := errors.New("refused")
	var dialed []string
	first := DialerFunc(func(ctx context.Context, url string, creds Credentials, cb Callbacks) (Conn, error) {
		dialed = append(dialed, "websocket")
		return nil, failed
	})
	second := DialerFunc(func(ctx context.Context, url string, creds Credentials, cb Callbacks) (Conn, error) {
		dialed = append(dialed, "polling")
		return nopConn{}, nil
	})

	conn, err := NewFallback(first, second).Dial(context.Background(), "wss://x", Credentials{}, Callbacks{})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if conn == nil {
		t.Fatal("expected a connection from the fallback dialer")
	}
	if len(dialed) != 2 || dialed[0] != "websocket" || dialed[1] != "polling" {
		t.Fatalf("expected preference order preserved, got %v", dialed)
	}
}

func TestFallbackReturnsLastError(t *testing.T) {
	boom := errors.New("boom")
	d := DialerFunc(func(ctx context.Context, url string, creds Credentials, cb Callbacks) (Conn, error) {
		return nil, boom
	})
	if _, err := NewFallback(d, nil).Dial(context.Background(), "wss://x", Credentials{}, Callbacks{}); !errors.Is(err, boom) {
		t.Fatalf("expected last dial error, got %v", err)
	}
}

func TestFallbackWithoutDialersErrors(t *testing.T) {
	if _, err := NewFallback().Dial(context.Background(), "wss://x", Credentials{}, Callbacks{}); err == nil {
		t.Fatal("expected error when no dialers are configured")
	}
}
