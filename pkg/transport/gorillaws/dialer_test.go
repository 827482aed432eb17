package gorillaws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/edukit/go-portal-notify/pkg/interfaces/transport"
	"github.com/edukit/go-portal-notify/pkg/retry"
)

var upgrader = websocket.Upgrader{}

type receivedEvent struct {
	event   string
	payload string
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDialDeliversServerEvents(t *testing.T) {
	gotAuth := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth <- r.Header.Get("Authorization")
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		ws.WriteMessage(websocket.TextMessage, []byte(`{"event":"new-announcement","payload":{"id":"a1"}}`))
		// hold the connection open until the client disconnects
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	events := make(chan receivedEvent, 4)
	statuses := make(chan bool, 4)
	d := New(Options{})
	conn, err := d.Dial(context.Background(), wsURL(srv), transport.Credentials{Token: "tok-1"}, transport.Callbacks{
		OnEvent: func(event string, payload []byte) {
			events <- receivedEvent{event: event, payload: string(payload)}
		},
		OnStatus: func(connected bool) { statuses <- connected },
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if auth := <-gotAuth; auth != "Bearer tok-1" {
		t.Fatalf("expected bearer header, got %q", auth)
	}
	select {
	case s := <-statuses:
		if !s {
			t.Fatal("expected connected=true first")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for status")
	}
	select {
	case ev := <-events:
		if ev.event != "new-announcement" || !strings.Contains(ev.payload, `"a1"`) {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestEmitReachesServer(t *testing.T) {
	frames := make(chan frame, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var f frame
		if err := json.Unmarshal(data, &f); err == nil {
			frames <- f
		}
	}))
	t.Cleanup(srv.Close)

	d := New(Options{})
	conn, err := d.Dial(context.Background(), wsURL(srv), transport.Credentials{}, transport.Callbacks{})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := conn.Emit("join-room", "user-u1"); err != nil {
		t.Fatalf("emit: %v", err)
	}
	select {
	case f := <-frames:
		if f.Event != "join-room" || string(f.Payload) != `"user-u1"` {
			t.Fatalf("unexpected frame %+v", f)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for emitted frame")
	}
}

func TestReconnectAfterDrop(t *testing.T) {
	var mu sync.Mutex
	connCount := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		mu.Lock()
		connCount++
		n := connCount
		mu.Unlock()
		if n == 1 {
			ws.Close()
			return
		}
		defer ws.Close()
		ws.WriteMessage(websocket.TextMessage, []byte(`{"event":"new-message","payload":{}}`))
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	statuses := make(chan bool, 8)
	events := make(chan string, 8)
	d := New(Options{
		Reconnect: true,
		Backoff:   retry.ExponentialBackoff{Base: 10 * time.Millisecond, Max: 50 * time.Millisecond},
	})
	conn, err := d.Dial(context.Background(), wsURL(srv), transport.Credentials{}, transport.Callbacks{
		OnEvent:  func(event string, payload []byte) { events <- event },
		OnStatus: func(connected bool) { statuses <- connected },
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	want := []bool{true, false, true}
	for i, expected := range want {
		select {
		case s := <-statuses:
			if s != expected {
				t.Fatalf("status %d: expected %v, got %v", i, expected, s)
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for status %d", i)
		}
	}
	select {
	case ev := <-events:
		if ev != "new-message" {
			t.Fatalf("unexpected event %q", ev)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for post-reconnect event")
	}
}

func TestCloseStopsCallbacksAndEmit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	d := New(Options{Reconnect: true})
	conn, err := d.Dial(context.Background(), wsURL(srv), transport.Credentials{}, transport.Callbacks{})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("double close: %v", err)
	}
	if err := conn.Emit("join-room", "user-u1"); err == nil {
		t.Fatal("expected emit after close to fail")
	}
}
