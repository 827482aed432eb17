package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/edukit/go-portal-notify/pkg/bus"
	"github.com/edukit/go-portal-notify/pkg/config"
	"github.com/edukit/go-portal-notify/pkg/domain"
	"github.com/edukit/go-portal-notify/pkg/interfaces/portal"
	"github.com/edukit/go-portal-notify/pkg/interfaces/transport"
)

type countingAPI struct {
	portal.Nop
	countCalls atomic.Int32
	unread     int32
}

func (c *countingAPI) UnreadMessageCount(ctx context.Context) (int, error) {
	c.countCalls.Add(1)
	return int(c.unread), nil
}

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.API.BaseURL = "https://portal.example.com/api"
	cfg.API.Timeout = time.Second
	cfg.Realtime.URL = "wss://portal.example.com/ws"
	return cfg
}

func newTestManager(t *testing.T, api *countingAPI) *Manager {
	t.Helper()
	m, err := NewManager(Dependencies{
		Config: testConfig(),
		Dialer: &transport.Nop{},
		API: func(token string) (portal.API, error) {
			return api, nil
		},
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestLoginAcquiresStack(t *testing.T) {
	api := &countingAPI{unread: 3}
	m := newTestManager(t, api)

	sess, err := m.Login(context.Background(), domain.UserRef{ID: "u1"}, "tok")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Realtime() == nil || !sess.Realtime().Connected() {
		t.Fatal("expected live realtime channel")
	}
	if got := sess.Badges().Counts(); got.Messages != 3 {
		t.Fatalf("expected initial badge refresh, got %+v", got)
	}
}

func TestLoginIsIdempotentForSameUser(t *testing.T) {
	api := &countingAPI{}
	m := newTestManager(t, api)

	first, err := m.Login(context.Background(), domain.UserRef{ID: "u1"}, "tok")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	second, err := m.Login(context.Background(), domain.UserRef{ID: "u1"}, "tok")
	if err != nil {
		t.Fatalf("login again: %v", err)
	}
	if first != second {
		t.Fatal("expected the same session for the same user")
	}
}

func TestLoginSwitchesUsers(t *testing.T) {
	api := &countingAPI{}
	m := newTestManager(t, api)

	first, err := m.Login(context.Background(), domain.UserRef{ID: "u1"}, "tok")
	if err != nil {
		t.Fatalf("login u1: %v", err)
	}
	second, err := m.Login(context.Background(), domain.UserRef{ID: "u2"}, "tok2")
	if err != nil {
		t.Fatalf("login u2: %v", err)
	}
	if second == first {
		t.Fatal("expected a fresh session for the new user")
	}
	if first.Realtime().Connected() {
		t.Fatal("expected previous session torn down")
	}
	if second.User().ID != "u2" {
		t.Fatalf("expected u2 session, got %s", second.User().ID)
	}
}

func TestLogoutReleasesEverything(t *testing.T) {
	api := &countingAPI{unread: 1}
	m := newTestManager(t, api)

	sess, err := m.Login(context.Background(), domain.UserRef{ID: "u1"}, "tok")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	before := api.countCalls.Load()

	m.Logout()
	m.Logout() // safe when nobody is logged in

	if sess.Realtime().Connected() {
		t.Fatal("expected realtime disconnected on logout")
	}
	m.Bus().Publish(bus.SignalMessagesRead)
	m.RouteChanged("/dashboard")
	if api.countCalls.Load() != before {
		t.Fatal("expected no refreshes after logout")
	}
}

func TestLoginValidatesInput(t *testing.T) {
	m := newTestManager(t, &countingAPI{})
	if _, err := m.Login(context.Background(), domain.UserRef{}, "tok"); err == nil {
		t.Fatal("expected error for missing user")
	}
	if _, err := m.Login(context.Background(), domain.UserRef{ID: "u1"}, ""); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestRouteChangedReachesActiveSession(t *testing.T) {
	api := &countingAPI{}
	m := newTestManager(t, api)
	if _, err := m.Login(context.Background(), domain.UserRef{ID: "u1"}, "tok"); err != nil {
		t.Fatalf("login: %v", err)
	}
	before := api.countCalls.Load()

	m.RouteChanged("/courses")

	if api.countCalls.Load() != before+1 {
		t.Fatal("expected route change to refresh badges")
	}
}

func TestNewManagerRejectsInvalidConfig(t *testing.T) {
	_, err := NewManager(Dependencies{Config: config.Config{}})
	if err == nil {
		t.Fatal("expected config validation error")
	}
}
