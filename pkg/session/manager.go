package session

import (
	"context"
	"errors"
	"sync"

	"github.com/edukit/go-portal-notify/pkg/badges"
	"github.com/edukit/go-portal-notify/pkg/bus"
	"github.com/edukit/go-portal-notify/pkg/config"
	"github.com/edukit/go-portal-notify/pkg/domain"
	"github.com/edukit/go-portal-notify/pkg/feed"
	"github.com/edukit/go-portal-notify/pkg/interfaces/logger"
	"github.com/edukit/go-portal-notify/pkg/interfaces/portal"
	"github.com/edukit/go-portal-notify/pkg/interfaces/toast"
	"github.com/edukit/go-portal-notify/pkg/interfaces/transport"
	"github.com/edukit/go-portal-notify/pkg/portalapi"
	"github.com/edukit/go-portal-notify/pkg/realtime"
	"github.com/edukit/go-portal-notify/pkg/transport/gorillaws"
)

// APIFactory builds a REST client bound to the session's bearer token.
type APIFactory func(token string) (portal.API, error)

// Dependencies wires the manager. Only Config is mandatory; everything
// else has a production default.
type Dependencies struct {
	Config  config.Config
	Dialer  transport.Dialer
	Bus     *bus.Bus
	Toaster toast.Toaster
	Logger  logger.Logger
	// API overrides the default portalapi-backed factory, mainly in tests.
	API APIFactory
}

// Manager owns the notification stack for the authenticated session. The
// realtime connection is acquired on Login and released on Logout, never
// held as a module-global: losing the user or the token must always tear
// everything down.
type Manager struct {
	deps Dependencies

	mu      sync.Mutex
	current *Session
}

// Session bundles the per-login services.
type Session struct {
	user     domain.UserRef
	realtime *realtime.Client
	feed     *feed.Service
	badges   *badges.Service
}

// User returns the authenticated user this session belongs to.
func (s *Session) User() domain.UserRef { return s.user }

// Feed returns the notification feed.
func (s *Session) Feed() *feed.Service { return s.feed }

// Badges returns the unread badge tracker.
func (s *Session) Badges() *badges.Service { return s.badges }

// Realtime returns the channel client, nil when realtime is disabled.
func (s *Session) Realtime() *realtime.Client { return s.realtime }

var (
	errUserRequired  = errors.New("session: user is required")
	errTokenRequired = errors.New("session: token is required")
)

// NewManager constructs the session manager.
func NewManager(deps Dependencies) (*Manager, error) {
	if err := deps.Config.Validate(); err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	if deps.Bus == nil {
		deps.Bus = bus.New()
	}
	if deps.Toaster == nil {
		deps.Toaster = &toast.Nop{}
	}
	if deps.Dialer == nil {
		deps.Dialer = gorillaws.New(gorillaws.Options{
			Reconnect: true,
			Logger:    deps.Logger,
		})
	}
	if deps.API == nil {
		cfg := deps.Config.API
		deps.API = func(token string) (portal.API, error) {
			return portalapi.New(cfg.BaseURL, token, portalapi.Options{Timeout: cfg.Timeout})
		}
	}
	return &Manager{deps: deps}, nil
}

// Bus returns the cross-component event bus pages publish their
// read-state signals on.
func (m *Manager) Bus() *bus.Bus {
	return m.deps.Bus
}

// Login acquires the notification stack for the user: REST client,
// realtime channel, seeded feed, refreshed badges. Calling it again for
// the same user returns the live session unchanged; a different user
// logs the previous one out first.
func (m *Manager) Login(ctx context.Context, user domain.UserRef, token string) (*Session, error) {
	if user.ID == "" {
		return nil, errUserRequired
	}
	if token == "" {
		return nil, errTokenRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		if m.current.user.ID == user.ID {
			return m.current, nil
		}
		m.teardownLocked()
	}

	api, err := m.deps.API(token)
	if err != nil {
		return nil, err
	}

	var rt *realtime.Client
	if m.deps.Config.Realtime.Enabled {
		toaster := m.deps.Toaster
		if !m.deps.Config.Toasts.Enabled {
			toaster = &toast.Nop{}
		}
		rt, err = realtime.New(realtime.Dependencies{
			Dialer:  m.deps.Dialer,
			URL:     m.deps.Config.Realtime.URL,
			Toaster: toaster,
			Logger:  m.deps.Logger,
		})
		if err != nil {
			return nil, err
		}
		rt.Connect(ctx, user, token)
	}

	feedDeps := feed.Dependencies{
		User:   user,
		Portal: api,
		Logger: m.deps.Logger,
		Config: m.deps.Config.Feed,
	}
	badgeDeps := badges.Dependencies{
		User:   user,
		Portal: api,
		Bus:    m.deps.Bus,
		Logger: m.deps.Logger,
	}
	if rt != nil {
		feedDeps.Realtime = rt
		badgeDeps.Realtime = rt
	}

	feedSvc, err := feed.New(feedDeps)
	if err != nil {
		m.releaseRealtime(rt)
		return nil, err
	}
	badgeSvc, err := badges.New(badgeDeps)
	if err != nil {
		feedSvc.Close()
		m.releaseRealtime(rt)
		return nil, err
	}

	feedSvc.Seed(ctx)
	badgeSvc.Refresh(ctx)

	m.current = &Session{
		user:     user,
		realtime: rt,
		feed:     feedSvc,
		badges:   badgeSvc,
	}
	m.deps.Logger.Info("session: logged in", logger.F("user", user.ID))
	return m.current, nil
}

// Logout releases the active session. Safe to call when nobody is logged in.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked()
}

// RouteChanged forwards an in-app navigation to the active session's
// badge tracker. A no-op while nobody is logged in.
func (m *Manager) RouteChanged(path string) {
	m.mu.Lock()
	current := m.current
	m.mu.Unlock()
	if current != nil {
		current.badges.RouteChanged(path)
	}
}

func (m *Manager) teardownLocked() {
	if m.current == nil {
		return
	}
	// release in reverse acquisition order
	m.current.badges.Close()
	m.current.feed.Close()
	m.releaseRealtime(m.current.realtime)
	m.deps.Logger.Info("session: logged out", logger.F("user", m.current.user.ID))
	m.current = nil
}

func (m *Manager) releaseRealtime(rt *realtime.Client) {
	if rt != nil {
		rt.Disconnect()
	}
}
