package badges

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/edukit/go-portal-notify/pkg/bus"
	"github.com/edukit/go-portal-notify/pkg/domain"
	"github.com/edukit/go-portal-notify/pkg/interfaces/logger"
	"github.com/edukit/go-portal-notify/pkg/interfaces/portal"
	"github.com/edukit/go-portal-notify/pkg/realtime"
)

// PushSource is the slice of the realtime client the tracker needs.
type PushSource interface {
	On(event string, fn realtime.Handler) realtime.Subscription
	Off(sub realtime.Subscription)
}

// Dependencies wires the counter endpoints and the refresh triggers.
type Dependencies struct {
	User     domain.UserRef
	Portal   portal.API
	Bus      *bus.Bus
	Realtime PushSource
	Logger   logger.Logger
}

// Service keeps the two unread badge counters. Counters are only ever
// replaced wholesale from the server endpoints; there is no local
// arithmetic, so the badges cannot drift from the authoritative state.
//
// Refresh triggers: construction (mount), RouteChanged, the two bus
// signals, a new-message push addressed to the user, and every
// new-announcement push. Triggers are not debounced; when refreshes
// overlap, the last response to resolve wins per counter.
type Service struct {
	user   domain.UserRef
	portal portal.API
	logger logger.Logger
	bus    *bus.Bus
	source PushSource

	mu      sync.Mutex
	counts  domain.UnreadCounts
	busSubs []bus.Subscription
	rtSubs  []realtime.Subscription
	closed  bool
}

var (
	errPortalRequired = errors.New("badges: portal api is required")
	errUserRequired   = errors.New("badges: user is required")
)

// NewService constructs the tracker and binds its triggers. The caller is
// expected to run the initial Refresh.
func NewService(deps Dependencies) (*Service, error) {
	if deps.Portal == nil {
		return nil, errPortalRequired
	}
	if deps.User.ID == "" {
		return nil, errUserRequired
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}

	s := &Service{
		user:   deps.User,
		portal: deps.Portal,
		logger: deps.Logger,
		bus:    deps.Bus,
		source: deps.Realtime,
	}
	if s.bus != nil {
		s.busSubs = append(s.busSubs,
			s.bus.Subscribe(bus.SignalMessagesRead, s.refreshTrigger),
			s.bus.Subscribe(bus.SignalAnnouncementsRead, s.refreshTrigger),
		)
	}
	if s.source != nil {
		s.rtSubs = append(s.rtSubs,
			s.source.On(domain.EventNewMessage, s.onMessagePush),
			s.source.On(domain.EventNewAnnouncement, s.onAnnouncementPush),
		)
	}
	return s, nil
}

// Counts returns the current badge counters.
func (s *Service) Counts() domain.UnreadCounts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts
}

// Refresh re-fetches both counters in parallel. Each counter is replaced
// on its own success and left untouched on failure; errors are logged and
// swallowed (a separate global layer owns user-visible REST errors).
func (s *Service) Refresh(ctx context.Context) {
	if s.isClosed() {
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.portal.UnreadMessageCount(ctx)
		if err != nil {
			s.logger.Warn("badges: message count fetch failed", logger.F("error", err))
			return nil
		}
		s.setMessages(n)
		return nil
	})
	g.Go(func() error {
		n, err := s.portal.UnreadAnnouncementCount(ctx)
		if err != nil {
			s.logger.Warn("badges: announcement count fetch failed", logger.F("error", err))
			return nil
		}
		s.setAnnouncements(n)
		return nil
	})
	_ = g.Wait()
}

// RouteChanged re-fetches the counters on an in-app navigation.
func (s *Service) RouteChanged(path string) {
	s.logger.Debug("badges: route changed", logger.F("path", path))
	s.Refresh(context.Background())
}

// Close unbinds every trigger and freezes the counters.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	busSubs := s.busSubs
	rtSubs := s.rtSubs
	s.busSubs = nil
	s.rtSubs = nil
	s.mu.Unlock()

	for _, sub := range busSubs {
		sub.Cancel()
	}
	for _, sub := range rtSubs {
		s.source.Off(sub)
	}
}

func (s *Service) refreshTrigger() {
	s.Refresh(context.Background())
}

func (s *Service) onMessagePush(payload []byte) {
	var p domain.MessagePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.logger.Warn("badges: malformed message push", logger.F("error", err))
		return
	}
	// messages are targeted; only a push for this user changes the badge
	if p.Recipient.ID != s.user.ID {
		return
	}
	s.Refresh(context.Background())
}

func (s *Service) onAnnouncementPush(payload []byte) {
	// announcements are broadcast, refresh unconditionally
	s.Refresh(context.Background())
}

func (s *Service) setMessages(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || n < 0 {
		return
	}
	s.counts.Messages = n
}

func (s *Service) setAnnouncements(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || n < 0 {
		return
	}
	s.counts.Announcements = n
}

func (s *Service) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
