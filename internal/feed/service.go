package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edukit/go-portal-notify/pkg/config"
	"github.com/edukit/go-portal-notify/pkg/domain"
	"github.com/edukit/go-portal-notify/pkg/interfaces/logger"
	"github.com/edukit/go-portal-notify/pkg/interfaces/portal"
	"github.com/edukit/go-portal-notify/pkg/realtime"
)

// PushSource is the slice of the realtime client the feed needs.
type PushSource interface {
	On(event string, fn realtime.Handler) realtime.Subscription
	Off(sub realtime.Subscription)
}

// Dependencies wires the REST reader and the push channel into the feed.
type Dependencies struct {
	User     domain.UserRef
	Portal   portal.API
	Realtime PushSource
	Logger   logger.Logger
	Config   config.FeedConfig
	// Now stands in for time.Now on live items whose payload carries no
	// usable timestamp.
	Now func() time.Time
}

// Service merges the one-time historical backfill with live push events
// into a single de-duplicated, capped notification feed.
//
// Only Seed sorts. Live items are prepended as they arrive, so a skewed
// historical timestamp can sit above a newer live item until the next seed.
type Service struct {
	user     domain.UserRef
	portal   portal.API
	source   PushSource
	logger   logger.Logger
	cfg      config.FeedConfig
	now      func() time.Time

	mu     sync.Mutex
	items  []domain.NotificationItem
	subs   []realtime.Subscription
	closed bool
}

var (
	errPortalRequired = errors.New("feed: portal api is required")
	errUserRequired   = errors.New("feed: user is required")
)

// NewService constructs the aggregator and binds its push handlers.
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
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Config.Capacity <= 0 {
		deps.Config = config.Defaults().Feed
	}

	s := &Service{
		user:   deps.User,
		portal: deps.Portal,
		source: deps.Realtime,
		logger: deps.Logger,
		cfg:    deps.Config,
		now:    deps.Now,
	}
	if s.source != nil {
		s.subs = append(s.subs,
			s.source.On(domain.EventNewMessage, s.onMessagePush),
			s.source.On(domain.EventNewAnnouncement, s.onAnnouncementPush),
		)
	}
	return s, nil
}

// Seed replaces the feed with the merged historical backfill: recent
// announcements and recent messages addressed to the user, newest first,
// truncated to capacity. Fetch failures are swallowed so a glitch in the
// notification feature never blocks the page; the feed simply keeps its
// previous contents.
func (s *Service) Seed(ctx context.Context) {
	var announcements []domain.Announcement
	var messages []domain.Message

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		announcements, err = s.portal.RecentAnnouncements(ctx, s.cfg.SeedAnnouncements)
		return err
	})
	g.Go(func() error {
		var err error
		messages, err = s.portal.RecentMessages(ctx, s.cfg.SeedMessages)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("feed: seed fetch failed", logger.F("error", err))
		return
	}

	merged := make([]domain.NotificationItem, 0, len(announcements)+len(messages))
	seen := make(map[string]bool)
	for _, a := range announcements {
		item := s.announcementItem(a)
		if !seen[item.ID] {
			seen[item.ID] = true
			merged = append(merged, item)
		}
	}
	for _, m := range messages {
		item := s.messageItem(m)
		if !seen[item.ID] {
			seen[item.ID] = true
			merged = append(merged, item)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})
	if len(merged) > s.cfg.Capacity {
		merged = merged[:s.cfg.Capacity]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.items = merged
}

// Items returns a copy of the current feed, newest first.
func (s *Service) Items() []domain.NotificationItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.NotificationItem(nil), s.items...)
}

// MarkRead flags a single item as read. Unknown ids are ignored.
func (s *Service) MarkRead(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Read = true
			return
		}
	}
}

// MarkAllRead flags every current item as read. Purely local: the server
// is not told, so a reseed reverts to whatever the server reports.
func (s *Service) MarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for i := range s.items {
		s.items[i].Read = true
	}
}

// Close unbinds the push handlers and freezes the feed. All further
// mutation is a no-op.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range subs {
		s.source.Off(sub)
	}
}

func (s *Service) onMessagePush(payload []byte) {
	var p domain.MessagePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.logger.Warn("feed: malformed message push", logger.F("error", err))
		return
	}
	// no self-notification
	if p.Sender.ID == s.user.ID {
		return
	}
	s.prepend(domain.NotificationItem{
		ID:        domain.ItemID(domain.KindMessage, p.ID),
		Kind:      domain.KindMessage,
		Title:     messageTitle(p.Sender),
		Timestamp: s.parseTime(p.SentAt),
		Link:      domain.KindMessage.Link(),
	})
}

func (s *Service) onAnnouncementPush(payload []byte) {
	var p domain.AnnouncementPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.logger.Warn("feed: malformed announcement push", logger.F("error", err))
		return
	}
	s.prepend(domain.NotificationItem{
		ID:        domain.ItemID(domain.KindAnnouncement, p.ID),
		Kind:      domain.KindAnnouncement,
		Title:     p.Title,
		Timestamp: s.parseTime(p.PostedAt),
		Link:      domain.KindAnnouncement.Link(),
	})
}

// prepend inserts a live item at the head and truncates to capacity. No
// re-sort happens here; the newest push is assumed newest.
func (s *Service) prepend(item domain.NotificationItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, existing := range s.items {
		if existing.ID == item.ID {
			return
		}
	}
	s.items = append([]domain.NotificationItem{item}, s.items...)
	if len(s.items) > s.cfg.Capacity {
		s.items = s.items[:s.cfg.Capacity]
	}
}

func (s *Service) announcementItem(a domain.Announcement) domain.NotificationItem {
	return domain.NotificationItem{
		ID:        domain.ItemID(domain.KindAnnouncement, a.ID),
		Kind:      domain.KindAnnouncement,
		Title:     a.Title,
		Timestamp: a.CreatedAt,
		Read:      a.ViewedBy(s.user.ID),
		Link:      domain.KindAnnouncement.Link(),
	}
}

func (s *Service) messageItem(m domain.Message) domain.NotificationItem {
	return domain.NotificationItem{
		ID:        domain.ItemID(domain.KindMessage, m.ID),
		Kind:      domain.KindMessage,
		Title:     messageTitle(m.Sender),
		Timestamp: m.CreatedAt,
		Read:      m.IsRead,
		Link:      domain.KindMessage.Link(),
	}
}

func messageTitle(sender domain.UserRef) string {
	if sender.Name == "" {
		return "New message"
	}
	return fmt.Sprintf("New message from %s", sender.Name)
}

func (s *Service) parseTime(raw string) time.Time {
	if raw == "" {
		return s.now()
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return s.now()
	}
	return ts
}
