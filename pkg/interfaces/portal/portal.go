package portal

import (
	"context"

	"github.com/edukit/go-portal-notify/pkg/domain"
)

// API is the read contract against the portal's REST endpoints. The feed
// and badge services only ever read through it; all writes (marking
// messages read, posting announcements) happen elsewhere in the host
// application and are signalled back via the event bus.
type API interface {
	// RecentAnnouncements returns the most recent announcements, newest first.
	RecentAnnouncements(ctx context.Context, limit int) ([]domain.Announcement, error)
	// RecentMessages returns the most recent messages addressed to the
	// authenticated user, newest first.
	RecentMessages(ctx context.Context, limit int) ([]domain.Message, error)
	// UnreadMessageCount returns the server-side unread message counter.
	UnreadMessageCount(ctx context.Context) (int, error)
	// UnreadAnnouncementCount returns the server-side unread announcement counter.
	UnreadAnnouncementCount(ctx context.Context) (int, error)
}

// Nop API returns empty results. Useful for tests and partial wiring.
type Nop struct{}

var _ API = (*Nop)(nil)

func (n *Nop) RecentAnnouncements(ctx context.Context, limit int) ([]domain.Announcement, error) {
	return nil, nil
}

func (n *Nop) RecentMessages(ctx context.Context, limit int) ([]domain.Message, error) {
	return nil, nil
}

func (n *Nop) UnreadMessageCount(ctx context.Context) (int, error) { return 0, nil }

func (n *Nop) UnreadAnnouncementCount(ctx context.Context) (int, error) { return 0, nil }
