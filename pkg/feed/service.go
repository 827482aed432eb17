package feed

import (
	"context"

	"github.com/edukit/go-portal-notify/internal/feed"
	"github.com/edukit/go-portal-notify/pkg/domain"
)

// Re-export commonly used types so callers don't depend on the internal package.
type (
	Dependencies = feed.Dependencies
	PushSource   = feed.PushSource
)

// Service exposes the notification feed to consumers.
type Service struct {
	internal *feed.Service
}

// New constructs the façade.
func New(deps Dependencies) (*Service, error) {
	internalSvc, err := feed.NewService(deps)
	if err != nil {
		return nil, err
	}
	return &Service{internal: internalSvc}, nil
}

// Seed loads the historical backfill and replaces the feed.
func (s *Service) Seed(ctx context.Context) {
	if s == nil || s.internal == nil {
		return
	}
	s.internal.Seed(ctx)
}

// Items returns a copy of the current feed, newest first.
func (s *Service) Items() []domain.NotificationItem {
	if s == nil || s.internal == nil {
		return nil
	}
	return s.internal.Items()
}

// MarkRead flags one item as read.
func (s *Service) MarkRead(id string) {
	if s == nil || s.internal == nil {
		return
	}
	s.internal.MarkRead(id)
}

// MarkAllRead flags every current item as read (local only).
func (s *Service) MarkAllRead() {
	if s == nil || s.internal == nil {
		return
	}
	s.internal.MarkAllRead()
}

// Close unbinds push handlers and freezes the feed.
func (s *Service) Close() {
	if s == nil || s.internal == nil {
		return
	}
	s.internal.Close()
}
