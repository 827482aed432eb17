package badges

import (
	"context"

	"github.com/edukit/go-portal-notify/internal/badges"
	"github.com/edukit/go-portal-notify/pkg/domain"
)

// Re-export commonly used types so callers don't depend on the internal package.
type (
	Dependencies = badges.Dependencies
	PushSource   = badges.PushSource
)

// Service exposes the unread badge tracker to consumers.
type Service struct {
	internal *badges.Service
}

// New constructs the façade.
func New(deps Dependencies) (*Service, error) {
	internalSvc, err := badges.NewService(deps)
	if err != nil {
		return nil, err
	}
	return &Service{internal: internalSvc}, nil
}

// Counts returns the current badge counters.
func (s *Service) Counts() domain.UnreadCounts {
	if s == nil || s.internal == nil {
		return domain.UnreadCounts{}
	}
	return s.internal.Counts()
}

// Refresh re-fetches both counters.
func (s *Service) Refresh(ctx context.Context) {
	if s == nil || s.internal == nil {
		return
	}
	s.internal.Refresh(ctx)
}

// RouteChanged refreshes the counters on an in-app navigation.
func (s *Service) RouteChanged(path string) {
	if s == nil || s.internal == nil {
		return
	}
	s.internal.RouteChanged(path)
}

// Close unbinds every trigger and freezes the counters.
func (s *Service) Close() {
	if s == nil || s.internal == nil {
		return
	}
	s.internal.Close()
}
