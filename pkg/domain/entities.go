package domain

import (
	"fmt"
	"time"
)

// Kind discriminates the two notification sources merged into the feed.
type Kind string

const (
	KindMessage      Kind = "message"
	KindAnnouncement Kind = "announcement"
)

// Link returns the route a notification of this kind should open.
func (k Kind) Link() string {
	switch k {
	case KindMessage:
		return "/messages"
	case KindAnnouncement:
		return "/announcements"
	default:
		return "/"
	}
}

// UserRef identifies a portal user on the wire.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NotificationItem is a single entry in the merged notification feed.
// ID is derived as "{kind}-{sourceID}" so items from the historical seed
// and the live push channel de-duplicate against each other.
type NotificationItem struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
	Link      string    `json:"link"`
}

// ItemID builds the feed-unique identifier for a source record.
func ItemID(kind Kind, sourceID string) string {
	return fmt.Sprintf("%s-%s", kind, sourceID)
}

// AnnouncementView marks that a user has seen an announcement.
type AnnouncementView struct {
	User string `json:"user"`
}

// Announcement mirrors the portal's announcement resource.
type Announcement struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Body      string             `json:"body,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	Views     []AnnouncementView `json:"views,omitempty"`
}

// ViewedBy reports whether the given user appears in the view marker list.
func (a Announcement) ViewedBy(userID string) bool {
	for _, v := range a.Views {
		if v.User == userID {
			return true
		}
	}
	return false
}

// Message mirrors the portal's direct message resource.
type Message struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body,omitempty"`
	Sender    UserRef   `json:"sender"`
	Recipient UserRef   `json:"recipient"`
	CreatedAt time.Time `json:"createdAt"`
	IsRead    bool      `json:"isRead"`
}

// UnreadCounts carries the two server-authoritative badge counters. They
// are always replaced wholesale from the counter endpoints, never computed
// client-side from the feed.
type UnreadCounts struct {
	Messages      int `json:"messages"`
	Announcements int `json:"announcements"`
}

// ConnectionStatus tracks the realtime channel lifecycle. Valid transitions
// are disconnected -> connecting -> connected -> disconnected only.
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
)
