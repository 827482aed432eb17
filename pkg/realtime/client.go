package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/edukit/go-portal-notify/pkg/domain"
	"github.com/edukit/go-portal-notify/pkg/interfaces/logger"
	"github.com/edukit/go-portal-notify/pkg/interfaces/toast"
	"github.com/edukit/go-portal-notify/pkg/interfaces/transport"
)

// Handler consumes the raw JSON payload of a named push event.
type Handler func(payload []byte)

// Dependencies wires the transport and side channels into the client.
type Dependencies struct {
	Dialer  transport.Dialer
	URL     string
	Toaster toast.Toaster
	Logger  logger.Logger
}

// Client maintains at most one live realtime connection per authenticated
// session. Consumers register handlers for named server pushes; the handler
// registry is owned here, so handlers survive transport-level reconnects.
//
// Connection failures are logged and reflected in Connected() only; they
// are never returned to callers, and the client itself never retries (the
// transport owns reconnection).
type Client struct {
	deps Dependencies

	mu       sync.Mutex
	status   domain.ConnectionStatus
	conn     transport.Conn
	userID   string
	handlers map[string][]handlerEntry
}

type handlerEntry struct {
	id uuid.UUID
	fn Handler
}

// Subscription identifies a registered handler for Off.
type Subscription struct {
	event string
	id    uuid.UUID
}

var (
	errDialerRequired = errors.New("realtime: dialer is required")
	errURLRequired    = errors.New("realtime: channel url is required")
)

// toastTitles is the fixed allow-list of push events surfaced as toasts,
// independent of any registered handlers. Not configurable.
var toastTitles = map[string]string{
	domain.EventNewMessage:           "New message received",
	domain.EventNewAnnouncement:      "New announcement posted",
	domain.EventAssignmentGraded:     "An assignment was graded",
	domain.EventQuizAvailable:        "A new quiz is available",
	domain.EventXPGained:             "You gained XP",
	domain.EventLevelUp:              "You leveled up",
	domain.EventBadgeEarned:          "You earned a badge",
	domain.EventNewAttendanceSession: "Attendance session opened",
}

// New constructs the channel client.
func New(deps Dependencies) (*Client, error) {
	if deps.Dialer == nil {
		return nil, errDialerRequired
	}
	if deps.URL == "" {
		return nil, errURLRequired
	}
	if deps.Toaster == nil {
		deps.Toaster = &toast.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	return &Client{
		deps:     deps,
		status:   domain.StatusDisconnected,
		handlers: make(map[string][]handlerEntry),
	}, nil
}

// Connect establishes the channel for the given user and joins their room.
// Calling it while already connected for the same user is a no-op; a
// different user tears the previous channel down first. Failures are
// logged, never returned.
func (c *Client) Connect(ctx context.Context, user domain.UserRef, token string) {
	if user.ID == "" || token == "" {
		return
	}

	c.mu.Lock()
	var stale transport.Conn
	if c.status != domain.StatusDisconnected {
		if c.userID == user.ID {
			c.mu.Unlock()
			return
		}
		stale = c.conn
		c.teardownLocked()
	}
	c.status = domain.StatusConnecting
	c.userID = user.ID
	c.mu.Unlock()

	if stale != nil {
		if err := stale.Close(); err != nil {
			c.deps.Logger.Warn("realtime: close previous channel", logger.F("error", err))
		}
	}

	conn, err := c.deps.Dialer.Dial(ctx, c.deps.URL, transport.Credentials{Token: token}, transport.Callbacks{
		OnEvent:  c.dispatch,
		OnStatus: c.onStatus,
	})
	if err != nil {
		c.deps.Logger.Error("realtime: connect failed",
			logger.F("user", user.ID), logger.F("error", err))
		c.mu.Lock()
		if c.userID == user.ID {
			c.status = domain.StatusDisconnected
		}
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	c.conn = conn
	if c.status == domain.StatusConnecting {
		c.status = domain.StatusConnected
	}
	c.mu.Unlock()

	c.joinRoom(user.ID)
	c.deps.Logger.Info("realtime: connected", logger.F("user", user.ID))
}

// Disconnect tears the channel down and clears all local state, including
// the handler registry. Safe to call when already disconnected.
func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.teardownLocked()
	c.mu.Unlock()

	if conn != nil {
		// Close waits for the transport's read loop, so no handler fires
		// after Disconnect returns.
		if err := conn.Close(); err != nil {
			c.deps.Logger.Warn("realtime: close", logger.F("error", err))
		}
		c.deps.Logger.Info("realtime: disconnected")
	}
}

func (c *Client) teardownLocked() {
	c.conn = nil
	c.userID = ""
	c.status = domain.StatusDisconnected
	c.handlers = make(map[string][]handlerEntry)
}

// Connected reports transport liveness.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status == domain.StatusConnected
}

// Status returns the current lifecycle state.
func (c *Client) Status() domain.ConnectionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// On registers a handler for a named server push. Handlers run in
// registration order on the transport's read goroutine.
func (c *Client) On(event string, fn Handler) Subscription {
	if event == "" || fn == nil {
		return Subscription{}
	}
	id := uuid.New()
	c.mu.Lock()
	c.handlers[event] = append(c.handlers[event], handlerEntry{id: id, fn: fn})
	c.mu.Unlock()
	return Subscription{event: event, id: id}
}

// Off unregisters a handler. Unknown subscriptions are ignored.
func (c *Client) Off(sub Subscription) {
	if sub.event == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := c.handlers[sub.event]
	for i, e := range entries {
		if e.id == sub.id {
			c.handlers[sub.event] = append(entries[:i:i], entries[i+1:]...)
			break
		}
	}
	if len(c.handlers[sub.event]) == 0 {
		delete(c.handlers, sub.event)
	}
}

// Emit sends a named event to the server. Silently dropped while not
// connected; callers must not assume delivery.
func (c *Client) Emit(event string, payload any) {
	c.mu.Lock()
	conn := c.conn
	connected := c.status == domain.StatusConnected
	c.mu.Unlock()
	if !connected || conn == nil {
		return
	}
	if err := conn.Emit(event, payload); err != nil {
		c.deps.Logger.Warn("realtime: emit failed",
			logger.F("event", event), logger.F("error", err))
	}
}

func (c *Client) joinRoom(userID string) {
	c.Emit(domain.EventJoinRoom, domain.UserRoom(userID))
}

// dispatch fans a push event out to registered handlers, then surfaces the
// allow-listed toast regardless of registrations.
func (c *Client) dispatch(event string, payload []byte) {
	c.mu.Lock()
	entries := append([]handlerEntry(nil), c.handlers[event]...)
	active := c.status != domain.StatusDisconnected
	c.mu.Unlock()
	if !active {
		return
	}

	for _, e := range entries {
		e.fn(payload)
	}
	if title, ok := toastTitles[event]; ok {
		c.deps.Toaster.Show(toast.Toast{Event: event, Title: title})
	}
}

// onStatus tracks transport liveness, re-joining the user room whenever the
// transport comes (back) up. The disconnected state is always entered via
// connecting on the way up.
func (c *Client) onStatus(connected bool) {
	c.mu.Lock()
	if c.userID == "" {
		c.mu.Unlock()
		return
	}
	userID := c.userID
	if connected {
		if c.status == domain.StatusDisconnected {
			c.status = domain.StatusConnecting
		}
		c.status = domain.StatusConnected
	} else {
		c.status = domain.StatusDisconnected
	}
	hasConn := c.conn != nil
	c.mu.Unlock()

	if connected && hasConn {
		c.joinRoom(userID)
	}
}
