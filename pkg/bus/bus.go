package bus

import (
	"sync"

	"github.com/google/uuid"
)

// Signal is a typed, payload-less broadcast name. Pages publish a signal
// after changing server-side read state with direct REST calls; the badge
// tracker subscribes and re-fetches. Typed names avoid the collisions an
// ambient string channel invites.
type Signal string

// Portal signals. Both currently trigger the same counter refresh; they
// stay separate so the two feeds can diverge later without a migration.
const (
	SignalMessagesRead      Signal = "messages-read"
	SignalAnnouncementsRead Signal = "announcements-read"
)

// Bus is a synchronous, in-process, best-effort broadcaster. Publishing
// with no subscribers is a silent no-op; there is no queue and no delivery
// to late subscribers.
type Bus struct {
	mu        sync.RWMutex
	listeners map[Signal]map[uuid.UUID]func()
}

// New constructs an empty bus.
func New() *Bus {
	return &Bus{listeners: make(map[Signal]map[uuid.UUID]func())}
}

// Subscription undoes a Subscribe.
type Subscription struct {
	bus    *Bus
	signal Signal
	id     uuid.UUID
}

// Cancel unregisters the listener. Safe to call more than once.
func (s Subscription) Cancel() {
	if s.bus == nil {
		return
	}
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	if set, ok := s.bus.listeners[s.signal]; ok {
		delete(set, s.id)
		if len(set) == 0 {
			delete(s.bus.listeners, s.signal)
		}
	}
}

// Subscribe registers fn for the signal. fn runs synchronously on the
// publisher's goroutine.
func (b *Bus) Subscribe(signal Signal, fn func()) Subscription {
	if fn == nil {
		return Subscription{}
	}
	id := uuid.New()
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.listeners[signal]
	if !ok {
		set = make(map[uuid.UUID]func())
		b.listeners[signal] = set
	}
	set[id] = fn
	return Subscription{bus: b, signal: signal, id: id}
}

// Publish invokes every current listener for the signal.
func (b *Bus) Publish(signal Signal) {
	b.mu.RLock()
	fns := make([]func(), 0, len(b.listeners[signal]))
	for _, fn := range b.listeners[signal] {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}
