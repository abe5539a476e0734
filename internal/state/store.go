package state

import (
	"sync"
	"time"

	"github.com/bashchat/bashchatd/internal/bus"
	"github.com/bashchat/bashchatd/internal/wire"
	"go.uber.org/zap"
)

// Store is the in-memory state tree fed by inbound frames. It is owned by
// the composition root and injected into the dispatcher and the outbound
// coordinator; there is no ambient singleton.
//
// A single mutex serializes every mutation. The socket read loop is the
// only inbound caller, but outbound operations (optimistic sends, local
// deletes) and API reads run on other goroutines, so the lock is what
// preserves the one-mutation-at-a-time property the handlers assume.
type Store struct {
	mu     sync.Mutex
	bus    *bus.Bus
	logger *zap.Logger

	user wire.User

	friends       []wire.FriendEntry
	friendsLoaded bool

	// Active conversation. A page-0 load wipes all of this before the
	// request goes out so a conversation switch never shows stale rows.
	active     ConvKey
	messages   []wire.Message
	nextCursor *int64
	page       int64
	typingAt   time.Time

	requests       []wire.ConnectionEvent
	requestsLoaded bool

	search       []wire.SearchRow
	searchActive bool
}

// New creates an empty store.
func New(b *bus.Bus, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{bus: b, logger: logger}
}

// Reset wipes everything. Called on logout and on daemon teardown.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = wire.User{}
	s.friends = nil
	s.friendsLoaded = false
	s.active = ConvKey{}
	s.messages = nil
	s.nextCursor = nil
	s.page = 0
	s.typingAt = time.Time{}
	s.requests = nil
	s.requestsLoaded = false
	s.search = nil
	s.searchActive = false
}

// SetUser records the local account profile (from sign-in or a thumbnail
// frame). The request handlers branch on it to tell sender from receiver.
func (s *Store) SetUser(u wire.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

// User returns the local account profile.
func (s *Store) User() wire.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *Store) publish(kind string, payload any) {
	if s.bus != nil {
		s.bus.Publish(bus.Event{Kind: kind, Timestamp: time.Now(), Payload: payload})
	}
}
