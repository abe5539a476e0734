package state

import (
	"time"

	"github.com/bashchat/bashchatd/internal/bus"
	"github.com/bashchat/bashchatd/internal/wire"
	"go.uber.org/zap"
)

// typingExpiry is how long a typing indicator stays live without a fresh
// message.type frame. There is no stopped-typing frame; expiry is the only
// way the indicator clears.
const typingExpiry = 10 * time.Second

// BeginLoad prepares the store for a message.list request. Page 0 is a
// fresh load: the message log, cursor, typing state and active identity
// are wiped before the request goes out, so switching conversations never
// shows the previous conversation's rows, not even momentarily. Pages
// beyond 0 only clear the cursor until the response restores it.
func (s *Store) BeginLoad(key ConvKey, page int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page == 0 {
		s.messages = nil
		s.nextCursor = nil
		s.typingAt = time.Time{}
		s.page = 0
		s.active = key
		return
	}
	s.nextCursor = nil
}

// ApplyMessagePage folds a message.list response into the conversation
// log. A response whose friend identity does not match the conversation
// currently being loaded is stale (an older load racing a newer one) and
// is dropped. The first page replaces the log, later pages append; the
// page counter only advances while the server reports more history, so
// once Next is null further LoadMore calls are no-ops.
func (s *Store) ApplyMessagePage(p *wire.MessagePage) {
	s.mu.Lock()

	id := p.ConnectionID
	if id == 0 {
		id = p.Friend.ConnectionID
	}
	username := p.Friend.Username

	if !s.active.IsZero() && !s.active.Matches(id, username) {
		active := s.activeLabel()
		s.mu.Unlock()
		s.logger.Debug("dropping stale message page",
			zap.String("username", username),
			zap.Int64("connection_id", id),
			zap.String("active", active))
		return
	}

	// Adopt identity from the response: the priming load has no target,
	// and a username-only key learns its authoritative ID here.
	s.active.Username = username
	if s.active.ID == 0 && id != 0 {
		s.active.ID = id
	}

	if s.page == 0 {
		s.messages = append([]wire.Message(nil), p.Messages...)
	} else {
		s.messages = append(s.messages, p.Messages...)
	}
	s.nextCursor = p.Next
	if p.Next != nil {
		s.page++
	}
	key := s.active
	s.mu.Unlock()

	s.publish(bus.KindChatPage, key)
}

// NextCursor returns the pagination cursor, or ok=false when history is
// exhausted (or no page has loaded yet).
func (s *Store) NextCursor() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nextCursor == nil {
		return 0, false
	}
	return *s.nextCursor, true
}

// ApplyLocalSend appends an optimistic pending message when the send is
// addressed to the active conversation. A send targeting a background
// conversation is not mirrored locally: its echo would be rejected by the
// cross-conversation guard in ApplyMessageSend, leaving the pending row
// stranded in the wrong log forever. The server echo later reconciles an
// accepted copy via ApplyMessageSend.
func (s *Store) ApplyLocalSend(connectionID int64, m wire.Message) {
	s.mu.Lock()
	if !s.active.Matches(connectionID, "") {
		active := s.activeLabel()
		s.mu.Unlock()
		s.logger.Debug("skipping optimistic copy for background send",
			zap.Int64("connection_id", connectionID),
			zap.String("active", active))
		return
	}
	s.messages = append(s.messages, m)
	s.mu.Unlock()
	s.publish(bus.KindChatMessage, m)
}

// ApplyMessageSend folds a message.send echo into state. The friend list
// preview is bumped for the echoed conversation whether or not it is the
// active one; the message itself is only accepted into the log when the
// echo addresses the active conversation, which keeps a hot background
// conversation from leaking rows into the open one. An accepted echo
// replaces the oldest matching pending optimistic copy, or appends at the
// chronological tail, and clears the typing indicator.
func (s *Store) ApplyMessageSend(echo *wire.MessageEcho) {
	username := echo.Friend.Username
	msg := echo.Message

	s.bumpFriend(username, msg.Text, msg.Created)

	s.mu.Lock()
	if s.active.ID != 0 && msg.ConnectionID != 0 && s.active.ID != msg.ConnectionID {
		s.mu.Unlock()
		return
	}
	if username != s.active.Username {
		active := s.activeLabel()
		s.mu.Unlock()
		s.logger.Debug("dropping cross-conversation echo",
			zap.String("username", username),
			zap.String("active", active))
		return
	}

	if i := s.findPending(msg.Text); i >= 0 {
		s.messages[i] = msg
	} else {
		s.messages = append(s.messages, msg)
	}
	s.typingAt = time.Time{}
	s.mu.Unlock()

	s.publish(bus.KindChatMessage, msg)
}

// findPending returns the index of the oldest pending optimistic message
// with the given text, or -1. Caller holds the lock.
func (s *Store) findPending(text string) int {
	for i, m := range s.messages {
		if m.Pending && m.Text == text {
			return i
		}
	}
	return -1
}

// ApplySeen marks a message seen (and therefore delivered). Idempotent.
func (s *Store) ApplySeen(id int64) {
	s.mu.Lock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].Seen = true
			s.messages[i].Delivered = true
		}
	}
	s.mu.Unlock()
	s.publish(bus.KindChatSeen, id)
}

// ApplyDeleted removes a message by id. Idempotent: deleting an id that is
// already gone leaves state unchanged.
func (s *Store) ApplyDeleted(id int64) {
	s.mu.Lock()
	kept := s.messages[:0]
	for _, m := range s.messages {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	s.messages = kept
	s.mu.Unlock()
	s.publish(bus.KindChatDeleted, []int64{id})
}

// ApplyLocalDelete removes a set of message ids before the server
// confirms. The later server delete frames for the same ids are no-ops.
func (s *Store) ApplyLocalDelete(ids []int64) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	s.mu.Lock()
	kept := s.messages[:0]
	for _, m := range s.messages {
		if !drop[m.ID] {
			kept = append(kept, m)
		}
	}
	s.messages = kept
	s.mu.Unlock()
	s.publish(bus.KindChatDeleted, ids)
}

// ApplyTyping records a typing signal. Signals from anyone other than the
// active conversation's counterpart are ignored, so a background
// conversation never lights the open one's indicator.
func (s *Store) ApplyTyping(username string) {
	s.mu.Lock()
	if s.active.Username == "" || username != s.active.Username {
		s.mu.Unlock()
		return
	}
	s.typingAt = time.Now()
	s.mu.Unlock()
	s.publish(bus.KindTypingStarted, username)
}

// TypingActive reports whether the typing indicator is live at the given
// instant.
func (s *Store) TypingActive(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.typingAt.IsZero() && now.Sub(s.typingAt) < typingExpiry
}

// ExpireTyping clears a stale typing timestamp. Returns true when an
// expiry actually happened, so the caller can announce it exactly once.
func (s *Store) ExpireTyping(now time.Time) bool {
	s.mu.Lock()
	expired := !s.typingAt.IsZero() && now.Sub(s.typingAt) >= typingExpiry
	if expired {
		s.typingAt = time.Time{}
	}
	s.mu.Unlock()
	return expired
}

// Active returns the active conversation key.
func (s *Store) Active() ConvKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Messages returns a copy of the active conversation's message log in
// arrival order.
func (s *Store) Messages() []wire.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]wire.Message(nil), s.messages...)
}

// Page returns the page counter for the active conversation.
func (s *Store) Page() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// activeLabel renders the active key for logs. Caller holds the lock.
func (s *Store) activeLabel() string {
	if s.active.Username != "" {
		return s.active.Username
	}
	return "(none)"
}
