package state

import (
	"testing"
	"time"

	"github.com/bashchat/bashchatd/internal/wire"
)

func newTestStore() *Store {
	return New(nil, nil)
}

func int64p(v int64) *int64 { return &v }

func page(next *int64, username string, connID int64, msgs ...wire.Message) *wire.MessagePage {
	return &wire.MessagePage{
		Messages: msgs,
		Next:     next,
		Friend:   wire.Friend{Username: username, ConnectionID: connID},
	}
}

func msg(id int64, text string) wire.Message {
	return wire.Message{ID: id, Text: text, Created: "2024-03-10T12:00:00Z"}
}

func TestFreshLoadReplacesLog(t *testing.T) {
	s := newTestStore()

	s.BeginLoad(ConvKey{ID: 3, Username: "alice"}, 0)
	s.ApplyMessagePage(page(nil, "alice", 3, msg(1, "old one"), msg(2, "old two")))

	// Switch to another conversation: the wipe happens before the request,
	// so the log is empty even before the response lands.
	s.BeginLoad(ConvKey{ID: 7, Username: "bob"}, 0)
	if got := s.Messages(); len(got) != 0 {
		t.Fatalf("log after fresh load request = %d messages, want 0", len(got))
	}

	s.ApplyMessagePage(page(nil, "bob", 7, msg(9, "hi")))
	got := s.Messages()
	if len(got) != 1 || got[0].ID != 9 {
		t.Fatalf("log = %+v, want exactly the new conversation's page", got)
	}
}

func TestStalePageFromPreviousConversationDropped(t *testing.T) {
	s := newTestStore()

	s.BeginLoad(ConvKey{ID: 3, Username: "alice"}, 0)
	// Meanwhile the user switched; the newer load owns the store now.
	s.BeginLoad(ConvKey{ID: 7, Username: "bob"}, 0)

	// Old conversation's response arrives late.
	s.ApplyMessagePage(page(nil, "alice", 3, msg(1, "stale")))
	if got := s.Messages(); len(got) != 0 {
		t.Fatalf("stale page was applied: %+v", got)
	}

	s.ApplyMessagePage(page(nil, "bob", 7, msg(9, "fresh")))
	got := s.Messages()
	if len(got) != 1 || got[0].Text != "fresh" {
		t.Fatalf("log = %+v, want only the fresh page", got)
	}
}

func TestPaginationAppendsAndFreezes(t *testing.T) {
	s := newTestStore()

	s.BeginLoad(ConvKey{ID: 7, Username: "bob"}, 0)
	s.ApplyMessagePage(page(int64p(1), "bob", 7, msg(1, "a")))
	if s.Page() != 1 {
		t.Fatalf("page = %d, want 1", s.Page())
	}
	cursor, ok := s.NextCursor()
	if !ok || cursor != 1 {
		t.Fatalf("cursor = %d/%v, want 1/true", cursor, ok)
	}

	s.BeginLoad(ConvKey{ID: 7, Username: "bob"}, cursor)
	s.ApplyMessagePage(page(nil, "bob", 7, msg(2, "b")))

	got := s.Messages()
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("log = %+v, want append order [1 2]", got)
	}
	if _, ok := s.NextCursor(); ok {
		t.Fatal("cursor should be exhausted")
	}
	// Page counter frozen once next is null.
	if s.Page() != 1 {
		t.Errorf("page = %d, want frozen at 1", s.Page())
	}
}

func TestSinglePageScenario(t *testing.T) {
	s := newTestStore()

	s.BeginLoad(ConvKey{ID: 7}, 0)
	s.ApplyMessagePage(page(nil, "bob", 7, msg(1, "hi")))

	got := s.Messages()
	if len(got) != 1 || got[0].Text != "hi" {
		t.Fatalf("log = %+v, want one message", got)
	}
	if _, ok := s.NextCursor(); ok {
		t.Fatal("cursor should be null")
	}
	// The key learned its username from the response.
	if s.Active().Username != "bob" {
		t.Errorf("active username = %q, want bob", s.Active().Username)
	}
}

func TestEchoForInactiveConversationDropped(t *testing.T) {
	s := newTestStore()
	s.BeginLoad(ConvKey{ID: 7, Username: "alice"}, 0)
	s.ApplyMessagePage(page(nil, "alice", 7))

	s.ApplyMessageSend(&wire.MessageEcho{
		Message: wire.Message{ID: 9, Text: "for bob"},
		Friend:  wire.Friend{Username: "bob"},
	})
	if got := s.Messages(); len(got) != 0 {
		t.Fatalf("cross-conversation echo appended: %+v", got)
	}
}

func TestEchoConnectionIDMismatchDropped(t *testing.T) {
	s := newTestStore()
	s.BeginLoad(ConvKey{ID: 7, Username: "alice"}, 0)
	s.ApplyMessagePage(page(nil, "alice", 7))

	s.ApplyMessageSend(&wire.MessageEcho{
		Message: wire.Message{ID: 9, Text: "hi", ConnectionID: 8},
		Friend:  wire.Friend{Username: "alice"},
	})
	if got := s.Messages(); len(got) != 0 {
		t.Fatalf("mismatched connection_id echo appended: %+v", got)
	}
}

func TestEchoAppendsAndClearsTyping(t *testing.T) {
	s := newTestStore()
	s.BeginLoad(ConvKey{ID: 7, Username: "alice"}, 0)
	s.ApplyMessagePage(page(nil, "alice", 7))

	s.ApplyTyping("alice")
	if !s.TypingActive(time.Now()) {
		t.Fatal("typing should be active")
	}

	s.ApplyMessageSend(&wire.MessageEcho{
		Message: wire.Message{ID: 9, Text: "hi", ConnectionID: 7},
		Friend:  wire.Friend{Username: "alice"},
	})
	got := s.Messages()
	if len(got) != 1 || got[0].ID != 9 {
		t.Fatalf("log = %+v, want the echo appended", got)
	}
	if s.TypingActive(time.Now()) {
		t.Error("typing should be cleared by the echo")
	}
}

func TestEchoReconcilesPendingOptimisticMessage(t *testing.T) {
	s := newTestStore()
	s.BeginLoad(ConvKey{ID: 7, Username: "alice"}, 0)
	s.ApplyMessagePage(page(nil, "alice", 7, msg(1, "earlier")))

	s.ApplyLocalSend(7, wire.Message{ClientID: "c1", Pending: true, IsMe: true, Text: "hello"})
	if got := s.Messages(); len(got) != 2 || !got[1].Pending {
		t.Fatalf("log = %+v, want pending message at tail", got)
	}

	s.ApplyMessageSend(&wire.MessageEcho{
		Message: wire.Message{ID: 42, IsMe: true, Text: "hello", Delivered: true},
		Friend:  wire.Friend{Username: "alice"},
	})

	got := s.Messages()
	if len(got) != 2 {
		t.Fatalf("log = %+v, want echo to replace the pending copy, not append", got)
	}
	if got[1].ID != 42 || got[1].Pending {
		t.Errorf("reconciled message = %+v, want server copy with id 42", got[1])
	}
}

func TestLocalSendToBackgroundConversationNotMirrored(t *testing.T) {
	s := newTestStore()
	s.BeginLoad(ConvKey{ID: 3, Username: "alice"}, 0)
	s.ApplyMessagePage(page(nil, "alice", 3, msg(1, "hey alice")))

	s.ApplyLocalSend(99, wire.Message{ClientID: "c1", Pending: true, IsMe: true, Text: "hi bob"})

	got := s.Messages()
	if len(got) != 1 || got[0].Text != "hey alice" {
		t.Fatalf("log = %+v, want only alice's rows", got)
	}
	for _, m := range got {
		if m.Pending {
			t.Errorf("stray pending row in log: %+v", m)
		}
	}
}

func TestSeenImpliesDelivered(t *testing.T) {
	s := newTestStore()
	s.BeginLoad(ConvKey{ID: 7, Username: "alice"}, 0)
	s.ApplyMessagePage(page(nil, "alice", 7, msg(1, "a")))

	s.ApplySeen(1)
	got := s.Messages()
	if !got[0].Seen || !got[0].Delivered {
		t.Errorf("message = %+v, want seen and delivered", got[0])
	}

	// Idempotent.
	s.ApplySeen(1)
	s.ApplySeen(99) // unknown id is a no-op
	got = s.Messages()
	if len(got) != 1 || !got[0].Seen || !got[0].Delivered {
		t.Errorf("after repeat: %+v", got)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	s := newTestStore()
	s.BeginLoad(ConvKey{ID: 7, Username: "alice"}, 0)
	s.ApplyMessagePage(page(nil, "alice", 7, msg(1, "a"), msg(2, "b"), msg(3, "c")))

	// Optimistic local delete, then the server confirms the same ids.
	s.ApplyLocalDelete([]int64{1, 3})
	if got := s.Messages(); len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("log = %+v, want only id 2", got)
	}

	s.ApplyDeleted(1)
	s.ApplyDeleted(3)
	if got := s.Messages(); len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("log after server confirms = %+v, want unchanged", got)
	}
}

func TestTypingScopedToActiveConversation(t *testing.T) {
	s := newTestStore()
	s.BeginLoad(ConvKey{ID: 7, Username: "bob"}, 0)
	s.ApplyMessagePage(page(nil, "bob", 7))

	// Typing signal for a conversation that is not open.
	s.ApplyTyping("alice")
	if s.TypingActive(time.Now()) {
		t.Fatal("typing for a background conversation must not become visible")
	}

	s.ApplyTyping("bob")
	if !s.TypingActive(time.Now()) {
		t.Fatal("typing for the open conversation should be active")
	}
}

func TestTypingExpiry(t *testing.T) {
	s := newTestStore()
	s.BeginLoad(ConvKey{ID: 7, Username: "bob"}, 0)
	s.ApplyMessagePage(page(nil, "bob", 7))
	s.ApplyTyping("bob")

	now := time.Now()
	if s.ExpireTyping(now) {
		t.Fatal("fresh typing state must not expire")
	}
	if !s.ExpireTyping(now.Add(11 * time.Second)) {
		t.Fatal("typing should expire after 10s")
	}
	// Second expiry is a no-op.
	if s.ExpireTyping(now.Add(12 * time.Second)) {
		t.Fatal("expiry should fire exactly once")
	}
	if s.TypingActive(now.Add(12 * time.Second)) {
		t.Fatal("typing should be inactive after expiry")
	}
}

func TestResetWipesEverything(t *testing.T) {
	s := newTestStore()
	s.SetUser(wire.User{Username: "me"})
	s.BeginLoad(ConvKey{ID: 7, Username: "bob"}, 0)
	s.ApplyMessagePage(page(nil, "bob", 7, msg(1, "a")))
	s.ApplyFriendList([]wire.FriendEntry{{ID: 1}})

	s.Reset()

	if got := s.Messages(); len(got) != 0 {
		t.Errorf("messages after reset: %+v", got)
	}
	if _, loaded := s.Friends(); loaded {
		t.Error("friends should be unloaded after reset")
	}
	if u := s.User(); u.Username != "" {
		t.Errorf("user after reset: %+v", u)
	}
	if !s.Active().IsZero() {
		t.Errorf("active key after reset: %+v", s.Active())
	}
}
