package cache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bashchat/bashchatd/internal/wire"
)

func testEngine(t *testing.T) (*Engine, *DB) {
	t.Helper()
	db := testDB(t)
	e := NewEngine(db, zap.NewNop())
	e.Start(context.Background())
	t.Cleanup(e.Stop)
	return e, db
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestEngineMirrorsFriendList(t *testing.T) {
	e, db := testEngine(t)

	e.Ingest(&wire.Frame{
		Kind: wire.KindFriendList,
		FriendList: []wire.FriendEntry{
			{ID: 1, Friend: wire.Friend{Username: "alice", Name: "Alice"}, Preview: "hi"},
			{ID: 2, Friend: wire.Friend{Username: "bob"}, Preview: "yo"},
		},
	})

	waitFor(t, func() bool {
		convs, err := db.ListConversations(10)
		return err == nil && len(convs) == 2
	})

	c, err := db.GetConversationByUsername("alice")
	if err != nil {
		t.Fatal(err)
	}
	if c == nil || c.Preview != "hi" {
		t.Errorf("got %v, want alice with preview hi", c)
	}
}

func TestEngineMirrorsMessagePage(t *testing.T) {
	e, db := testEngine(t)

	e.Ingest(&wire.Frame{
		Kind: wire.KindMessageList,
		Page: &wire.MessagePage{
			ConnectionID: 7,
			Friend:       wire.Friend{Username: "alice"},
			Messages: []wire.Message{
				{ID: 10, Text: "newest"},
				{ID: 9, Text: "older"},
			},
		},
	})

	waitFor(t, func() bool {
		msgs, err := db.ListMessages(7, 0, 10)
		return err == nil && len(msgs) == 2
	})
}

func TestEngineMirrorsEchoAndBumpsPreview(t *testing.T) {
	e, db := testEngine(t)

	e.Ingest(&wire.Frame{
		Kind: wire.KindFriendNew,
		FriendNew: &wire.FriendEntry{
			ID:     7,
			Friend: wire.Friend{Username: "alice"},
		},
	})
	waitFor(t, func() bool {
		c, err := db.GetConversation(7)
		return err == nil && c != nil
	})

	e.Ingest(&wire.Frame{
		Kind: wire.KindMessageSend,
		Echo: &wire.MessageEcho{
			Message: wire.Message{ID: 42, ConnectionID: 7, Text: "fresh", Created: "2026-08-30T10:00:00Z"},
			Friend:  wire.Friend{Username: "alice"},
		},
	})

	waitFor(t, func() bool {
		c, err := db.GetConversation(7)
		return err == nil && c != nil && c.Preview == "fresh"
	})

	msgs, err := db.ListMessages(7, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].ID != 42 {
		t.Fatalf("got %v, want one message with id 42", msgs)
	}
}

func TestEngineSeenAndDeleted(t *testing.T) {
	e, db := testEngine(t)

	e.Ingest(&wire.Frame{
		Kind: wire.KindMessageList,
		Page: &wire.MessagePage{
			ConnectionID: 7,
			Messages:     []wire.Message{{ID: 1, Text: "a"}, {ID: 2, Text: "b"}},
		},
	})
	waitFor(t, func() bool {
		msgs, err := db.ListMessages(7, 0, 10)
		return err == nil && len(msgs) == 2
	})

	e.Ingest(&wire.Frame{Kind: wire.KindMessageSeen, Seen: &wire.SeenEvent{ID: 1}})
	waitFor(t, func() bool {
		msgs, err := db.ListMessages(7, 0, 10)
		if err != nil || len(msgs) != 2 {
			return false
		}
		for _, m := range msgs {
			if m.ID == 1 && m.Seen {
				return true
			}
		}
		return false
	})

	e.Ingest(&wire.Frame{Kind: wire.KindMessageDeleted, Deleted: &wire.DeletedEvent{MessageID: 2}})
	waitFor(t, func() bool {
		msgs, err := db.ListMessages(7, 0, 10)
		return err == nil && len(msgs) == 1 && msgs[0].ID == 1
	})
}
