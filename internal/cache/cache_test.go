package cache

import (
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIdempotent(t *testing.T) {
	db := testDB(t)

	// testDB already ran Migrate; a second run must be a no-op.
	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 1 {
		t.Errorf("version = %d, want 1", result.Version)
	}
}

func TestConversationUpsertAndList(t *testing.T) {
	db := testDB(t)

	conv := &Conversation{ConnectionID: 7, Username: "alice", Name: "Alice", Preview: "hello"}
	if err := db.UpsertConversation(conv); err != nil {
		t.Fatal(err)
	}

	// Update preview.
	conv.Preview = "see you"
	if err := db.UpsertConversation(conv); err != nil {
		t.Fatal(err)
	}

	convs, err := db.ListConversations(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 1 {
		t.Fatalf("got %d conversations, want 1", len(convs))
	}
	if convs[0].Preview != "see you" {
		t.Errorf("preview = %q, want see you", convs[0].Preview)
	}
}

func TestReplaceConversations(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertConversation(&Conversation{ConnectionID: 1, Username: "old"}); err != nil {
		t.Fatal(err)
	}
	if err := db.ReplaceConversations([]Conversation{
		{ConnectionID: 2, Username: "alice"},
		{ConnectionID: 3, Username: "bob"},
	}); err != nil {
		t.Fatal(err)
	}

	convs, err := db.ListConversations(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 2 {
		t.Fatalf("got %d conversations, want 2", len(convs))
	}
	for _, c := range convs {
		if c.Username == "old" {
			t.Error("replaced set should not contain the old row")
		}
	}
}

func TestGetConversation(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertConversation(&Conversation{ConnectionID: 9, Username: "carol", Name: "Carol"}); err != nil {
		t.Fatal(err)
	}

	c, err := db.GetConversation(9)
	if err != nil {
		t.Fatal(err)
	}
	if c == nil || c.Name != "Carol" {
		t.Errorf("got %v, want Carol", c)
	}

	c, err = db.GetConversationByUsername("carol")
	if err != nil {
		t.Fatal(err)
	}
	if c == nil || c.ConnectionID != 9 {
		t.Errorf("got %v, want connection 9", c)
	}

	// Non-existent.
	c, err = db.GetConversation(404)
	if err != nil {
		t.Fatal(err)
	}
	if c != nil {
		t.Error("expected nil for missing conversation")
	}
}

func TestMessageUpsertIdempotent(t *testing.T) {
	db := testDB(t)

	msg := &Message{ID: 1, ConnectionID: 7, Text: "hello", Created: "2026-08-30T10:00:00Z"}
	if err := db.UpsertMessage(msg); err != nil {
		t.Fatal(err)
	}
	// Upsert again should not create a duplicate.
	msg.Seen = true
	if err := db.UpsertMessage(msg); err != nil {
		t.Fatal(err)
	}

	msgs, err := db.ListMessages(7, 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1 (idempotent upsert failed)", len(msgs))
	}
	if !msgs[0].Seen {
		t.Error("seen flag not updated")
	}
}

func TestMessageKeysetPagination(t *testing.T) {
	db := testDB(t)

	var batch []Message
	for i := int64(1); i <= 5; i++ {
		batch = append(batch, Message{ID: i, ConnectionID: 7, Text: "m"})
	}
	if err := db.UpsertMessages(batch); err != nil {
		t.Fatal(err)
	}

	first, err := db.ListMessages(7, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 2 || first[0].ID != 5 || first[1].ID != 4 {
		t.Fatalf("first page = %v, want ids 5,4", first)
	}

	second, err := db.ListMessages(7, first[len(first)-1].ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 2 || second[0].ID != 3 || second[1].ID != 2 {
		t.Fatalf("second page = %v, want ids 3,2", second)
	}
}

func TestMessageWaveformRoundTrip(t *testing.T) {
	db := testDB(t)

	voice := "audio.mp3"
	msg := &Message{ID: 1, ConnectionID: 7, Voice: &voice, Waveform: []float64{0.1, 0.5, 0.9}}
	if err := db.UpsertMessage(msg); err != nil {
		t.Fatal(err)
	}

	msgs, err := db.ListMessages(7, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if len(msgs[0].Waveform) != 3 || msgs[0].Waveform[1] != 0.5 {
		t.Errorf("waveform = %v, want [0.1 0.5 0.9]", msgs[0].Waveform)
	}
	if msgs[0].Voice == nil || *msgs[0].Voice != "audio.mp3" {
		t.Errorf("voice not preserved: %v", msgs[0].Voice)
	}
}

func TestMarkSeenAndDelete(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertMessage(&Message{ID: 1, ConnectionID: 7, Text: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := db.MarkSeen(1); err != nil {
		t.Fatal(err)
	}

	msgs, err := db.ListMessages(7, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !msgs[0].Seen || !msgs[0].Delivered {
		t.Error("MarkSeen should set both seen and delivered")
	}

	if err := db.DeleteMessage(1); err != nil {
		t.Fatal(err)
	}
	// Deleting again is a no-op.
	if err := db.DeleteMessage(1); err != nil {
		t.Fatal(err)
	}

	msgs, err = db.ListMessages(7, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("got %d messages after delete, want 0", len(msgs))
	}
}
