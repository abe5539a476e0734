package presence

import (
	"context"
	"testing"
	"time"

	"github.com/bashchat/bashchatd/internal/bus"
	"github.com/bashchat/bashchatd/internal/state"
	"github.com/bashchat/bashchatd/internal/wire"
)

func typingStore(t *testing.T, b *bus.Bus) *state.Store {
	t.Helper()
	store := state.New(b, nil)
	store.BeginLoad(state.ConvKey{ID: 7, Username: "alice"}, 0)
	store.ApplyMessagePage(&wire.MessagePage{Friend: wire.Friend{Username: "alice", ConnectionID: 7}})
	store.ApplyTyping("alice")
	return store
}

func TestWatcherAnnouncesExpiry(t *testing.T) {
	b := bus.New()
	store := typingStore(t, b)
	ch, unsub := b.Subscribe("typing.", 10)
	defer unsub()

	w := NewWatcher(store, b, nil)
	w.interval = 5 * time.Millisecond
	// Clock far past the 10s window, so the first poll expires it.
	w.now = func() time.Time { return time.Now().Add(time.Minute) }
	w.Start(context.Background())
	defer w.Stop()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-ch:
			if evt.Kind == bus.KindTypingStopped {
				if store.TypingActive(time.Now().Add(time.Minute)) {
					t.Error("typing still active after expiry")
				}
				return
			}
		case <-deadline:
			t.Fatal("timeout waiting for typing.stopped")
		}
	}
}

func TestWatcherQuietWhileIndicatorLive(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("typing.", 10)
	defer unsub()
	store := typingStore(t, b)

	// Drain typing.started.
	<-ch

	w := NewWatcher(store, b, nil)
	w.interval = 5 * time.Millisecond
	w.Start(context.Background())
	defer w.Stop()

	select {
	case evt := <-ch:
		t.Fatalf("unexpected event while indicator live: %v", evt.Kind)
	case <-time.After(50 * time.Millisecond):
	}
	if !store.TypingActive(time.Now()) {
		t.Error("typing should still be active")
	}
}

func TestWatcherStops(t *testing.T) {
	store := state.New(nil, nil)
	w := NewWatcher(store, nil, nil)
	w.interval = time.Millisecond
	w.Start(context.Background())
	w.Stop()
	// Stopping twice must not panic.
	w.Stop()
}
