package presence

import (
	"context"
	"time"

	"github.com/bashchat/bashchatd/internal/bus"
	"github.com/bashchat/bashchatd/internal/state"
	"go.uber.org/zap"
)

// Watcher polls the typing timestamp and announces expiry. The protocol
// has no stopped-typing frame, so polling against the 10 second window is
// the only way the indicator ever clears.
type Watcher struct {
	store    *state.Store
	bus      *bus.Bus
	logger   *zap.Logger
	interval time.Duration
	now      func() time.Time
	cancel   context.CancelFunc
}

// NewWatcher creates a watcher with the standard 1s poll interval.
func NewWatcher(store *state.Store, b *bus.Bus, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{store: store, bus: b, logger: logger, interval: time.Second, now: time.Now}
}

// Start begins polling until the context is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	go w.loop(ctx)
}

// Stop halts the poll loop.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
}

func (w *Watcher) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := w.now()
			if w.store.ExpireTyping(now) {
				w.logger.Debug("typing indicator expired")
				if w.bus != nil {
					w.bus.Publish(bus.Event{Kind: bus.KindTypingStopped, Timestamp: now})
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
