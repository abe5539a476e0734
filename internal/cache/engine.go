package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bashchat/bashchatd/internal/wire"
)

// Engine mirrors inbound frames into the cache so conversation history
// survives restarts. Ingestion runs on its own goroutine; Ingest never
// blocks the socket read loop.
type Engine struct {
	db     *DB
	logger *zap.Logger
	frames chan *wire.Frame
	cancel context.CancelFunc
}

// NewEngine creates a new cache engine.
func NewEngine(db *DB, logger *zap.Logger) *Engine {
	return &Engine{
		db:     db,
		logger: logger,
		frames: make(chan *wire.Frame, 256),
	}
}

// Start launches the ingestion goroutine.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)

	go func() {
		for {
			select {
			case f := <-e.frames:
				if err := e.ingest(f); err != nil {
					e.logger.Error("cache ingest failed", zap.Error(err), zap.String("kind", string(f.Kind)))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the engine.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

// Ingest queues a decoded frame for mirroring. Frames are dropped with a
// warning when the queue is full.
func (e *Engine) Ingest(f *wire.Frame) {
	select {
	case e.frames <- f:
	default:
		e.logger.Warn("cache queue full, dropping frame", zap.String("kind", string(f.Kind)))
	}
}

func (e *Engine) ingest(f *wire.Frame) error {
	switch f.Kind {
	case wire.KindFriendList:
		convs := make([]Conversation, 0, len(f.FriendList))
		for _, entry := range f.FriendList {
			convs = append(convs, conversationFromEntry(entry))
		}
		if err := e.db.ReplaceConversations(convs); err != nil {
			return fmt.Errorf("replace conversations: %w", err)
		}

	case wire.KindFriendNew:
		c := conversationFromEntry(*f.FriendNew)
		if err := e.db.UpsertConversation(&c); err != nil {
			return fmt.Errorf("upsert conversation: %w", err)
		}

	case wire.KindMessageList:
		connID := f.Page.ConnectionID
		if connID == 0 {
			connID = f.Page.Friend.ConnectionID
		}
		if connID == 0 {
			return nil
		}
		msgs := make([]Message, 0, len(f.Page.Messages))
		for _, m := range f.Page.Messages {
			msgs = append(msgs, messageFromWire(m, connID))
		}
		if err := e.db.UpsertMessages(msgs); err != nil {
			return fmt.Errorf("upsert page: %w", err)
		}

	case wire.KindMessageSend:
		connID := f.Echo.Message.ConnectionID
		if connID == 0 {
			connID = f.Echo.Friend.ConnectionID
		}
		if connID == 0 {
			return nil
		}
		m := messageFromWire(f.Echo.Message, connID)
		if err := e.db.UpsertMessage(&m); err != nil {
			return fmt.Errorf("upsert message: %w", err)
		}
		if conv, err := e.db.GetConversation(connID); err == nil && conv != nil {
			conv.Preview = f.Echo.Message.Text
			conv.Updated = f.Echo.Message.Created
			if err := e.db.UpsertConversation(conv); err != nil {
				return fmt.Errorf("bump conversation: %w", err)
			}
		}

	case wire.KindMessageSeen:
		if err := e.db.MarkSeen(f.Seen.ID); err != nil {
			return fmt.Errorf("mark seen: %w", err)
		}

	case wire.KindMessageDeleted:
		if err := e.db.DeleteMessage(f.Deleted.MessageID); err != nil {
			return fmt.Errorf("delete message: %w", err)
		}
	}
	return nil
}

func conversationFromEntry(entry wire.FriendEntry) Conversation {
	return Conversation{
		ConnectionID: entry.ID,
		Username:     entry.Friend.Username,
		Name:         entry.Friend.Name,
		Thumbnail:    entry.Friend.Thumbnail,
		Preview:      entry.Preview,
		Updated:      entry.Updated,
	}
}

func messageFromWire(m wire.Message, connID int64) Message {
	return Message{
		ID:            m.ID,
		ConnectionID:  connID,
		IsMe:          m.IsMe,
		Text:          m.Text,
		Image:         m.Image,
		Voice:         m.Voice,
		Waveform:      m.Waveform,
		VideoURL:      m.VideoURL,
		VideoThumbURL: m.VideoThumbURL,
		VideoDuration: m.VideoDuration,
		Created:       m.Created,
		Delivered:     m.Delivered,
		Seen:          m.Seen,
	}
}
