package outbound

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/bashchat/bashchatd/internal/state"
	"github.com/bashchat/bashchatd/internal/wire"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sender is the outbound half of the connection manager.
type Sender interface {
	Send(v any)
}

// Media is a local media payload already prepared by a picker or recorder:
// the bytes arrive base64-encoded, the coordinator never encodes anything
// itself. At most one of the image/voice/video families is used per send,
// chosen by filename extension.
type Media struct {
	Base64   string
	Filename string

	Video         string
	VideoFilename string
	VideoURL      string
	VideoThumbURL string
	VideoDuration float64
}

// Coordinator is the UI-facing action surface: it applies user actions to
// local state first (optimistic) and emits the matching wire frames.
type Coordinator struct {
	store  *state.Store
	sender Sender
	logger *zap.Logger
}

// New creates a coordinator.
func New(store *state.Store, sender Sender, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{store: store, sender: sender, logger: logger}
}

// LoadPage requests one page of a conversation's history. Page 0 wipes
// local conversation state before the request goes out.
func (c *Coordinator) LoadPage(key state.ConvKey, page int64) {
	c.store.BeginLoad(key, page)
	c.sender.Send(wire.MessageListRequest(key.ID, page))
}

// LoadMore requests the next history page. A deliberate no-op once the
// cursor is exhausted: it never re-requests page 0.
func (c *Coordinator) LoadMore(key state.ConvKey) {
	cursor, ok := c.store.NextCursor()
	if !ok {
		c.logger.Debug("load more: history exhausted")
		return
	}
	c.LoadPage(key, cursor)
}

// SendMessage sends text and/or one media payload to a conversation. Text
// is whitespace-normalized; an empty result with no recognized media
// sends nothing at all. The message is mirrored into the local log with a
// client id only when the target is the active conversation, and is
// reconciled when the server echo arrives.
func (c *Coordinator) SendMessage(connectionID int64, text string, media *Media) {
	cleaned := normalizeText(text)

	req := wire.SendRequest{
		Source:       wire.KindMessageSend,
		ConnectionID: connectionID,
		Message:      cleaned,
	}

	if media != nil {
		if media.Base64 != "" && media.Filename != "" {
			switch ext(media.Filename) {
			case "jpg", "jpeg", "png":
				req.Image = media.Base64
				req.ImageFilename = media.Filename
			case "mp3", "wav", "m4a":
				req.Voice = media.Base64
				req.VoiceFilename = media.Filename
			default:
				c.logger.Warn("unsupported media extension",
					zap.String("filename", media.Filename))
			}
		}
		if media.Video != "" && media.VideoFilename != "" {
			req.Video = media.Video
			req.VideoFilename = media.VideoFilename
			req.VideoURL = media.VideoURL
			req.VideoThumbURL = media.VideoThumbURL
			req.VideoDuration = media.VideoDuration
		}
	}

	// A media payload the extension switch rejected contributes nothing,
	// so it cannot rescue an otherwise empty send.
	if cleaned == "" && req.Image == "" && req.Voice == "" && req.Video == "" {
		return
	}

	pending := wire.Message{
		ClientID: uuid.NewString(),
		Pending:  true,
		IsMe:     true,
		Text:     cleaned,
		Waveform: []float64{},
		Created:  time.Now().UTC().Format(time.RFC3339),
	}

	c.store.ApplyLocalSend(connectionID, pending)
	c.sender.Send(req)
}

// DeleteMessages removes a selection: local state first, then one wire
// frame per id. The per-id fan-out is the protocol's shape, not a loop to
// collapse.
func (c *Coordinator) DeleteMessages(connectionID int64, ids []int64) {
	if len(ids) == 0 {
		return
	}
	c.store.ApplyLocalDelete(ids)
	for _, id := range ids {
		c.sender.Send(wire.DeleteRequest{
			Source:       wire.KindMessageDelete,
			ConnectionID: connectionID,
			MessageID:    id,
		})
	}
}

// ForwardMessages copies messages to another conversation. Pure wire
// pass-through: the destination's log updates only when the server echoes
// the forwarded messages back.
func (c *Coordinator) ForwardMessages(fromConnectionID, toConnectionID int64, ids []int64) {
	if len(ids) == 0 {
		return
	}
	c.sender.Send(wire.ForwardRequest{
		Source:           wire.KindMessageForward,
		FromConnectionID: fromConnectionID,
		ToConnectionID:   toConnectionID,
		MessageIDs:       ids,
	})
}

// NotifyTyping tells the counterpart the local user is typing. Fire and
// forget; debouncing is the caller's job.
func (c *Coordinator) NotifyTyping(username string) {
	c.sender.Send(wire.TypingRequest{Source: wire.KindMessageType, Username: username})
}

// MarkSeen reports that the local user has seen a message.
func (c *Coordinator) MarkSeen(connectionID, messageID int64) {
	c.sender.Send(wire.SeenRequest{
		Source:       wire.KindMessageSeen,
		ConnectionID: connectionID,
		MessageID:    messageID,
	})
}

// SearchUsers runs a user search. An empty query clears the projection
// locally without touching the wire.
func (c *Coordinator) SearchUsers(query string) {
	if query == "" {
		c.store.ClearSearch()
		return
	}
	c.sender.Send(wire.SearchRequest{Source: wire.KindSearch, Query: query})
}

// AcceptRequest accepts a pending connection request.
func (c *Coordinator) AcceptRequest(username string) {
	c.sender.Send(wire.RequestActionRequest{Source: wire.KindRequestAccept, Username: username})
}

// ConnectRequest sends a new connection request.
func (c *Coordinator) ConnectRequest(username string) {
	c.sender.Send(wire.RequestActionRequest{Source: wire.KindRequestConnect, Username: username})
}

// UploadThumbnail replaces the local user's profile thumbnail.
func (c *Coordinator) UploadThumbnail(base64, filename string) {
	c.sender.Send(wire.ThumbnailRequest{Source: wire.KindThumbnail, Base64: base64, Filename: filename})
}

// normalizeText collapses runs of whitespace to single spaces and trims.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func ext(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}
