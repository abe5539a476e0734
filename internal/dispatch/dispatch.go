package dispatch

import (
	"github.com/bashchat/bashchatd/internal/state"
	"github.com/bashchat/bashchatd/internal/wire"
	"go.uber.org/zap"
)

// Dispatcher routes decoded inbound frames to the state store. The switch
// over wire.Kind is exhaustive for every inbound kind, so a new frame type
// shows up here at review time instead of vanishing into a lookup table.
//
// Dispatch is called from the connection read loop only, one frame at a
// time, so handler executions never interleave.
type Dispatcher struct {
	store  *state.Store
	logger *zap.Logger
}

// New creates a dispatcher bound to the given store.
func New(store *state.Store, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{store: store, logger: logger}
}

// Dispatch applies one frame to the store. Anomalies (unknown or
// unexpected kinds) are logged and dropped; Dispatch never panics and
// never signals the connection to close.
func (d *Dispatcher) Dispatch(f *wire.Frame) {
	switch f.Kind {
	case wire.KindFriendList:
		d.store.ApplyFriendList(f.FriendList)
	case wire.KindFriendNew:
		d.store.ApplyFriendNew(*f.FriendNew)
	case wire.KindMessageList:
		d.store.ApplyMessagePage(f.Page)
	case wire.KindMessageSend:
		d.store.ApplyMessageSend(f.Echo)
	case wire.KindMessageType:
		d.store.ApplyTyping(f.Typing.Username)
	case wire.KindMessageSeen:
		d.store.ApplySeen(f.Seen.ID)
	case wire.KindMessageDeleted:
		d.store.ApplyDeleted(f.Deleted.MessageID)
	case wire.KindRequestList:
		d.store.ApplyRequestList(f.Requests)
	case wire.KindRequestAccept:
		d.store.ApplyRequestAccept(f.Connection)
	case wire.KindRequestConnect:
		d.store.ApplyRequestConnect(f.Connection)
	case wire.KindSearch:
		d.store.ApplySearch(f.Search)
	case wire.KindThumbnail:
		d.store.SetUser(*f.User)
	default:
		d.logger.Warn("ignoring frame with unhandled kind", zap.String("kind", string(f.Kind)))
	}
}
