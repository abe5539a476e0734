package bus

import "time"

// Event is a domain event published on the bus. Kind uses dotted
// namespaces so subscribers can filter by prefix.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Event kinds published by the sync core. Subscribers typically filter on
// the namespace prefix ("conn.", "chat.", ...).
const (
	KindConnStatusChanged = "conn.status_changed"
	KindConnAuthRequired  = "conn.auth_required"
	KindConnGaveUp        = "conn.gave_up"

	KindChatPage    = "chat.page"
	KindChatMessage = "chat.message"
	KindChatSeen    = "chat.seen"
	KindChatDeleted = "chat.deleted"

	KindFriendUpdated  = "friend.updated"
	KindTypingStarted  = "typing.started"
	KindTypingStopped  = "typing.stopped"
	KindRequestUpdated = "request.updated"
	KindSearchUpdated  = "search.updated"

	KindSessionLoggedOut = "session.logged_out"
)
