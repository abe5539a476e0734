package wire

// Kind identifies the type of a frame exchanged over the chat socket.
// The set is closed: inbound frames with a source tag outside this set
// decode to an ErrUnknownSource and are dropped by the dispatcher.
type Kind string

const (
	KindFriendList     Kind = "friend.list"
	KindFriendNew      Kind = "friend.new"
	KindMessageList    Kind = "message.list"
	KindMessageSend    Kind = "message.send"
	KindMessageType    Kind = "message.type"
	KindMessageSeen    Kind = "message.seen"
	KindMessageDeleted Kind = "message.deleted"
	KindMessageDelete  Kind = "message.delete"
	KindMessageForward Kind = "message.forward"
	KindRequestList    Kind = "request.list"
	KindRequestAccept  Kind = "request.accept"
	KindRequestConnect Kind = "request.connect"
	KindSearch         Kind = "search"
	KindThumbnail      Kind = "thumbnail"
)

// inboundKinds lists every source tag the server is known to push.
var inboundKinds = map[Kind]bool{
	KindFriendList:     true,
	KindFriendNew:      true,
	KindMessageList:    true,
	KindMessageSend:    true,
	KindMessageType:    true,
	KindMessageSeen:    true,
	KindMessageDeleted: true,
	KindRequestList:    true,
	KindRequestAccept:  true,
	KindRequestConnect: true,
	KindSearch:         true,
	KindThumbnail:      true,
}
