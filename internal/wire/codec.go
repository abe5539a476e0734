package wire

import (
	"encoding/json"
	"fmt"
)

// ErrUnknownSource reports an inbound frame whose source tag is not in the
// closed set of known kinds. Callers log it and drop the frame.
type ErrUnknownSource struct {
	Source string
}

func (e *ErrUnknownSource) Error() string {
	return fmt.Sprintf("unknown frame source %q", e.Source)
}

// envelope is the outer shape of every inbound frame.
type envelope struct {
	Source string          `json:"source"`
	Data   json.RawMessage `json:"data"`
}

// Frame is a decoded inbound frame. Kind is always set; exactly one payload
// field is populated, matching the kind.
type Frame struct {
	Kind Kind

	FriendList []FriendEntry
	FriendNew  *FriendEntry
	Page       *MessagePage
	Echo       *MessageEcho
	Typing     *TypingEvent
	Seen       *SeenEvent
	Deleted    *DeletedEvent
	Requests   []ConnectionEvent
	Connection *ConnectionEvent
	Search     []SearchRow
	User       *User
}

// Decode parses one raw frame off the socket. Unknown source tags return
// *ErrUnknownSource; malformed payloads return a wrapped unmarshal error.
// Decode never panics on hostile input.
func Decode(raw []byte) (*Frame, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode frame envelope: %w", err)
	}

	kind := Kind(env.Source)
	if !inboundKinds[kind] {
		return nil, &ErrUnknownSource{Source: env.Source}
	}

	f := &Frame{Kind: kind}
	var err error

	switch kind {
	case KindFriendList:
		err = unmarshalData(env.Data, &f.FriendList)
	case KindFriendNew:
		f.FriendNew = &FriendEntry{}
		err = unmarshalData(env.Data, f.FriendNew)
	case KindMessageList:
		f.Page = &MessagePage{}
		if err = unmarshalData(env.Data, f.Page); err == nil {
			for i := range f.Page.Messages {
				f.Page.Messages[i].Normalize()
			}
		}
	case KindMessageSend:
		f.Echo = &MessageEcho{}
		if err = unmarshalData(env.Data, f.Echo); err == nil {
			f.Echo.Message.Normalize()
		}
	case KindMessageType:
		f.Typing = &TypingEvent{}
		err = unmarshalData(env.Data, f.Typing)
	case KindMessageSeen:
		f.Seen = &SeenEvent{}
		err = unmarshalData(env.Data, f.Seen)
	case KindMessageDeleted:
		f.Deleted = &DeletedEvent{}
		err = unmarshalData(env.Data, f.Deleted)
	case KindRequestList:
		err = unmarshalData(env.Data, &f.Requests)
	case KindRequestAccept, KindRequestConnect:
		f.Connection = &ConnectionEvent{}
		err = unmarshalData(env.Data, f.Connection)
	case KindSearch:
		err = unmarshalData(env.Data, &f.Search)
	case KindThumbnail:
		f.User = &User{}
		err = unmarshalData(env.Data, f.User)
	}

	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", kind, err)
	}
	return f, nil
}

func unmarshalData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("missing data field")
	}
	return json.Unmarshal(data, v)
}

// Encode serializes an outbound frame to newline-free JSON.
func Encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return raw, nil
}
