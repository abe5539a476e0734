package wire

// Message is a single chat message as carried on the wire.
//
// ClientID and Pending exist only on optimistic local copies created by the
// outbound coordinator; they never cross the socket. The server assigns ID
// when it echoes the send back.
type Message struct {
	ID            int64     `json:"id"`
	ConnectionID  int64     `json:"connection_id,omitempty"`
	IsMe          bool      `json:"is_me"`
	Text          string    `json:"text"`
	Image         *string   `json:"image"`
	Voice         *string   `json:"voice"`
	Waveform      []float64 `json:"waveform"`
	VideoURL      *string   `json:"video_url"`
	VideoThumbURL *string   `json:"video_thumb_url"`
	VideoDuration *float64  `json:"video_duration"`
	Created       string    `json:"created"`
	Delivered     bool      `json:"delivered"`
	Seen          bool      `json:"seen"`

	ClientID string `json:"-"`
	Pending  bool   `json:"-"`
}

// Normalize fills nullable fields with their documented defaults and
// enforces the seen-implies-delivered invariant at the edge.
func (m *Message) Normalize() {
	if m.Waveform == nil {
		m.Waveform = []float64{}
	}
	if m.Seen {
		m.Delivered = true
	}
}

// Friend is the counterpart user of a conversation.
type Friend struct {
	Username     string `json:"username"`
	Name         string `json:"name"`
	Thumbnail    string `json:"thumbnail"`
	ConnectionID int64  `json:"connection_id,omitempty"`
}

// FriendEntry is one row of the server-authoritative friend list.
type FriendEntry struct {
	ID      int64  `json:"id"`
	Friend  Friend `json:"friend"`
	Preview string `json:"preview"`
	Updated string `json:"updated"`
}

// MessagePage is the payload of a message.list frame.
type MessagePage struct {
	Messages     []Message `json:"messages"`
	Next         *int64    `json:"next"`
	Friend       Friend    `json:"friend"`
	ConnectionID int64     `json:"connection_id"`
}

// MessageEcho is the payload of a message.send frame: the authoritative
// copy of a sent message plus the counterpart it belongs to.
type MessageEcho struct {
	Message Message `json:"message"`
	Friend  Friend  `json:"friend"`
}

// TypingEvent is the payload of a message.type frame.
type TypingEvent struct {
	Username string `json:"username"`
}

// SeenEvent is the payload of a message.seen frame.
type SeenEvent struct {
	ID int64 `json:"id"`
}

// DeletedEvent is the payload of a message.deleted frame.
type DeletedEvent struct {
	MessageID int64 `json:"messageId"`
}

// User is the local account's profile.
type User struct {
	Username  string `json:"username"`
	Name      string `json:"name"`
	Thumbnail string `json:"thumbnail"`
}

// ConnectionEvent is the payload of request.accept and request.connect
// frames: a connection between two users, from the server's point of view.
type ConnectionEvent struct {
	ID       int64  `json:"id"`
	Sender   User   `json:"sender"`
	Receiver User   `json:"receiver"`
	Created  string `json:"created"`
}

// SearchRow is one entry of a user-search result.
type SearchRow struct {
	Username  string `json:"username"`
	Name      string `json:"name"`
	Thumbnail string `json:"thumbnail"`
	// Status is the relationship to the local user:
	// "connected", "pending-them", "pending-me" or "no-connection".
	Status string `json:"status"`
}
