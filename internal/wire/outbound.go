package wire

// Outbound frames are flat objects carrying the source tag alongside their
// parameters, mirroring what the backend consumer expects. Optional media
// fields are omitted when empty.

// ListRequest asks for a projection refresh (request.list, friend.list) or a
// message page (message.list with ConnectionID/Page set).
type ListRequest struct {
	Source       Kind   `json:"source"`
	ConnectionID *int64 `json:"connectionId,omitempty"`
	Page         *int64 `json:"page,omitempty"`
}

// PrimeRequest builds the bare refresh frame sent right after the socket
// opens, one per seeded projection.
func PrimeRequest(kind Kind) ListRequest {
	return ListRequest{Source: kind}
}

// MessageListRequest builds a message.list frame for one page of a
// conversation's history.
func MessageListRequest(connectionID, page int64) ListRequest {
	return ListRequest{
		Source:       KindMessageList,
		ConnectionID: &connectionID,
		Page:         &page,
	}
}

// SendRequest is an outbound message.send frame. Text always travels in
// Message; at most one media family (image, voice, video) is populated.
type SendRequest struct {
	Source        Kind    `json:"source"`
	ConnectionID  int64   `json:"connectionId"`
	Message       string  `json:"message"`
	Image         string  `json:"image,omitempty"`
	ImageFilename string  `json:"image_filename,omitempty"`
	Voice         string  `json:"voice,omitempty"`
	VoiceFilename string  `json:"voice_filename,omitempty"`
	Video         string  `json:"video,omitempty"`
	VideoFilename string  `json:"video_filename,omitempty"`
	VideoURL      string  `json:"video_url,omitempty"`
	VideoThumbURL string  `json:"video_thumb_url,omitempty"`
	VideoDuration float64 `json:"video_duration,omitempty"`
}

// TypingRequest is an outbound message.type frame.
type TypingRequest struct {
	Source   Kind   `json:"source"`
	Username string `json:"username"`
}

// SeenRequest marks one message as seen by the local user.
type SeenRequest struct {
	Source       Kind  `json:"source"`
	ConnectionID int64 `json:"connectionId"`
	MessageID    int64 `json:"messageId"`
}

// DeleteRequest removes one message. The protocol is per-id: deleting a
// selection emits one frame per message, never a batch.
type DeleteRequest struct {
	Source       Kind  `json:"source"`
	ConnectionID int64 `json:"connectionId"`
	MessageID    int64 `json:"messageId"`
}

// ForwardRequest copies a set of messages to another conversation. The
// destination's local state is only updated when the server echoes the
// forwarded messages back through the normal receive path.
type ForwardRequest struct {
	Source           Kind    `json:"source"`
	FromConnectionID int64   `json:"fromConnectionId"`
	ToConnectionID   int64   `json:"toConnectionId"`
	MessageIDs       []int64 `json:"messageIds"`
}

// SearchRequest is an outbound user-search frame.
type SearchRequest struct {
	Source Kind   `json:"source"`
	Query  string `json:"query"`
}

// RequestActionRequest accepts or initiates a connection request.
type RequestActionRequest struct {
	Source   Kind   `json:"source"`
	Username string `json:"username"`
}

// ThumbnailRequest uploads a new profile thumbnail.
type ThumbnailRequest struct {
	Source   Kind   `json:"source"`
	Base64   string `json:"base64"`
	Filename string `json:"filename"`
}
