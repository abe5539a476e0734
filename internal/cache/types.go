package cache

// Conversation is a cached conversation row. ConnectionID is the
// server-assigned identifier shared by both participants.
type Conversation struct {
	ConnectionID int64  `json:"connection_id"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	Thumbnail    string `json:"thumbnail"`
	Preview      string `json:"preview"`
	Updated      string `json:"updated"`
}

// Message is a cached message row. Nullable media columns stay nil for
// plain text messages.
type Message struct {
	ID            int64     `json:"id"`
	ConnectionID  int64     `json:"connection_id"`
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
}
