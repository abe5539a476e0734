package cache

import (
	"encoding/json"
	"time"
)

// UpsertMessage inserts or updates a message (idempotent on server id).
func (db *DB) UpsertMessage(m *Message) error {
	waveform, err := marshalWaveform(m.Waveform)
	if err != nil {
		return err
	}
	now := time.Now().UnixMilli()
	_, err = db.Exec(`
		INSERT INTO messages (id, connection_id, is_me, text, image, voice, waveform, video_url, video_thumb_url, video_duration, created, delivered, seen, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			delivered = excluded.delivered,
			seen = excluded.seen`,
		m.ID, m.ConnectionID, m.IsMe, m.Text, m.Image, m.Voice, waveform,
		m.VideoURL, m.VideoThumbURL, m.VideoDuration, m.Created, m.Delivered, m.Seen, now)
	return err
}

// UpsertMessages batches message upserts in a single transaction.
func (db *DB) UpsertMessages(msgs []Message) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	for i := range msgs {
		m := &msgs[i]
		waveform, err := marshalWaveform(m.Waveform)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO messages (id, connection_id, is_me, text, image, voice, waveform, video_url, video_thumb_url, video_duration, created, delivered, seen, cached_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				text = excluded.text,
				delivered = excluded.delivered,
				seen = excluded.seen`,
			m.ID, m.ConnectionID, m.IsMe, m.Text, m.Image, m.Voice, waveform,
			m.VideoURL, m.VideoThumbURL, m.VideoDuration, m.Created, m.Delivered, m.Seen, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// MarkSeen flips a message to seen. Seen implies delivered.
func (db *DB) MarkSeen(id int64) error {
	_, err := db.Exec(`UPDATE messages SET seen = 1, delivered = 1 WHERE id = ?`, id)
	return err
}

// DeleteMessage removes a message by server id. Deleting a message that is
// not cached is a no-op.
func (db *DB) DeleteMessage(id int64) error {
	_, err := db.Exec(`DELETE FROM messages WHERE id = ?`, id)
	return err
}

// ListMessages returns cached messages for a conversation, newest first,
// using keyset pagination by server id. beforeID <= 0 starts from the top.
func (db *DB) ListMessages(connectionID, beforeID int64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, connection_id, is_me, text, image, voice, waveform, video_url, video_thumb_url, video_duration, created, delivered, seen
		FROM messages
		WHERE connection_id = ?`
	args := []any{connectionID}
	if beforeID > 0 {
		query += ` AND id < ?`
		args = append(args, beforeID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		var waveform *string
		if err := rows.Scan(&m.ID, &m.ConnectionID, &m.IsMe, &m.Text, &m.Image, &m.Voice, &waveform,
			&m.VideoURL, &m.VideoThumbURL, &m.VideoDuration, &m.Created, &m.Delivered, &m.Seen); err != nil {
			return nil, err
		}
		if waveform != nil && *waveform != "" {
			if err := json.Unmarshal([]byte(*waveform), &m.Waveform); err != nil {
				return nil, err
			}
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func marshalWaveform(w []float64) (*string, error) {
	if len(w) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}
