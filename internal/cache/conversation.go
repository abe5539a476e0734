package cache

import (
	"database/sql"
	"time"
)

// UpsertConversation inserts or updates a conversation record.
func (db *DB) UpsertConversation(c *Conversation) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO conversations (connection_id, username, name, thumbnail, preview, updated, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(connection_id) DO UPDATE SET
			username = excluded.username,
			name = excluded.name,
			thumbnail = excluded.thumbnail,
			preview = excluded.preview,
			updated = excluded.updated,
			updated_at = excluded.updated_at`,
		c.ConnectionID, c.Username, c.Name, c.Thumbnail, c.Preview, c.Updated, now)
	return err
}

// ReplaceConversations swaps the whole conversation set in one transaction.
// Used when the server sends its authoritative list.
func (db *DB) ReplaceConversations(convs []Conversation) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM conversations`); err != nil {
		return err
	}
	now := time.Now().UnixMilli()
	for _, c := range convs {
		if _, err := tx.Exec(`
			INSERT INTO conversations (connection_id, username, name, thumbnail, preview, updated, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.ConnectionID, c.Username, c.Name, c.Thumbnail, c.Preview, c.Updated, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListConversations returns cached conversations, most recently updated first.
func (db *DB) ListConversations(limit int) ([]Conversation, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`
		SELECT connection_id, username, name, thumbnail, preview, updated
		FROM conversations
		ORDER BY updated_at DESC, connection_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var convs []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ConnectionID, &c.Username, &c.Name, &c.Thumbnail, &c.Preview, &c.Updated); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

// GetConversation returns a single conversation by connection id, or nil
// when it is not cached.
func (db *DB) GetConversation(connectionID int64) (*Conversation, error) {
	var c Conversation
	err := db.QueryRow(`
		SELECT connection_id, username, name, thumbnail, preview, updated
		FROM conversations
		WHERE connection_id = ?`, connectionID).
		Scan(&c.ConnectionID, &c.Username, &c.Name, &c.Thumbnail, &c.Preview, &c.Updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetConversationByUsername resolves a conversation from the counterpart's
// username, or nil when it is not cached.
func (db *DB) GetConversationByUsername(username string) (*Conversation, error) {
	var c Conversation
	err := db.QueryRow(`
		SELECT connection_id, username, name, thumbnail, preview, updated
		FROM conversations
		WHERE username = ?`, username).
		Scan(&c.ConnectionID, &c.Username, &c.Name, &c.Thumbnail, &c.Preview, &c.Updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
