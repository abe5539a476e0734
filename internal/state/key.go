package state

// ConvKey identifies a conversation. Both halves are valid addresses for
// the same conversation on the wire, so matching accepts either; the
// numeric connection ID is authoritative once known, and the username is
// only a fallback before the first successful page load fills the ID in.
type ConvKey struct {
	ID       int64
	Username string
}

// IsZero reports whether the key carries no identity at all.
func (k ConvKey) IsZero() bool {
	return k.ID == 0 && k.Username == ""
}

// Matches reports whether a frame addressed to (id, username) belongs to
// this conversation. When both sides carry an ID, the ID decides; the
// username is consulted only when an ID is missing on either side.
func (k ConvKey) Matches(id int64, username string) bool {
	if k.ID != 0 && id != 0 {
		return k.ID == id
	}
	return k.Username != "" && k.Username == username
}
