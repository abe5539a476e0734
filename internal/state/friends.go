package state

import (
	"github.com/bashchat/bashchatd/internal/bus"
	"github.com/bashchat/bashchatd/internal/wire"
)

// ApplyFriendList replaces the friend projection wholesale. The list is
// server-authoritative; entries are never invented locally.
func (s *Store) ApplyFriendList(list []wire.FriendEntry) {
	s.mu.Lock()
	s.friends = append([]wire.FriendEntry(nil), list...)
	s.friendsLoaded = true
	s.mu.Unlock()
	s.publish(bus.KindFriendUpdated, nil)
}

// ApplyFriendNew prepends a newly connected friend.
func (s *Store) ApplyFriendNew(entry wire.FriendEntry) {
	s.mu.Lock()
	s.friends = append([]wire.FriendEntry{entry}, s.friends...)
	s.friendsLoaded = true
	s.mu.Unlock()
	s.publish(bus.KindFriendUpdated, nil)
}

// bumpFriend updates the preview and timestamp of the entry for username
// and moves it to the front, leaving the relative order of every other
// entry untouched. No entry is synthesized when the username is unknown.
func (s *Store) bumpFriend(username, preview, updated string) {
	s.mu.Lock()
	idx := -1
	for i, e := range s.friends {
		if e.Friend.Username == username {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	entry := s.friends[idx]
	entry.Preview = preview
	entry.Updated = updated
	s.friends = append(s.friends[:idx], s.friends[idx+1:]...)
	s.friends = append([]wire.FriendEntry{entry}, s.friends...)
	s.mu.Unlock()
	s.publish(bus.KindFriendUpdated, username)
}

// Friends returns a copy of the friend projection, newest activity first.
// The second result is false until the first friend.list frame arrives.
func (s *Store) Friends() ([]wire.FriendEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]wire.FriendEntry(nil), s.friends...), s.friendsLoaded
}
