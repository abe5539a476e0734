package state

import (
	"github.com/bashchat/bashchatd/internal/bus"
	"github.com/bashchat/bashchatd/internal/wire"
)

// Relationship status values carried in search rows.
const (
	statusConnected   = "connected"
	statusPendingThem = "pending-them"
)

// ApplyRequestList replaces the pending-request projection wholesale.
func (s *Store) ApplyRequestList(list []wire.ConnectionEvent) {
	s.mu.Lock()
	s.requests = append([]wire.ConnectionEvent(nil), list...)
	s.requestsLoaded = true
	s.mu.Unlock()
	s.publish(bus.KindRequestUpdated, nil)
}

// ApplyRequestConnect folds a request.connect frame. When the local user
// initiated the request, the matching search row flips to pending; when
// the counterpart initiated it, the request lands at the top of the
// pending list (deduplicated by sender).
func (s *Store) ApplyRequestConnect(conn *wire.ConnectionEvent) {
	s.mu.Lock()
	me := s.user.Username
	if me == conn.Sender.Username {
		for i := range s.search {
			if s.search[i].Username == conn.Receiver.Username {
				s.search[i].Status = statusPendingThem
			}
		}
	} else {
		exists := false
		for _, r := range s.requests {
			if r.Sender.Username == conn.Sender.Username {
				exists = true
				break
			}
		}
		if !exists {
			s.requests = append([]wire.ConnectionEvent{*conn}, s.requests...)
		}
	}
	s.mu.Unlock()
	s.publish(bus.KindRequestUpdated, conn.Sender.Username)
}

// ApplyRequestAccept folds a request.accept frame. The acceptor removes
// the request row; on both sides the counterpart's search row, when
// present, flips to connected.
func (s *Store) ApplyRequestAccept(conn *wire.ConnectionEvent) {
	s.mu.Lock()
	me := s.user.Username

	if me == conn.Receiver.Username {
		kept := s.requests[:0]
		for _, r := range s.requests {
			if r.ID != conn.ID {
				kept = append(kept, r)
			}
		}
		s.requests = kept
	}

	if s.searchActive {
		other := conn.Receiver.Username
		if me == conn.Receiver.Username {
			other = conn.Sender.Username
		}
		for i := range s.search {
			if s.search[i].Username == other {
				s.search[i].Status = statusConnected
			}
		}
	}
	s.mu.Unlock()
	s.publish(bus.KindRequestUpdated, conn.ID)
}

// Requests returns a copy of the pending-request projection. The second
// result is false until the first request.list frame arrives.
func (s *Store) Requests() ([]wire.ConnectionEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]wire.ConnectionEvent(nil), s.requests...), s.requestsLoaded
}
