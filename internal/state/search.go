package state

import (
	"github.com/bashchat/bashchatd/internal/bus"
	"github.com/bashchat/bashchatd/internal/wire"
)

// ApplySearch replaces the search projection with a fresh result set.
func (s *Store) ApplySearch(rows []wire.SearchRow) {
	s.mu.Lock()
	s.search = append([]wire.SearchRow(nil), rows...)
	s.searchActive = true
	s.mu.Unlock()
	s.publish(bus.KindSearchUpdated, len(rows))
}

// ClearSearch drops the search projection. Issued locally when the query
// is emptied; no frame is sent.
func (s *Store) ClearSearch() {
	s.mu.Lock()
	s.search = nil
	s.searchActive = false
	s.mu.Unlock()
	s.publish(bus.KindSearchUpdated, 0)
}

// SearchResults returns a copy of the search projection. The second
// result is false when no search is active.
func (s *Store) SearchResults() ([]wire.SearchRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]wire.SearchRow(nil), s.search...), s.searchActive
}
