package search

import (
	"context"
	"sync"
)

// Session is the state of one search dialog. The index survives Close and
// reopen; the query does not.
type Session struct {
	index *Index
	limit int

	mu     sync.Mutex
	isOpen bool
	query  string
}

// NewSession creates a closed session over index.
func NewSession(index *Index, limit int) *Session {
	if limit <= 0 {
		limit = DefaultMaxResults
	}
	return &Session{index: index, limit: limit}
}

// Open opens the session. On the transition to open the index is loaded if
// it has not been yet.
func (s *Session) Open(ctx context.Context) {
	s.mu.Lock()
	wasOpen := s.isOpen
	s.isOpen = true
	s.mu.Unlock()

	if !wasOpen {
		s.index.Load(ctx)
	}
}

// Close closes the session and clears the query.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isOpen = false
	s.query = ""
}

// IsOpen reports whether the session is open.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isOpen
}

// SetQuery replaces the current query.
func (s *Session) SetQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
}

// Query returns the current query.
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Results recomputes the matches for the current query. A closed session
// has no results.
func (s *Session) Results(ctx context.Context) []TextRecord {
	s.mu.Lock()
	open, query := s.isOpen, s.query
	s.mu.Unlock()

	if !open || query == "" {
		return []TextRecord{}
	}
	return Filter(s.index.Records(ctx), query, s.limit)
}

// Select resolves rec to its page URL. When the record maps to a page the
// session is closed and the URL returned; otherwise nothing happens.
func (s *Session) Select(rec TextRecord, linker Linker) (string, bool) {
	if linker == nil {
		return "", false
	}
	link, ok := linker.Link(rec.File, rec.Line, s.Query())
	if !ok {
		return "", false
	}
	s.Close()
	return link, true
}
