package store

import "sync"

// DocumentStore holds the current reference text; last Replace wins.
type DocumentStore struct {
	mu   sync.RWMutex
	text string
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{}
}

func (s *DocumentStore) Replace(text string) {
	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
}

func (s *DocumentStore) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.text
}

func (s *DocumentStore) Populated() bool {
	return s.Current() != ""
}
