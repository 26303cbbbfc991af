package memory

import (
	"context"
	"sync"

	"finassist/internal/blob"
)

// Store keeps blobs in process memory. Contents are lost on restart.
type Store struct {
	mu    sync.Mutex
	items map[string][]byte
	puts  int
}

func New() *Store {
	return &Store{items: map[string][]byte{}}
}

// NewSeeded returns a store preloaded with the given key/value pairs.
func NewSeeded(seed map[string][]byte) *Store {
	s := New()
	for k, v := range seed {
		s.items[k] = append([]byte(nil), v...)
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if !ok {
		return nil, blob.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = append([]byte(nil), value...)
	s.puts++
	return nil
}

// Puts reports how many writes the store has accepted.
func (s *Store) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}
