// Package memory is an in-process CartStorage used by headless tests and
// tooling; it keeps the same whole-list read/write discipline as the cookie
// slot.
package memory

import (
	"sync"

	"github.com/andrifs/tokobolen/internal/domain"
)

type Store struct {
	mu    sync.Mutex
	items []domain.CartItem
	set   bool
}

func New() *Store { return &Store{} }

func (s *Store) Read() ([]domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return nil, nil
	}
	out := make([]domain.CartItem, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *Store) Write(items []domain.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make([]domain.CartItem, len(items))
	copy(s.items, items)
	s.set = true
	return nil
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.set = false
	return nil
}
