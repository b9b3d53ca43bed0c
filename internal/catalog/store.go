package catalog

import (
	"context"
	"sync"
)

// Store keeps catalog books keyed by ASIN. All returns books in insertion
// order so downstream models are deterministic.
type Store interface {
	All(ctx context.Context) ([]Book, error)
	ByASIN(ctx context.Context, asin string) (Book, error)
	Upsert(ctx context.Context, books []Book) error
	Count(ctx context.Context) (int, error)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.RWMutex
	books []Book
	index map[string]int
}

func NewMemoryStore(books ...Book) *MemoryStore {
	s := &MemoryStore{index: make(map[string]int)}
	_ = s.Upsert(context.Background(), books)
	return s
}

func (s *MemoryStore) All(_ context.Context) ([]Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Book, len(s.books))
	copy(out, s.books)
	return out, nil
}

func (s *MemoryStore) ByASIN(_ context.Context, asin string) (Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[asin]
	if !ok {
		return Book{}, ErrNotFound
	}
	return s.books[i], nil
}

func (s *MemoryStore) Upsert(_ context.Context, books []Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range books {
		if i, ok := s.index[b.ASIN]; ok {
			s.books[i] = b
			continue
		}
		s.index[b.ASIN] = len(s.books)
		s.books = append(s.books, b)
	}
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books), nil
}
