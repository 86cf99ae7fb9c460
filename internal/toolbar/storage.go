package toolbar

import (
	"context"
	"errors"
	"sync"
)

// ErrProfileNotFound is returned by Storage.Read for unknown or
// expired tokens.
var ErrProfileNotFound = errors.New("profile not found")

// DefaultCapacity is the number of profiles a MemoryStorage keeps.
const DefaultCapacity = 100

// Storage persists profiles by token.
type Storage interface {
	Write(ctx context.Context, p *Profile) error
	Read(ctx context.Context, token string) (*Profile, error)

	// List returns up to limit profiles, newest first.
	List(ctx context.Context, limit int) ([]*Profile, error)
}

// MemoryStorage keeps the most recent profiles in memory. Once full,
// each write evicts the oldest profile.
type MemoryStorage struct {
	mu       sync.Mutex
	capacity int
	order    []string
	profiles map[string]*Profile
}

// NewMemoryStorage returns a storage holding at most capacity profiles.
// A non-positive capacity selects DefaultCapacity.
func NewMemoryStorage(capacity int) *MemoryStorage {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStorage{
		capacity: capacity,
		profiles: make(map[string]*Profile),
	}
}

func (s *MemoryStorage) Write(_ context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[p.Token]; !ok {
		s.order = append(s.order, p.Token)
	}
	s.profiles[p.Token] = p

	for len(s.order) > s.capacity {
		delete(s.profiles, s.order[0])
		s.order = s.order[1:]
	}
	return nil
}

func (s *MemoryStorage) Read(_ context.Context, token string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[token]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

func (s *MemoryStorage) List(_ context.Context, limit int) ([]*Profile, error) {
	if limit <= 0 {
		return []*Profile{}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Profile, 0, min(limit, len(s.order)))
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.profiles[s.order[i]])
	}
	return out, nil
}

// Len returns the number of stored profiles.
func (s *MemoryStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
