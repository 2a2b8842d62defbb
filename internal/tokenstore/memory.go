package tokenstore

import (
	"context"
	"sync"
	"time"

	"github.com/Domenick1991/leadbooking/internal/domain"
)

// MemoryStore is the in-process Store for single-instance deployments.
// Expiry is lazy on every access; an optional janitor sweeps leftovers so
// abandoned tokens do not accumulate.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time

	stop chan struct{}
	once sync.Once
}

type MemoryOption func(*MemoryStore)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartJanitor sweeps expired entries every interval until Close.
func (s *MemoryStore) StartJanitor(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *MemoryStore) Issue(ctx context.Context, slots domain.SlotSet, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	token, err := newToken()
	if err != nil {
		return "", err
	}

	now := s.now()
	s.mu.Lock()
	s.entries[token] = entry{
		Slots:     slots.Strings(),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	s.mu.Unlock()
	return token, nil
}

func (s *MemoryStore) Peek(ctx context.Context, token string) (domain.SlotSet, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[token]
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(e.ExpiresAt) {
		delete(s.entries, token)
		return nil, false, nil
	}
	return parseEntrySlots(e), true, nil
}

func (s *MemoryStore) Consume(ctx context.Context, token string, chosen time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[token]
	if !ok {
		return false, nil
	}
	// single-use regardless of outcome
	delete(s.entries, token)
	if !s.now().Before(e.ExpiresAt) {
		return false, nil
	}
	return parseEntrySlots(e).Contains(chosen.UTC()), nil
}

func (s *MemoryStore) Revoke(ctx context.Context, token string) error {
	s.mu.Lock()
	delete(s.entries, token)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) sweep() {
	now := s.now()
	s.mu.Lock()
	for token, e := range s.entries {
		if !now.Before(e.ExpiresAt) {
			delete(s.entries, token)
		}
	}
	s.mu.Unlock()
}

func parseEntrySlots(e entry) domain.SlotSet {
	out := make(domain.SlotSet, 0, len(e.Slots))
	for _, s := range e.Slots {
		t, err := domain.ParseSlot(s)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return out
}

var _ Store = (*MemoryStore)(nil)
