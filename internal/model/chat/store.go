package chat

import (
	"context"
	"errors"
	"sync"
)

var ErrSessionNotFound = errors.New("session not found")

// Store persists transcripts keyed by session identifier.
type Store interface {
	// Load returns a copy of the session transcript or ErrSessionNotFound.
	Load(ctx context.Context, sessionID string) (Transcript, error)
	// Create initialises the session with seed. Existing sessions are left untouched.
	Create(ctx context.Context, sessionID string, seed Transcript) error
	// Append adds msgs to the end of the transcript as a single batch.
	Append(ctx context.Context, sessionID string, msgs ...Message) error
}

// MemoryStore implements Store with an in-process map; transcripts live as long as the process.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Transcript
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Transcript)}
}

// Load returns the stored transcript.
func (s *MemoryStore) Load(_ context.Context, sessionID string) (Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, ok := s.items[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return items.Clone(), nil
}

// Create seeds a new session.
func (s *MemoryStore) Create(_ context.Context, sessionID string, seed Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[sessionID]; ok {
		return nil
	}
	items := make(Transcript, 0, len(seed)+16)
	s.items[sessionID] = append(items, seed.Clone()...)
	return nil
}

// Append adds messages to an existing session.
func (s *MemoryStore) Append(_ context.Context, sessionID string, msgs ...Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, ok := s.items[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	s.items[sessionID] = append(items, Transcript(msgs).Clone()...)
	return nil
}
