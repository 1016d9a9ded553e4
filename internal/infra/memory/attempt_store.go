package memory

import (
	"context"
	"sync"

	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/session"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository.
// Attempt values are never mutated in place, so storing them by value is safe.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]session.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[string]session.Attempt),
	}
}

func (s *AttemptStore) Save(_ context.Context, attempt session.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attempt.ID] = attempt
	return nil
}

// Update replaces the stored attempt only while its revision is still expected.
func (s *AttemptStore) Update(_ context.Context, attempt session.Attempt, expected int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.attempts[attempt.ID]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	if current.Revision != expected {
		return domain.ErrAttemptConflict
	}
	s.attempts[attempt.ID] = attempt
	return nil
}

func (s *AttemptStore) Get(_ context.Context, attemptID string) (session.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return session.Attempt{}, domain.ErrAttemptNotFound
	}
	return attempt, nil
}

func (s *AttemptStore) Delete(_ context.Context, attemptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[attemptID]; !ok {
		return domain.ErrAttemptNotFound
	}
	delete(s.attempts, attemptID)
	return nil
}
