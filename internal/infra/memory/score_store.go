package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-session-service/internal/domain"
)

// ScoreStore keeps score records in memory.
type ScoreStore struct {
	mu      sync.RWMutex
	records []domain.ScoreRecord
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{}
}

func (s *ScoreStore) InsertScore(_ context.Context, record domain.ScoreRecord) error {
	record.Answers = append([]domain.AnswerReport(nil), record.Answers...)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == record.ID {
			return nil
		}
	}
	s.records = append(s.records, record)
	return nil
}

func (s *ScoreStore) ListScores(_ context.Context, userID string) ([]domain.ScoreRecord, error) {
	s.mu.RLock()
	out := make([]domain.ScoreRecord, 0)
	for _, r := range s.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *ScoreStore) DeleteScoresForQuiz(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.records[:0]
	for _, r := range s.records {
		if r.QuizID != quizID {
			kept = append(kept, r)
		}
	}
	s.records = kept
	return nil
}
