package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"quiz-session-service/internal/domain"
)

// ScoreStore appends score records; a repeated ID is ignored so retried submissions stay single.
type ScoreStore struct {
	pool *pgxpool.Pool
}

func NewScoreStore(pool *pgxpool.Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

func (s *ScoreStore) InsertScore(ctx context.Context, record domain.ScoreRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal score: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO scores (id, user_id, quiz_id, data, created_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		record.ID, record.UserID, record.QuizID, raw, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func (s *ScoreStore) ListScores(ctx context.Context, userID string) ([]domain.ScoreRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM scores WHERE user_id=$1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	var out []domain.ScoreRecord
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		var record domain.ScoreRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("unmarshal score: %w", err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *ScoreStore) DeleteScoresForQuiz(ctx context.Context, quizID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM scores WHERE quiz_id=$1`, quizID); err != nil {
		return fmt.Errorf("delete scores: %w", err)
	}
	return nil
}
