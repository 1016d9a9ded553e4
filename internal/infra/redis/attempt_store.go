package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/session"
)

// AttemptStore is a Redis implementation of app.AttemptRepository.
// Each attempt is a JSON value whose TTL is refreshed on every save, so
// abandoned attempts expire on their own.
type AttemptStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{client: client, ttl: ttl}
}

func (s *AttemptStore) Save(ctx context.Context, attempt session.Attempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	return s.client.Set(ctx, s.key(attempt.ID), data, s.ttl).Err()
}

// Update replaces the stored attempt only while its revision is still expected.
// The key is WATCHed, so a write landing between the check and the SET aborts the
// transaction and is reported as a conflict too.
func (s *AttemptStore) Update(ctx context.Context, attempt session.Attempt, expected int64) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	key := s.key(attempt.ID)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := s.load(ctx, tx, attempt.ID)
		if err != nil {
			return err
		}
		if current.Revision != expected {
			return domain.ErrAttemptConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return domain.ErrAttemptConflict
	}
	return err
}

func (s *AttemptStore) Get(ctx context.Context, attemptID string) (session.Attempt, error) {
	return s.load(ctx, s.client, attemptID)
}

func (s *AttemptStore) load(ctx context.Context, c getter, attemptID string) (session.Attempt, error) {
	data, err := c.Get(ctx, s.key(attemptID)).Bytes()
	if isNil(err) {
		return session.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return session.Attempt{}, fmt.Errorf("load attempt: %w", err)
	}
	var attempt session.Attempt
	if err := json.Unmarshal(data, &attempt); err != nil {
		return session.Attempt{}, fmt.Errorf("unmarshal attempt: %w", err)
	}
	if attempt.SelectedAnswers == nil {
		attempt.SelectedAnswers = map[int]string{}
	}
	return attempt, nil
}

func (s *AttemptStore) Delete(ctx context.Context, attemptID string) error {
	n, err := s.client.Del(ctx, s.key(attemptID)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAttemptNotFound
	}
	return nil
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *AttemptStore) key(attemptID string) string {
	return "quiz:attempt:" + attemptID
}
