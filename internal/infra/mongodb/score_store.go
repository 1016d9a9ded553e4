package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"quiz-session-service/internal/domain"
)

type ScoreStore struct {
	coll *mongo.Collection
}

func NewScoreStore(db *mongo.Database) *ScoreStore {
	return &ScoreStore{coll: db.Collection(scoreCollection)}
}

// InsertScore ignores a repeated record ID, so a retried submission does not duplicate.
func (s *ScoreStore) InsertScore(ctx context.Context, record domain.ScoreRecord) error {
	_, err := s.coll.InsertOne(ctx, record)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func (s *ScoreStore) ListScores(ctx context.Context, userID string) ([]domain.ScoreRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	var out []domain.ScoreRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode scores: %w", err)
	}
	return out, nil
}

func (s *ScoreStore) DeleteScoresForQuiz(ctx context.Context, quizID string) error {
	if _, err := s.coll.DeleteMany(ctx, bson.M{"quizId": quizID}); err != nil {
		return fmt.Errorf("delete scores: %w", err)
	}
	return nil
}
