package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/urbanpulse/resilience-api/schema"
)

var ErrScoreNotFound = fmt.Errorf("composite score not found")

type ScoreStore interface {
	SaveScore(analysisID, region string, completedAt int64, score schema.CompositeScore) error
	LatestScore(region string) (*schema.CompositeScore, error)
}

type scoreDoc struct {
	AnalysisID            string `bson:"analysis_id"`
	Region                string `bson:"region"`
	CompletedAt           int64  `bson:"completed_at"`
	schema.CompositeScore `bson:",inline"`
}

// SaveScore persists the composite score of one run.
func (m *mongoDB) SaveScore(analysisID, region string, completedAt int64, score schema.CompositeScore) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err := m.collection(schema.ScoreCollection).InsertOne(ctx, scoreDoc{
		AnalysisID:     analysisID,
		Region:         region,
		CompletedAt:    completedAt,
		CompositeScore: score,
	})
	return err
}

// LatestScore returns the most recent composite score for a region.
func (m *mongoDB) LatestScore(region string) (*schema.CompositeScore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	opts := options.FindOne().SetSort(bson.M{"completed_at": -1})
	var doc scoreDoc
	err := m.collection(schema.ScoreCollection).
		FindOne(ctx, bson.M{"region": region}, opts).
		Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrScoreNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc.CompositeScore, nil
}
