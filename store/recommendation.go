package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/urbanpulse/resilience-api/schema"
)

type RecommendationStore interface {
	SaveRecommendations(analysisID string, recommendations []schema.Recommendation) error
	ListRecommendations(analysisID string, areaNumber int) ([]schema.Recommendation, error)
}

type recommendationDoc struct {
	AnalysisID            string `bson:"analysis_id"`
	Seq                   int    `bson:"seq"`
	schema.Recommendation `bson:",inline"`
}

// SaveRecommendations stores the ranked recommendations of one run. The
// sequence number preserves engine ranking across reads.
func (m *mongoDB) SaveRecommendations(analysisID string, recommendations []schema.Recommendation) error {
	if len(recommendations) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(recommendations))
	for i, r := range recommendations {
		docs = append(docs, recommendationDoc{AnalysisID: analysisID, Seq: i, Recommendation: r})
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err := m.collection(schema.RecommendationCollection).InsertMany(ctx, docs)
	return err
}

// ListRecommendations returns recommendations of one run in ranked order.
// areaNumber 0 means all wards.
func (m *mongoDB) ListRecommendations(analysisID string, areaNumber int) ([]schema.Recommendation, error) {
	filter := bson.M{"analysis_id": analysisID}
	if areaNumber > 0 {
		filter["area_number"] = areaNumber
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"seq": 1})
	cursor, err := m.collection(schema.RecommendationCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	recommendations := []schema.Recommendation{}
	for cursor.Next(ctx) {
		var doc recommendationDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		recommendations = append(recommendations, doc.Recommendation)
	}
	return recommendations, cursor.Err()
}
