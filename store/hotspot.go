package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/urbanpulse/resilience-api/schema"
)

type HotspotStore interface {
	SaveHotspots(analysisID string, hotspots []schema.Hotspot) error
	ListHotspots(analysisID, domain string) ([]schema.Hotspot, error)
}

type hotspotDoc struct {
	AnalysisID     string `bson:"analysis_id"`
	Seq            int    `bson:"seq"`
	schema.Hotspot `bson:",inline"`
}

// SaveHotspots stores all hotspots of one run in a single batch.
func (m *mongoDB) SaveHotspots(analysisID string, hotspots []schema.Hotspot) error {
	if len(hotspots) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(hotspots))
	for i, h := range hotspots {
		docs = append(docs, hotspotDoc{AnalysisID: analysisID, Seq: i, Hotspot: h})
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err := m.collection(schema.HotspotCollection).InsertMany(ctx, docs)
	return err
}

// ListHotspots returns the hotspots of one run in analyzer order, optionally
// filtered by domain.
func (m *mongoDB) ListHotspots(analysisID, domain string) ([]schema.Hotspot, error) {
	filter := bson.M{"analysis_id": analysisID}
	if domain != "" {
		filter["domain"] = domain
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"seq": 1})
	cursor, err := m.collection(schema.HotspotCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	hotspots := []schema.Hotspot{}
	for cursor.Next(ctx) {
		var doc hotspotDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		hotspots = append(hotspots, doc.Hotspot)
	}
	return hotspots, cursor.Err()
}
