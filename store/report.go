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

var ErrReportNotFound = fmt.Errorf("analysis report not found")

type ReportStore interface {
	CreateReport(report *schema.AnalysisReport) error
	GetReport(id string) (*schema.AnalysisReport, error)
	LatestReport(region string) (*schema.AnalysisReport, error)
}

// CreateReport persists the outcome of one analysis run.
func (m *mongoDB) CreateReport(report *schema.AnalysisReport) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err := m.collection(schema.ReportCollection).InsertOne(ctx, report)
	return err
}

// GetReport returns one run report by its id.
func (m *mongoDB) GetReport(id string) (*schema.AnalysisReport, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var report schema.AnalysisReport
	err := m.collection(schema.ReportCollection).
		FindOne(ctx, bson.M{"_id": id}).
		Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// LatestReport returns the most recently completed run for a region.
func (m *mongoDB) LatestReport(region string) (*schema.AnalysisReport, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	opts := options.FindOne().SetSort(bson.M{"completed_at": -1})
	var report schema.AnalysisReport
	err := m.collection(schema.ReportCollection).
		FindOne(ctx, bson.M{"region": region}, opts).
		Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}
