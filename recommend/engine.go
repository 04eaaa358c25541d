package recommend

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/urbanpulse/resilience-api/analyzer"
	"github.com/urbanpulse/resilience-api/schema"
)

var log = logrus.WithField("prefix", "recommend")

// GenerateAll runs every domain generator over the analysis results and
// returns the measures ranked Critical-first, ties broken by affected
// population descending. The sort is stable so equal entries keep generator
// order.
func GenerateAll(results *analyzer.Results, wards []schema.AreaPolygon) []schema.Recommendation {
	var recs []schema.Recommendation
	recs = append(recs, AirQuality(results.AirQuality)...)
	recs = append(recs, Heat(results.Heat, wards)...)
	recs = append(recs, Flood(results.Flood)...)
	recs = append(recs, Healthcare(results.Healthcare)...)
	recs = append(recs, GreenSpace(results.GreenSpace)...)

	Rank(recs)

	log.WithField("recommendations", len(recs)).Info("recommendation generation complete")
	return recs
}

// Rank sorts recommendations in place by priority rank, then affected
// population descending.
func Rank(recs []schema.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Priority.Rank() != recs[j].Priority.Rank() {
			return recs[i].Priority.Rank() < recs[j].Priority.Rank()
		}
		return recs[i].AffectedPopulation > recs[j].AffectedPopulation
	})
}

// Summaries aggregates recommendations per ward: counts by priority, total
// cost, the distinct intervention types, and the largest affected population
// among the ward's measures.
func Summaries(recs []schema.Recommendation) []schema.AreaSummary {
	byArea := make(map[int]*schema.AreaSummary)
	types := make(map[int]map[string]bool)
	var order []int

	for _, rec := range recs {
		summary, ok := byArea[rec.AreaNumber]
		if !ok {
			summary = &schema.AreaSummary{
				AreaNumber: rec.AreaNumber,
				AreaName:   rec.AreaName,
			}
			byArea[rec.AreaNumber] = summary
			types[rec.AreaNumber] = make(map[string]bool)
			order = append(order, rec.AreaNumber)
		}

		summary.Total++
		summary.TotalCostUSD += rec.EstimatedCostUSD
		if rec.AffectedPopulation > summary.AffectedPopulation {
			summary.AffectedPopulation = rec.AffectedPopulation
		}
		types[rec.AreaNumber][string(rec.Intervention)] = true

		switch rec.Priority {
		case schema.PriorityCritical:
			summary.CriticalPriority++
		case schema.PriorityHigh:
			summary.HighPriority++
		case schema.PriorityMedium:
			summary.MediumPriority++
		default:
			summary.LowPriority++
		}
	}

	out := make([]schema.AreaSummary, 0, len(order))
	for _, number := range order {
		summary := byArea[number]
		for t := range types[number] {
			summary.InterventionTypes = append(summary.InterventionTypes, t)
		}
		sort.Strings(summary.InterventionTypes)
		out = append(out, *summary)
	}
	return out
}
