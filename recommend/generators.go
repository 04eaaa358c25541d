package recommend

import (
	"fmt"
	"math"
	"strings"

	"github.com/urbanpulse/resilience-api/analyzer"
	"github.com/urbanpulse/resilience-api/schema"
)

// Impact labels attached to recommendations.
const (
	ImpactCritical = "Critical"
	ImpactHigh     = "High"
	ImpactMedium   = "Medium"
)

// intervention is one row of a domain's measure table.
type intervention struct {
	descriptions []string
	costUSD      float64
	timeline     string
}

func shortTitle(prefix, description string) string {
	words := strings.Fields(description)
	if len(words) >= 2 {
		return fmt.Sprintf("%s - %s %s", prefix, words[0], words[1])
	}
	return fmt.Sprintf("%s - %s", prefix, description)
}

// AirQuality proposes measures for every ward whose mean AQI exceeds 100,
// scaled by how poor the air is.
func AirQuality(result *analyzer.AirQualityResult) []schema.Recommendation {
	if result == nil {
		return nil
	}

	var recs []schema.Recommendation
	for _, ward := range result.Wards {
		if ward.MeanAQI <= 100 {
			continue
		}

		var priority schema.Priority
		var impact string
		var plan intervention
		switch {
		case ward.MeanAQI > 200:
			priority, impact = schema.PriorityCritical, ImpactHigh
			plan = intervention{
				descriptions: []string{
					"Implement emergency pollution control measures",
					"Deploy air purification systems in public spaces",
					"Restrict heavy vehicle traffic during peak hours",
				},
				costUSD:  500000,
				timeline: "3-6 months",
			}
		case ward.MeanAQI > 150:
			priority, impact = schema.PriorityHigh, ImpactHigh
			plan = intervention{
				descriptions: []string{
					"Install air quality monitoring stations",
					"Promote electric vehicle adoption",
					"Implement green belt around industrial areas",
				},
				costUSD:  300000,
				timeline: "6-12 months",
			}
		default:
			priority, impact = schema.PriorityMedium, ImpactMedium
			plan = intervention{
				descriptions: []string{
					"Increase urban tree plantation",
					"Promote public transportation usage",
					"Implement dust control measures",
				},
				costUSD:  150000,
				timeline: "12-18 months",
			}
		}

		for _, desc := range plan.descriptions {
			recs = append(recs, schema.Recommendation{
				AreaNumber:         ward.AreaNumber,
				AreaName:           ward.AreaName,
				Intervention:       schema.InterventionAirQuality,
				Priority:           priority,
				Title:              shortTitle("Air Quality Improvement", desc),
				Description:        desc,
				EstimatedCostUSD:   plan.costUSD / float64(len(plan.descriptions)),
				EstimatedImpact:    impact,
				Timeline:           plan.timeline,
				AffectedPopulation: ward.AffectedPopulation,
				Metrics: map[string]float64{
					"current_aqi":          ward.MeanAQI,
					"target_aqi_reduction": math.Min(50, ward.MeanAQI-100),
					"population_benefited": float64(ward.AffectedPopulation),
				},
			})
		}
	}
	return recs
}

// heatClusterThreshold is the per-ward heat island count below which no
// measure is proposed.
const heatClusterThreshold = 3

// Heat proposes cooling measures for wards with significant heat island
// clusters. Hotspots are attributed to the ward containing them.
func Heat(result *analyzer.HeatResult, wards []schema.AreaPolygon) []schema.Recommendation {
	if result == nil {
		return nil
	}

	counts := make([]int, len(wards))
	centers := make([]*schema.Coordinates, len(wards))
	for _, h := range result.Hotspots {
		for k := range wards {
			if wards[k].Contains(h.Latitude, h.Longitude) {
				counts[k]++
				if centers[k] == nil {
					centers[k] = &schema.Coordinates{Latitude: h.Latitude, Longitude: h.Longitude}
				}
				break
			}
		}
	}

	descriptions := []string{
		"Install cool roofing systems on public buildings",
		"Create urban forest corridors",
	}

	var recs []schema.Recommendation
	for k := range wards {
		if counts[k] < heatClusterThreshold {
			continue
		}

		priority, impact, cost := schema.PriorityMedium, ImpactMedium, 100000.0
		expectedReduction := 1.5
		if counts[k] >= 5 {
			priority, impact, cost = schema.PriorityHigh, ImpactHigh, 200000.0
			expectedReduction = 2.5
		}

		for _, desc := range descriptions {
			recs = append(recs, schema.Recommendation{
				AreaNumber:         wards[k].Number,
				AreaName:           wards[k].Name,
				Intervention:       schema.InterventionHeatMitigation,
				Priority:           priority,
				Title:              shortTitle("Heat Island Mitigation", desc),
				Description:        desc,
				EstimatedCostUSD:   cost / float64(len(descriptions)),
				EstimatedImpact:    impact,
				Timeline:           "9-15 months",
				AffectedPopulation: wards[k].Population,
				Metrics: map[string]float64{
					"heat_islands_count":      float64(counts[k]),
					"expected_temp_reduction": expectedReduction,
				},
				Coordinates: centers[k],
			})
		}
	}
	return recs
}

// Flood proposes defenses for wards carrying high-risk zones, scaled by the
// worst zone seen in the ward.
func Flood(result *analyzer.FloodResult) []schema.Recommendation {
	if result == nil {
		return nil
	}

	var recs []schema.Recommendation
	for _, ward := range result.Wards {
		if ward.HighRiskZones == 0 {
			continue
		}

		var priority schema.Priority
		var impact string
		var plan intervention
		switch {
		case ward.MaxRisk >= 0.75:
			priority, impact = schema.PriorityCritical, ImpactCritical
			plan = intervention{
				descriptions: []string{
					"Construct emergency flood barriers",
					"Upgrade storm water drainage system",
					"Install flood early warning systems",
				},
				costUSD:  800000,
				timeline: "6-12 months",
			}
		case ward.MaxRisk >= 0.5:
			priority, impact = schema.PriorityHigh, ImpactHigh
			plan = intervention{
				descriptions: []string{
					"Improve drainage infrastructure",
					"Create retention ponds",
					"Implement permeable pavement systems",
				},
				costUSD:  400000,
				timeline: "12-18 months",
			}
		default:
			priority, impact = schema.PriorityMedium, ImpactHigh
			plan = intervention{
				descriptions: []string{
					"Regular drainage maintenance",
					"Community flood preparedness training",
					"Install water level monitoring",
				},
				costUSD:  150000,
				timeline: "6-9 months",
			}
		}

		for _, desc := range plan.descriptions {
			recs = append(recs, schema.Recommendation{
				AreaNumber:         ward.AreaNumber,
				AreaName:           ward.AreaName,
				Intervention:       schema.InterventionFloodDefense,
				Priority:           priority,
				Title:              shortTitle("Flood Defense", desc),
				Description:        desc,
				EstimatedCostUSD:   plan.costUSD / float64(len(plan.descriptions)),
				EstimatedImpact:    impact,
				Timeline:           plan.timeline,
				AffectedPopulation: ward.PopulationAtRisk,
				Metrics: map[string]float64{
					"flood_zones_count":        float64(ward.ZoneCount),
					"max_flood_risk":           ward.MaxRisk,
					"drainage_capacity_needed": ward.DrainageM3PerHr,
				},
			})
		}
	}
	return recs
}

// Healthcare proposes capacity measures for wards assessed Insufficient.
func Healthcare(result *analyzer.HealthcareResult) []schema.Recommendation {
	if result == nil {
		return nil
	}

	var recs []schema.Recommendation
	for _, ward := range result.Wards {
		if ward.Adequacy != analyzer.AdequacyInsufficient {
			continue
		}

		var priority schema.Priority
		var impact string
		var plan intervention
		if ward.FacilitiesPer1000 < 0.2 {
			priority, impact = schema.PriorityCritical, ImpactCritical
			plan = intervention{
				descriptions: []string{
					"Establish new primary health center",
					"Deploy mobile medical units",
					"Set up telemedicine facilities",
				},
				costUSD:  1000000,
				timeline: "12-24 months",
			}
		} else {
			priority, impact = schema.PriorityHigh, ImpactHigh
			plan = intervention{
				descriptions: []string{
					"Expand existing clinic capacity",
					"Add specialized medical services",
					"Improve ambulance services",
				},
				costUSD:  500000,
				timeline: "9-15 months",
			}
		}

		needed := math.Max(1, math.Floor((1.0-ward.FacilitiesPer1000)*float64(ward.Population)/1000))
		for _, desc := range plan.descriptions {
			recs = append(recs, schema.Recommendation{
				AreaNumber:         ward.AreaNumber,
				AreaName:           ward.AreaName,
				Intervention:       schema.InterventionHealthcare,
				Priority:           priority,
				Title:              shortTitle("Healthcare Access", desc),
				Description:        desc,
				EstimatedCostUSD:   plan.costUSD / float64(len(plan.descriptions)),
				EstimatedImpact:    impact,
				Timeline:           plan.timeline,
				AffectedPopulation: ward.Population,
				Metrics: map[string]float64{
					"current_facilities_per_1000":  ward.FacilitiesPer1000,
					"target_facilities_per_1000":   1.0,
					"additional_facilities_needed": needed,
				},
			})
		}
	}
	return recs
}

// GreenSpace proposes development measures for wards prioritized Critical or
// High by the green space deficit analysis.
func GreenSpace(result *analyzer.GreenSpaceResult) []schema.Recommendation {
	if result == nil {
		return nil
	}

	var recs []schema.Recommendation
	for _, ward := range result.Wards {
		if ward.Priority != schema.PriorityCritical && ward.Priority != schema.PriorityHigh {
			continue
		}

		var impact string
		var plan intervention
		if ward.Priority == schema.PriorityCritical {
			impact = ImpactHigh
			plan = intervention{
				descriptions: []string{
					"Develop new urban parks",
					"Create rooftop gardens on public buildings",
					"Establish community gardens",
				},
				costUSD:  300000,
				timeline: "12-18 months",
			}
		} else {
			impact = ImpactMedium
			plan = intervention{
				descriptions: []string{
					"Expand existing green spaces",
					"Plant street trees",
					"Create green corridors",
				},
				costUSD:  150000,
				timeline: "9-12 months",
			}
		}

		for _, desc := range plan.descriptions {
			recs = append(recs, schema.Recommendation{
				AreaNumber:         ward.AreaNumber,
				AreaName:           ward.AreaName,
				Intervention:       schema.InterventionGreenSpace,
				Priority:           ward.Priority,
				Title:              shortTitle("Green Space Development", desc),
				Description:        desc,
				EstimatedCostUSD:   plan.costUSD / float64(len(plan.descriptions)),
				EstimatedImpact:    impact,
				Timeline:           plan.timeline,
				AffectedPopulation: ward.Population,
				Metrics: map[string]float64{
					"current_green_space_per_person": ward.PerPersonSqm,
					"target_green_space_per_person":  9.0,
					"additional_green_space_needed":  ward.RecommendedNewGreenSqm,
				},
			})
		}
	}
	return recs
}
