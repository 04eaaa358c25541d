package score

import (
	"github.com/sirupsen/logrus"

	"github.com/urbanpulse/resilience-api/analyzer"
	"github.com/urbanpulse/resilience-api/schema"
)

var log = logrus.WithField("prefix", "score")

// Composite derives the city composite score from the domain analyzer
// results. A nil domain result contributes the neutral score; which sources
// were omitted and why is the run report's concern, never guessed here.
func Composite(results *analyzer.Results) schema.CompositeScore {
	domains := map[string]float64{
		schema.DomainAirQuality: NeutralScore,
		schema.DomainHeat:       NeutralScore,
		schema.DomainFlood:      NeutralScore,
		schema.DomainHealthcare: NeutralScore,
		schema.DomainGreenSpace: NeutralScore,
	}

	if r := results.AirQuality; r != nil && len(r.Wards) > 0 {
		sum := 0.0
		for _, w := range r.Wards {
			sum += w.MeanAQI
		}
		domains[schema.DomainAirQuality] = AirQuality(sum / float64(len(r.Wards)))
	}

	if r := results.Heat; r != nil {
		domains[schema.DomainHeat] = Heat(r.HeatIslandCount)
	}

	if r := results.Flood; r != nil {
		if len(r.Zones) > 0 {
			domains[schema.DomainFlood] = Flood(r.HighRiskZones, len(r.Zones))
		} else if len(r.Wards) > 0 {
			sum := 0.0
			for _, w := range r.Wards {
				sum += w.AvgRisk
			}
			domains[schema.DomainFlood] = FloodFromAverageRisk(sum / float64(len(r.Wards)))
		}
	}

	if r := results.Healthcare; r != nil {
		if len(r.Gaps) > 0 {
			critical := 0
			for _, g := range r.Gaps {
				if g.Priority == schema.PriorityCritical {
					critical++
				}
			}
			domains[schema.DomainHealthcare] = Healthcare(critical, len(r.Gaps))
		} else if len(r.Wards) > 0 {
			sum := 0.0
			for _, w := range r.Wards {
				sum += w.FacilitiesPer1000
			}
			domains[schema.DomainHealthcare] = HealthcareFromCapacity(sum / float64(len(r.Wards)))
		}
	}

	if r := results.GreenSpace; r != nil && len(r.Wards) > 0 {
		domains[schema.DomainGreenSpace] = Green(r.MeanCombinedScore())
	}

	overall := 0.0
	for _, s := range domains {
		overall += s
	}
	overall = clamp(overall / float64(len(domains)))

	composite := schema.CompositeScore{
		Domains: domains,
		Overall: overall,
		Status:  Status(overall),
	}
	log.WithFields(logrus.Fields{
		"overall": overall,
		"status":  composite.Status,
	}).Info("composite score computed")
	return composite
}

// Status maps the overall score onto the five-tier city status label.
func Status(overall float64) string {
	switch {
	case overall >= 80:
		return schema.StatusHighlyResilient
	case overall >= 65:
		return schema.StatusModeratelyResilient
	case overall >= 50:
		return schema.StatusDeveloping
	case overall >= 35:
		return schema.StatusVulnerable
	default:
		return schema.StatusHighlyVulnerable
	}
}
