package analyzer

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/urbanpulse/resilience-api/raster"
	"github.com/urbanpulse/resilience-api/schema"
)

const (
	// Zones below this adjusted risk are not reported.
	floodZoneThreshold = 0.25

	// Elevation below which a cell's risk is raised, in meters.
	floodElevationCutoffM = 20.0

	// High risk cutoff used in the drainage rollup.
	highRiskCutoff = 0.5

	// Drainage capacity estimate per high-risk zone, m3/hour.
	drainagePerHighRiskZone = 100.0
)

// FloodZone is one grid cell whose adjusted flood risk crosses the reporting
// threshold.
type FloodZone struct {
	Latitude        float64         `json:"latitude" bson:"latitude"`
	Longitude       float64         `json:"longitude" bson:"longitude"`
	Risk            float64         `json:"risk" bson:"risk"`
	Category        string          `json:"category" bson:"category"`
	Priority        schema.Priority `json:"priority" bson:"priority"`
	ElevationM      float64         `json:"elevation_m" bson:"elevation_m"`
	PrecipitationMM float64         `json:"precipitation_mm" bson:"precipitation_mm"`
}

// WardDrainage is the per-ward flood rollup.
type WardDrainage struct {
	AreaNumber       int     `json:"area_number" bson:"area_number"`
	AreaName         string  `json:"area_name" bson:"area_name"`
	ZoneCount        int     `json:"zone_count" bson:"zone_count"`
	HighRiskZones    int     `json:"high_risk_zones" bson:"high_risk_zones"`
	AvgRisk          float64 `json:"avg_risk" bson:"avg_risk"`
	MaxRisk          float64 `json:"max_risk" bson:"max_risk"`
	DrainageM3PerHr  float64 `json:"drainage_m3_per_hr" bson:"drainage_m3_per_hr"`
	PopulationAtRisk int64   `json:"population_at_risk" bson:"population_at_risk"`
}

// FloodResult is the flood domain output.
type FloodResult struct {
	Zones         []FloodZone
	Hotspots      []schema.Hotspot
	Wards         []WardDrainage
	HighRiskZones int
}

// AnalyzeFlood turns the base flood risk grid into reported zones, raising
// risk where elevation is low, then rolls zones up per ward. Elevation is
// optional; without it the base risk stands as-is, no terrain is fabricated.
func AnalyzeFlood(risk, precip *schema.GeoRaster, elevation [][]float64, wards []schema.AreaPolygon) *FloodResult {
	result := &FloodResult{}

	wardZones := make([][]float64, len(wards))

	forEachCell(risk, func(i, j int, lat, lon, v float64) {
		elev := math.NaN()
		adjusted := v
		if elevation != nil && i < len(elevation) && j < len(elevation[i]) {
			elev = elevation[i][j]
			factor := math.Max(0, (floodElevationCutoffM-elev)/floodElevationCutoffM)
			adjusted = math.Min(1.0, v+factor*0.3)
		}

		if adjusted < floodZoneThreshold {
			return
		}

		var priority schema.Priority
		switch {
		case adjusted >= 0.75:
			priority = schema.PriorityCritical
		case adjusted >= highRiskCutoff:
			priority = schema.PriorityHigh
		default:
			priority = schema.PriorityMedium
		}

		zone := FloodZone{
			Latitude:   lat,
			Longitude:  lon,
			Risk:       adjusted,
			Category:   raster.ClassifyFloodRisk(adjusted),
			Priority:   priority,
			ElevationM: elev,
		}
		if precip != nil && i < precip.Rows() && j < precip.Cols() {
			zone.PrecipitationMM = precip.Values[i][j]
		}
		result.Zones = append(result.Zones, zone)

		result.Hotspots = append(result.Hotspots, schema.Hotspot{
			Domain:      schema.DomainFlood,
			Latitude:    lat,
			Longitude:   lon,
			Severity:    adjusted,
			Category:    zone.Category,
			Priority:    priority,
			Measurement: adjusted,
		})

		if adjusted >= highRiskCutoff {
			result.HighRiskZones++
		}

		if k := wardIndexOf(wards, lat, lon); k >= 0 {
			wardZones[k] = append(wardZones[k], adjusted)
		}
	})

	for k := range wards {
		if len(wardZones[k]) == 0 {
			continue
		}
		avgRisk := mean(wardZones[k])

		highRisk := 0
		for _, z := range wardZones[k] {
			if z >= highRiskCutoff {
				highRisk++
			}
		}

		popAtRisk := int64(0)
		if avgRisk > floodZoneThreshold {
			popAtRisk = int64(float64(wards[k].Population) * avgRisk)
		}

		result.Wards = append(result.Wards, WardDrainage{
			AreaNumber:       wards[k].Number,
			AreaName:         wards[k].Name,
			ZoneCount:        len(wardZones[k]),
			HighRiskZones:    highRisk,
			AvgRisk:          avgRisk,
			MaxRisk:          maxOf(wardZones[k]),
			DrainageM3PerHr:  float64(highRisk) * drainagePerHighRiskZone,
			PopulationAtRisk: popAtRisk,
		})
	}

	log.WithFields(logrus.Fields{
		"zones":     len(result.Zones),
		"high_risk": result.HighRiskZones,
	}).Info("flood analysis complete")
	return result
}
