package analyzer

import (
	"github.com/urbanpulse/resilience-api/raster"
	"github.com/urbanpulse/resilience-api/schema"
)

// Hotspot threshold on the overall AQI grid.
const aqiHotspotThreshold = 150

// WardAirQuality is the per-ward air quality rollup.
type WardAirQuality struct {
	AreaNumber         int     `json:"area_number" bson:"area_number"`
	AreaName           string  `json:"area_name" bson:"area_name"`
	MeanAQI            float64 `json:"mean_aqi" bson:"mean_aqi"`
	MaxAQI             float64 `json:"max_aqi" bson:"max_aqi"`
	Category           string  `json:"category" bson:"category"`
	Population         int64   `json:"population" bson:"population"`
	AffectedPopulation int64   `json:"affected_population" bson:"affected_population"`
}

// AirQualityResult is the air quality domain output.
type AirQualityResult struct {
	Hotspots []schema.Hotspot
	Wards    []WardAirQuality
	MeanAQI  float64
}

// AnalyzeAirQuality finds pollution hotspots on the AQI grid and rolls the
// grid up per ward. A ward's population counts as affected when its mean AQI
// exceeds 100.
func AnalyzeAirQuality(aqi *schema.GeoRaster, wards []schema.AreaPolygon) *AirQualityResult {
	result := &AirQualityResult{}

	wardValues := make([][]float64, len(wards))
	var all []float64

	forEachCell(aqi, func(i, j int, lat, lon, v float64) {
		all = append(all, v)

		if v >= aqiHotspotThreshold {
			var severity string
			var priority schema.Priority
			switch {
			case v >= 300:
				severity, priority = raster.AQISevere, schema.PriorityCritical
			case v >= 200:
				severity, priority = raster.AQIVeryPoor, schema.PriorityHigh
			default:
				severity, priority = raster.AQIPoor, schema.PriorityMedium
			}
			result.Hotspots = append(result.Hotspots, schema.Hotspot{
				Domain:      schema.DomainAirQuality,
				Latitude:    lat,
				Longitude:   lon,
				Severity:    clipUnit(v / 500),
				Category:    severity,
				Priority:    priority,
				Measurement: v,
			})
		}

		if k := wardIndexOf(wards, lat, lon); k >= 0 {
			wardValues[k] = append(wardValues[k], v)
		}
	})

	result.MeanAQI = mean(all)

	for k := range wards {
		if len(wardValues[k]) == 0 {
			continue
		}
		meanAQI := mean(wardValues[k])

		affected := int64(0)
		if meanAQI > 100 {
			affected = wards[k].Population
		}

		result.Wards = append(result.Wards, WardAirQuality{
			AreaNumber:         wards[k].Number,
			AreaName:           wards[k].Name,
			MeanAQI:            meanAQI,
			MaxAQI:             maxOf(wardValues[k]),
			Category:           raster.ClassifyAQI(int(meanAQI)),
			Population:         wards[k].Population,
			AffectedPopulation: affected,
		})
	}

	log.WithField("hotspots", len(result.Hotspots)).Info("air quality analysis complete")
	return result
}

func clipUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
