package analyzer

import (
	"github.com/sirupsen/logrus"

	"github.com/urbanpulse/resilience-api/schema"
)

const (
	// Minimum difference over the scene mean for a pixel to qualify as a
	// heat island.
	heatIslandThresholdC = 2.0

	// Vegetation cutoff: high NDVI rules a hot pixel out.
	heatIslandNDVICutoff = 0.3

	// Buffer in degrees around a green space centroid when measuring its
	// cooling effect, roughly 500 m.
	coolingBufferDeg = 0.005
)

// Heat island intensity labels.
const (
	IntensityModerate = "Moderate"
	IntensityHigh     = "High"
	IntensityExtreme  = "Extreme"
)

// GreenSpaceCooling quantifies the cooling effect of one green space on its
// surroundings.
type GreenSpaceCooling struct {
	Name              string  `json:"name" bson:"name"`
	AreaSqm           float64 `json:"area_sqm" bson:"area_sqm"`
	AvgTempNearbyC    float64 `json:"avg_temp_nearby_c" bson:"avg_temp_nearby_c"`
	AvgTempDistantC   float64 `json:"avg_temp_distant_c" bson:"avg_temp_distant_c"`
	CoolingEffectC    float64 `json:"cooling_effect_c" bson:"cooling_effect_c"`
	CoolingPerHectare float64 `json:"cooling_per_hectare" bson:"cooling_per_hectare"`
}

// HeatResult is the heat domain output.
type HeatResult struct {
	Hotspots        []schema.Hotspot
	HeatIslandCount int
	MeanTemperature float64
	Cooling         []GreenSpaceCooling
}

// AnalyzeHeat finds urban heat islands on the temperature grid and measures
// the cooling effect of green spaces. A pixel is a heat island when it sits
// at least the threshold above the scene mean and, when vegetation data is
// available, local NDVI is below the cutoff.
func AnalyzeHeat(temp, ndvi *schema.GeoRaster, greenSpaces []schema.GreenSpacePolygon) *HeatResult {
	result := &HeatResult{}

	var all []float64
	forEachCell(temp, func(i, j int, lat, lon, v float64) {
		all = append(all, v)
	})
	if len(all) == 0 {
		return result
	}
	result.MeanTemperature = mean(all)

	forEachCell(temp, func(i, j int, lat, lon, v float64) {
		diff := v - result.MeanTemperature
		if diff < heatIslandThresholdC {
			return
		}
		if ndvi != nil {
			if nv, ok := sampleAt(ndvi, lat, lon); ok && nv >= heatIslandNDVICutoff {
				return
			}
		}

		var intensity string
		var priority schema.Priority
		switch {
		case diff >= 5.0:
			intensity, priority = IntensityExtreme, schema.PriorityCritical
		case diff >= 3.5:
			intensity, priority = IntensityHigh, schema.PriorityHigh
		default:
			intensity, priority = IntensityModerate, schema.PriorityMedium
		}

		result.Hotspots = append(result.Hotspots, schema.Hotspot{
			Domain:      schema.DomainHeat,
			Latitude:    lat,
			Longitude:   lon,
			Severity:    clipUnit(diff / 8),
			Category:    intensity,
			Priority:    priority,
			Measurement: diff,
		})
	})
	result.HeatIslandCount = len(result.Hotspots)

	result.Cooling = analyzeCooling(temp, greenSpaces)

	log.WithFields(logrus.Fields{
		"heat_islands": result.HeatIslandCount,
		"mean_temp_c":  result.MeanTemperature,
	}).Info("heat analysis complete")
	return result
}

// analyzeCooling compares temperatures inside a buffer around each green
// space against the rest of the scene. Pixels inside the green space itself
// are excluded from the nearby sample.
func analyzeCooling(temp *schema.GeoRaster, greenSpaces []schema.GreenSpacePolygon) []GreenSpaceCooling {
	var out []GreenSpaceCooling
	for gi := range greenSpaces {
		gs := &greenSpaces[gi]
		centerLat, centerLon := gs.Centroid()

		var near, far []float64
		forEachCell(temp, func(i, j int, lat, lon, v float64) {
			dLat := lat - centerLat
			dLon := lon - centerLon
			if dLat*dLat+dLon*dLon <= coolingBufferDeg*coolingBufferDeg {
				if gs.Boundary != nil && gs.Contains(lat, lon) {
					return
				}
				near = append(near, v)
			} else {
				far = append(far, v)
			}
		})

		if len(near) == 0 || len(far) == 0 {
			continue
		}

		avgNear, avgFar := mean(near), mean(far)
		cooling := GreenSpaceCooling{
			Name:            gs.Name,
			AreaSqm:         gs.AreaSqm,
			AvgTempNearbyC:  avgNear,
			AvgTempDistantC: avgFar,
			CoolingEffectC:  avgFar - avgNear,
		}
		if hectares := gs.AreaSqm / 10000; hectares > 0 {
			cooling.CoolingPerHectare = cooling.CoolingEffectC / hectares
		}
		out = append(out, cooling)
	}
	return out
}
