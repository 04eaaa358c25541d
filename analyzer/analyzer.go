package analyzer

import (
	"github.com/gammazero/workerpool"
	"github.com/sirupsen/logrus"

	"github.com/urbanpulse/resilience-api/schema"
)

var log = logrus.WithField("prefix", "analyzer")

// Datasets bundles everything one analysis run consumes. Nil rasters and
// empty slices mean the corresponding source was omitted; each analyzer
// degrades on its own rather than failing the run.
type Datasets struct {
	AQI           *schema.GeoRaster
	Temperature   *schema.GeoRaster
	NDVI          *schema.GeoRaster
	FloodRisk     *schema.GeoRaster
	Precipitation *schema.GeoRaster
	// Elevation in meters, aligned cell-for-cell with FloodRisk. Optional.
	Elevation [][]float64

	Wards       []schema.AreaPolygon
	Facilities  []schema.FacilityPoint
	GreenSpaces []schema.GreenSpacePolygon
	Population  []schema.PopulationPoint
}

// Results carries the five domain outputs. A nil field means the domain had
// no usable input.
type Results struct {
	AirQuality *AirQualityResult
	Heat       *HeatResult
	Flood      *FloodResult
	Healthcare *HealthcareResult
	GreenSpace *GreenSpaceResult
}

// Hotspots flattens every domain's hotspots into one slice.
func (r *Results) Hotspots() []schema.Hotspot {
	var out []schema.Hotspot
	if r.AirQuality != nil {
		out = append(out, r.AirQuality.Hotspots...)
	}
	if r.Heat != nil {
		out = append(out, r.Heat.Hotspots...)
	}
	if r.Flood != nil {
		out = append(out, r.Flood.Hotspots...)
	}
	if r.Healthcare != nil {
		out = append(out, r.Healthcare.Hotspots...)
	}
	return out
}

const analyzerPoolSize = 5

// RunAll executes the five domain analyzers concurrently. Each task writes
// only its own result field, and StopWait is the join barrier scoring waits
// behind.
func RunAll(d *Datasets) *Results {
	results := &Results{}
	wp := workerpool.New(analyzerPoolSize)

	wp.Submit(func() {
		if d.AQI != nil {
			results.AirQuality = AnalyzeAirQuality(d.AQI, d.Wards)
		}
	})
	wp.Submit(func() {
		if d.Temperature != nil {
			results.Heat = AnalyzeHeat(d.Temperature, d.NDVI, d.GreenSpaces)
		}
	})
	wp.Submit(func() {
		if d.FloodRisk != nil {
			results.Flood = AnalyzeFlood(d.FloodRisk, d.Precipitation, d.Elevation, d.Wards)
		}
	})
	wp.Submit(func() {
		if len(d.Facilities) > 0 && len(d.Population) > 0 {
			results.Healthcare = AnalyzeHealthcare(d.Population, d.Facilities, d.Wards)
		}
	})
	wp.Submit(func() {
		if len(d.GreenSpaces) > 0 {
			results.GreenSpace = AnalyzeGreenSpace(d.NDVI, d.GreenSpaces, d.Wards)
		}
	})

	wp.StopWait()
	return results
}
