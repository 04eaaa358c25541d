package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/urbanpulse/resilience-api/analyzer"
	"github.com/urbanpulse/resilience-api/ingest"
	"github.com/urbanpulse/resilience-api/raster"
	"github.com/urbanpulse/resilience-api/recommend"
	"github.com/urbanpulse/resilience-api/schema"
	"github.com/urbanpulse/resilience-api/score"
	"github.com/urbanpulse/resilience-api/store"
)

var log = logrus.WithField("prefix", "pipeline")

// Vectors holds the region's vector layers, loaded once at startup and
// read-only afterwards.
type Vectors struct {
	Wards       []schema.AreaPolygon
	Facilities  []schema.FacilityPoint
	GreenSpaces []schema.GreenSpacePolygon
}

// Pipeline drives one full analysis run: fetch rasters, derive analysis
// grids, run the domain analyzers, score, generate recommendations, persist.
type Pipeline struct {
	orchestrator *ingest.Orchestrator
	store        store.ResilienceStore
	region       schema.RegionConfig
	clock        clockwork.Clock
	vectors      Vectors
}

func New(orchestrator *ingest.Orchestrator, st store.ResilienceStore, region schema.RegionConfig, clock clockwork.Clock, vectors Vectors) *Pipeline {
	return &Pipeline{
		orchestrator: orchestrator,
		store:        st,
		region:       region,
		clock:        clock,
		vectors:      vectors,
	}
}

// Run executes one analysis under the given id and persists the outcome.
// Missing sources degrade the run instead of failing it; only persistence
// errors abort.
func (p *Pipeline) Run(ctx context.Context, analysisID string) (*schema.AnalysisReport, error) {
	started := p.clock.Now().UTC()
	log.WithFields(logrus.Fields{
		"analysis_id": analysisID,
		"region":      p.region.Name,
	}).Info("starting analysis run")

	sourceResults := p.orchestrator.FetchAll(ctx)
	datasets := p.buildDatasets(sourceResults)

	analysis := analyzer.RunAll(datasets)
	composite := score.Composite(analysis)
	recommendations := recommend.GenerateAll(analysis, p.vectors.Wards)
	summaries := recommend.Summaries(recommendations)

	reports := make([]schema.SourceReport, 0, len(sourceResults))
	for _, r := range sourceResults {
		reports = append(reports, r.Report())
	}

	report := &schema.AnalysisReport{
		ID:              analysisID,
		Region:          p.region.Name,
		StartedAt:       started.Unix(),
		CompletedAt:     p.clock.Now().UTC().Unix(),
		Sources:         reports,
		Score:           composite,
		Hotspots:        analysis.Hotspots(),
		Recommendations: recommendations,
		AreaSummaries:   summaries,
	}

	if err := p.persist(report); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"analysis_id":     analysisID,
		"overall":         composite.Overall,
		"status":          composite.Status,
		"hotspots":        len(report.Hotspots),
		"recommendations": len(recommendations),
	}).Info("analysis run complete")
	return report, nil
}

func (p *Pipeline) persist(report *schema.AnalysisReport) error {
	if err := p.store.CreateReport(report); err != nil {
		return fmt.Errorf("persisting run report: %w", err)
	}
	if err := p.store.SaveHotspots(report.ID, report.Hotspots); err != nil {
		return fmt.Errorf("persisting hotspots: %w", err)
	}
	if err := p.store.SaveRecommendations(report.ID, report.Recommendations); err != nil {
		return fmt.Errorf("persisting recommendations: %w", err)
	}
	if err := p.store.SaveScore(report.ID, report.Region, report.CompletedAt, report.Score); err != nil {
		return fmt.Errorf("persisting composite score: %w", err)
	}
	return nil
}

// buildDatasets maps source results onto analyzer inputs and derives the
// composite grids (AQI from trace-gas rasters, flood risk from
// precipitation).
func (p *Pipeline) buildDatasets(results []ingest.Result) *analyzer.Datasets {
	bySource := make(map[string]*schema.GeoRaster)
	for _, r := range results {
		if r.Outcome == ingest.OutcomeAvailable {
			bySource[r.Source] = r.Raster
		}
	}

	precip := bySource[ingest.SourcePrecipitation]
	rows, cols := p.region.GridSize()

	return &analyzer.Datasets{
		AQI:           aqiRaster(bySource[ingest.SourceNO2], bySource[ingest.SourceSO2]),
		Temperature:   bySource[ingest.SourceLST],
		NDVI:          bySource[ingest.SourceNDVI],
		FloodRisk:     floodRiskRaster(precip),
		Precipitation: precip,
		Wards:         p.vectors.Wards,
		Facilities:    p.vectors.Facilities,
		GreenSpaces:   p.vectors.GreenSpaces,
		Population:    populationPoints(p.vectors.Wards, p.region.Bounds, rows, cols),
	}
}

// aqiRaster combines trace-gas concentration rasters into a per-cell AQI
// grid. Both gases contribute when their grids align; misaligned grids keep
// the denser signal only.
func aqiRaster(no2, so2 *schema.GeoRaster) *schema.GeoRaster {
	base := no2
	if base == nil {
		base = so2
	}
	if base == nil {
		return nil
	}

	aligned := no2 != nil && so2 != nil &&
		no2.Rows() == so2.Rows() && no2.Cols() == so2.Cols()
	if no2 != nil && so2 != nil && !aligned {
		log.WithFields(logrus.Fields{
			"no2": fmt.Sprintf("%dx%d", no2.Rows(), no2.Cols()),
			"so2": fmt.Sprintf("%dx%d", so2.Rows(), so2.Cols()),
		}).Warn("trace-gas grids misaligned, computing AQI from NO2 only")
	}

	rows, cols := base.Rows(), base.Cols()
	values := schema.NewGrid(rows, cols, math.NaN())
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			concentrations := map[string]float64{}
			if no2 != nil && !math.IsNaN(no2.Values[i][j]) {
				concentrations["no2"] = no2.Values[i][j]
			}
			if aligned && !math.IsNaN(so2.Values[i][j]) {
				concentrations["so2"] = so2.Values[i][j]
			} else if no2 == nil && !math.IsNaN(so2.Values[i][j]) {
				concentrations["so2"] = so2.Values[i][j]
			}
			if aqi, ok := raster.OverallAQI(concentrations); ok {
				values[i][j] = float64(aqi)
			}
		}
	}

	return &schema.GeoRaster{
		Source: "aqi",
		Unit:   "aqi",
		Values: values,
		Lat1D:  base.Lat1D,
		Lon1D:  base.Lon1D,
		Lat2D:  base.Lat2D,
		Lon2D:  base.Lon2D,
	}
}

// floodRiskRaster derives a normalized risk grid from daily precipitation.
// Soil moisture has no live source wired, so the risk index runs on
// precipitation alone.
func floodRiskRaster(precip *schema.GeoRaster) *schema.GeoRaster {
	if precip == nil {
		return nil
	}

	rows, cols := precip.Rows(), precip.Cols()
	values := schema.NewGrid(rows, cols, math.NaN())
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := precip.Values[i][j]; !math.IsNaN(v) {
				values[i][j] = raster.FloodRiskIndex(v, nil)
			}
		}
	}

	return &schema.GeoRaster{
		Source: "flood_risk",
		Unit:   "risk",
		Values: values,
		Lat1D:  precip.Lat1D,
		Lon1D:  precip.Lon1D,
		Lat2D:  precip.Lat2D,
		Lon2D:  precip.Lon2D,
	}
}

// populationPoints spreads each ward's population evenly over the region
// grid cells whose centers fall inside the ward.
func populationPoints(wards []schema.AreaPolygon, bounds schema.Bounds, rows, cols int) []schema.PopulationPoint {
	if len(wards) == 0 || rows < 1 || cols < 1 {
		return nil
	}

	type cell struct {
		lat, lon float64
		ward     int
	}

	cells := make([]cell, 0, rows*cols)
	counts := make(map[int]int)
	for i := 0; i < rows; i++ {
		lat := bounds.South + (bounds.North-bounds.South)*(float64(i)+0.5)/float64(rows)
		for j := 0; j < cols; j++ {
			lon := bounds.West + (bounds.East-bounds.West)*(float64(j)+0.5)/float64(cols)
			for w := range wards {
				if wards[w].Contains(lat, lon) {
					cells = append(cells, cell{lat: lat, lon: lon, ward: w})
					counts[w]++
					break
				}
			}
		}
	}

	points := make([]schema.PopulationPoint, 0, len(cells))
	for _, c := range cells {
		share := wards[c.ward].Population / int64(counts[c.ward])
		points = append(points, schema.PopulationPoint{
			Latitude:   c.lat,
			Longitude:  c.lon,
			Population: share,
		})
	}
	return points
}
