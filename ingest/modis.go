package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urbanpulse/resilience-api/raster"
	"github.com/urbanpulse/resilience-api/schema"
)

// ErrNoGranule is the provider's confirmed-absence signal for a date window.
var ErrNoGranule = errors.New("no granule available for date window")

// Physical plausibility envelope for land surface temperature in Kelvin,
// applied before unit conversion.
const (
	lstPlausibleLowK  = 200.0
	lstPlausibleHighK = 400.0
)

const kelvinOffset = 273.15

// LSTGranule is one land surface temperature granule as delivered by the
// archive: values in Kelvin on the product's native sinusoidal tile grid,
// with the per-pixel QC bitfield when the product ships one.
type LSTGranule struct {
	GranuleName string
	Kelvin      [][]float64
	QC          [][]int64
}

// LSTProvider retrieves land surface temperature granules. The network layer
// behind it is a collaborator; this package only depends on the data it
// yields. A confirmed-empty window returns ErrNoGranule, never a zero grid.
type LSTProvider interface {
	FetchLST(ctx context.Context, date time.Time, bounds schema.Bounds) (*LSTGranule, error)
}

// LSTSource turns raw temperature granules into region-ready Celsius
// rasters: geolocation from the tile id, QC filtering with the tolerance
// ladder, unit conversion, region extraction.
type LSTSource struct {
	provider  LSTProvider
	projector *raster.SinusoidalProjector
	region    schema.RegionConfig
}

func NewLSTSource(provider LSTProvider, region schema.RegionConfig) *LSTSource {
	return &LSTSource{
		provider:  provider,
		projector: raster.NewSinusoidalProjector(region.DefaultTile),
		region:    region,
	}
}

func (s *LSTSource) Name() string { return SourceLST }

func (s *LSTSource) Produce(ctx context.Context, date time.Time) Result {
	granule, err := s.provider.FetchLST(ctx, date, s.region.Bounds)
	if errors.Is(err, ErrNoGranule) {
		return Empty(s.Name())
	}
	if err != nil {
		return Failed(s.Name(), fmt.Errorf("fetching LST granule: %w", err))
	}

	mask, ok := s.acceptableMask(granule)
	if !ok {
		log.WithField("granule", granule.GranuleName).
			Info("rejecting LST granule, insufficient valid pixels after QC relaxation")
		return Empty(s.Name())
	}

	filtered := raster.ApplyMask(granule.Kelvin, mask)
	rows, cols := len(filtered), 0
	if rows > 0 {
		cols = len(filtered[0])
	}

	values := schema.NewGrid(rows, cols, 0)
	for i := range filtered {
		for j := range filtered[i] {
			values[i][j] = filtered[i][j] - kelvinOffset
		}
	}

	tile := s.projector.TileFromGranuleName(granule.GranuleName)
	lat, lon := s.projector.Coordinates(rows, cols, tile)

	r := &schema.GeoRaster{
		Source: s.Name(),
		Unit:   "deg_c",
		Values: values,
		Lat2D:  lat,
		Lon2D:  lon,
	}
	if err := r.Validate(); err != nil {
		return Failed(s.Name(), fmt.Errorf("granule %s: %w", granule.GranuleName, err))
	}

	extraction := raster.Extract(r, s.region.Bounds)
	if extraction.Coverage == 0 {
		return Empty(s.Name())
	}
	return Available(s.Name(), extraction.Raster, extraction.Coverage, ProvenanceObserved)
}

// acceptableMask walks the QC tolerance ladder and picks the first tolerance
// yielding enough valid pixels. Products without a QC layer fall back to the
// Kelvin plausibility envelope.
func (s *LSTSource) acceptableMask(granule *LSTGranule) (schema.QCMask, bool) {
	if len(granule.QC) == 0 {
		mask := raster.RangeFilter(granule.Kelvin, lstPlausibleLowK, lstPlausibleHighK)
		return mask, mask.Count() >= s.region.MinValidPixels
	}

	for _, tolerance := range []int{raster.ToleranceStrict, raster.ToleranceNormal, raster.ToleranceRelaxed} {
		mask := raster.DecodeQC(granule.QC, tolerance)
		valid := mask.Count()
		log.WithFields(map[string]interface{}{
			"granule":      granule.GranuleName,
			"tolerance":    tolerance,
			"valid_pixels": valid,
		}).Debug("QC ladder attempt")
		if valid >= s.region.MinValidPixels {
			return mask, true
		}
	}
	return nil, false
}
