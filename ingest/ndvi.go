package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urbanpulse/resilience-api/raster"
	"github.com/urbanpulse/resilience-api/schema"
)

// MOD13 ships NDVI as scaled integers.
const ndviScale = 0.0001

// NDVIGranule is one vegetation index granule on its native sinusoidal
// tile grid, values still in the product's scaled-integer encoding.
type NDVIGranule struct {
	GranuleName string
	ScaledNDVI  [][]float64
}

type NDVIProvider interface {
	FetchNDVI(ctx context.Context, date time.Time, bounds schema.Bounds) (*NDVIGranule, error)
}

// NDVISource decodes vegetation index granules: scale factor, plausibility
// filter on the decoded [-1, 1] range, geolocation, region extraction.
type NDVISource struct {
	provider  NDVIProvider
	projector *raster.SinusoidalProjector
	region    schema.RegionConfig
}

func NewNDVISource(provider NDVIProvider, region schema.RegionConfig) *NDVISource {
	return &NDVISource{
		provider:  provider,
		projector: raster.NewSinusoidalProjector(region.DefaultTile),
		region:    region,
	}
}

func (s *NDVISource) Name() string { return SourceNDVI }

func (s *NDVISource) Produce(ctx context.Context, date time.Time) Result {
	granule, err := s.provider.FetchNDVI(ctx, date, s.region.Bounds)
	if errors.Is(err, ErrNoGranule) {
		return Empty(s.Name())
	}
	if err != nil {
		return Failed(s.Name(), fmt.Errorf("fetching NDVI granule: %w", err))
	}

	rows, cols := len(granule.ScaledNDVI), 0
	if rows > 0 {
		cols = len(granule.ScaledNDVI[0])
	}

	values := schema.NewGrid(rows, cols, 0)
	for i := range granule.ScaledNDVI {
		for j := range granule.ScaledNDVI[i] {
			values[i][j] = granule.ScaledNDVI[i][j] * ndviScale
		}
	}

	mask := raster.RangeFilter(values, -1, 1)
	if mask.Count() < s.region.MinValidPixels {
		log.WithField("granule", granule.GranuleName).
			Info("rejecting NDVI granule, insufficient plausible pixels")
		return Empty(s.Name())
	}
	values = raster.ApplyMask(values, mask)

	tile := s.projector.TileFromGranuleName(granule.GranuleName)
	lat, lon := s.projector.Coordinates(rows, cols, tile)

	r := &schema.GeoRaster{
		Source: s.Name(),
		Unit:   "ndvi",
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
