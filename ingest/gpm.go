package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urbanpulse/resilience-api/raster"
	"github.com/urbanpulse/resilience-api/schema"
)

// Daily accumulations above this are treated as retrieval artifacts.
const precipPlausibleHighMM = 1000.0

// PrecipGranule is one gridded precipitation granule: daily accumulation in
// mm/day on a regular lat/lon grid described by its axis vectors.
type PrecipGranule struct {
	Lats   []float64
	Lons   []float64
	Values [][]float64
}

type PrecipProvider interface {
	FetchPrecipitation(ctx context.Context, date time.Time) (*PrecipGranule, error)
}

// PrecipSource subsets global precipitation grids to the region. The product
// is already geolocated on a regular grid, so there is no tile projection
// step, only plausibility filtering and extraction.
type PrecipSource struct {
	provider PrecipProvider
	region   schema.RegionConfig
}

func NewPrecipSource(provider PrecipProvider, region schema.RegionConfig) *PrecipSource {
	return &PrecipSource{provider: provider, region: region}
}

func (s *PrecipSource) Name() string { return SourcePrecipitation }

func (s *PrecipSource) Produce(ctx context.Context, date time.Time) Result {
	granule, err := s.provider.FetchPrecipitation(ctx, date)
	if errors.Is(err, ErrNoGranule) {
		return Empty(s.Name())
	}
	if err != nil {
		return Failed(s.Name(), fmt.Errorf("fetching precipitation granule: %w", err))
	}

	rows, cols := len(granule.Values), 0
	if rows > 0 {
		cols = len(granule.Values[0])
	}
	if rows != len(granule.Lats) || cols != len(granule.Lons) {
		return Failed(s.Name(), fmt.Errorf("precipitation grid %dx%d does not match axes %dx%d",
			rows, cols, len(granule.Lats), len(granule.Lons)))
	}

	lat := schema.NewGrid(rows, cols, 0)
	lon := schema.NewGrid(rows, cols, 0)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			lat[i][j] = granule.Lats[i]
			lon[i][j] = granule.Lons[j]
		}
	}

	mask := raster.RangeFilter(granule.Values, -0.001, precipPlausibleHighMM)
	values := raster.ApplyMask(granule.Values, mask)

	r := &schema.GeoRaster{
		Source: s.Name(),
		Unit:   "mm_day",
		Values: values,
		Lat2D:  lat,
		Lon2D:  lon,
	}
	if err := r.Validate(); err != nil {
		return Failed(s.Name(), err)
	}

	extraction := raster.Extract(r, s.region.Bounds)
	if extraction.Coverage == 0 {
		return Empty(s.Name())
	}
	return Available(s.Name(), extraction.Raster, extraction.Coverage, ProvenanceObserved)
}
