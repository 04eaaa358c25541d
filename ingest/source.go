package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "ingest")

// Well-known source names.
const (
	SourceLST           = "modis_lst"
	SourceNDVI          = "modis_ndvi"
	SourceNO2           = "omi_no2"
	SourceSO2           = "omi_so2"
	SourcePrecipitation = "gpm_precipitation"
)

var ErrDuplicateSource = fmt.Errorf("source already registered")

// RasterSource produces a region-ready raster for one observation date.
// Implementations report an Empty outcome when they confirm no usable data
// for that date; the orchestrator owns the date-window backoff ladder.
type RasterSource interface {
	Name() string
	Produce(ctx context.Context, date time.Time) Result
}

// Registry maps source names to implementations, replacing source-name
// string branching through the pipeline. Registration order is preserved so
// runs are deterministic.
type Registry struct {
	sources map[string]RasterSource
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]RasterSource)}
}

func (r *Registry) Register(s RasterSource) error {
	if _, exists := r.sources[s.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSource, s.Name())
	}
	r.sources[s.Name()] = s
	r.order = append(r.order, s.Name())
	return nil
}

func (r *Registry) Get(name string) (RasterSource, bool) {
	s, ok := r.sources[name]
	return s, ok
}

// All returns the registered sources in registration order.
func (r *Registry) All() []RasterSource {
	out := make([]RasterSource, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.sources[name])
	}
	return out
}
