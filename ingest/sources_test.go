package ingest

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanpulse/resilience-api/schema"
)

// Region inside sinusoidal tile h25v06 (roughly 20-30N).
var testRegion = schema.RegionConfig{
	Name:             "test-region",
	Bounds:           schema.Bounds{South: 24, North: 27, West: 76, East: 80},
	ResolutionMeters: 1000,
	DefaultTile:      "h25v06",
	MinValidPixels:   50,
}

type fakeLSTProvider struct {
	granule *LSTGranule
	err     error
}

func (f *fakeLSTProvider) FetchLST(context.Context, time.Time, schema.Bounds) (*LSTGranule, error) {
	return f.granule, f.err
}

func kelvinGrid(rows, cols int, value float64) [][]float64 {
	grid := make([][]float64, rows)
	for i := range grid {
		grid[i] = make([]float64, cols)
		for j := range grid[i] {
			grid[i][j] = value
		}
	}
	return grid
}

func qcGrid(rows, cols int, value int64) [][]int64 {
	grid := make([][]int64, rows)
	for i := range grid {
		grid[i] = make([]int64, cols)
		for j := range grid[i] {
			grid[i][j] = value
		}
	}
	return grid
}

func TestLSTSourceRelaxesQCTolerance(t *testing.T) {
	// Mandatory QA bits equal 2: rejected at strict and normal tolerance,
	// accepted at relaxed.
	granule := &LSTGranule{
		GranuleName: "MOD11A1.A2026074.h25v06.061.2026076031500.hdf",
		Kelvin:      kelvinGrid(10, 10, 300),
		QC:          qcGrid(10, 10, 2),
	}
	src := NewLSTSource(&fakeLSTProvider{granule: granule}, testRegion)

	result := src.Produce(context.Background(), time.Now())
	require.Equal(t, OutcomeAvailable, result.Outcome)
	assert.Equal(t, ProvenanceObserved, result.Provenance)
	assert.Equal(t, "deg_c", result.Raster.Unit)
	assert.InDelta(t, 300-273.15, result.Raster.MeanValue(), 1e-9)
	assert.Greater(t, result.Coverage, 0.0)
}

func TestLSTSourceRejectsErrorPixels(t *testing.T) {
	// Bit 5 set means a retrieval error; no tolerance accepts it.
	granule := &LSTGranule{
		GranuleName: "MOD11A1.A2026074.h25v06.061.2026076031500.hdf",
		Kelvin:      kelvinGrid(10, 10, 300),
		QC:          qcGrid(10, 10, 1<<5),
	}
	src := NewLSTSource(&fakeLSTProvider{granule: granule}, testRegion)

	result := src.Produce(context.Background(), time.Now())
	assert.Equal(t, OutcomeEmpty, result.Outcome)
}

func TestLSTSourceRangeFilterWithoutQC(t *testing.T) {
	kelvin := kelvinGrid(10, 10, 295)
	kelvin[0][0] = 150 // below plausible range
	kelvin[0][1] = math.NaN()
	granule := &LSTGranule{
		GranuleName: "MOD11A1.A2026074.h25v06.061.2026076031500.hdf",
		Kelvin:      kelvin,
	}
	src := NewLSTSource(&fakeLSTProvider{granule: granule}, testRegion)

	result := src.Produce(context.Background(), time.Now())
	require.Equal(t, OutcomeAvailable, result.Outcome)
	assert.InDelta(t, 295-273.15, result.Raster.MeanValue(), 1e-9)
}

func TestLSTSourceProviderOutcomes(t *testing.T) {
	empty := NewLSTSource(&fakeLSTProvider{err: ErrNoGranule}, testRegion)
	assert.Equal(t, OutcomeEmpty, empty.Produce(context.Background(), time.Now()).Outcome)

	failing := NewLSTSource(&fakeLSTProvider{err: errors.New("gateway timeout")}, testRegion)
	result := failing.Produce(context.Background(), time.Now())
	require.Equal(t, OutcomeFailed, result.Outcome)
	assert.Error(t, result.Err)
}

type fakeNDVIProvider struct {
	granule *NDVIGranule
	err     error
}

func (f *fakeNDVIProvider) FetchNDVI(context.Context, time.Time, schema.Bounds) (*NDVIGranule, error) {
	return f.granule, f.err
}

func TestNDVISourceDecodesScaledValues(t *testing.T) {
	granule := &NDVIGranule{
		GranuleName: "MOD13A2.A2026065.h25v06.061.2026080120000.hdf",
		ScaledNDVI:  kelvinGrid(10, 10, 5000),
	}
	src := NewNDVISource(&fakeNDVIProvider{granule: granule}, testRegion)

	result := src.Produce(context.Background(), time.Now())
	require.Equal(t, OutcomeAvailable, result.Outcome)
	assert.Equal(t, "ndvi", result.Raster.Unit)
	assert.InDelta(t, 0.5, result.Raster.MeanValue(), 1e-9)
}

func TestNDVISourceRejectsImplausibleGrid(t *testing.T) {
	// Fill values decode outside [-1, 1] and every pixel carries one.
	granule := &NDVIGranule{
		GranuleName: "MOD13A2.A2026065.h25v06.061.2026080120000.hdf",
		ScaledNDVI:  kelvinGrid(10, 10, 32767),
	}
	src := NewNDVISource(&fakeNDVIProvider{granule: granule}, testRegion)

	assert.Equal(t, OutcomeEmpty, src.Produce(context.Background(), time.Now()).Outcome)
}

type fakeSwathProvider struct {
	granule *SwathGranule
	err     error
	product string
}

func (f *fakeSwathProvider) FetchColumn(_ context.Context, product string, _ time.Time) (*SwathGranule, error) {
	f.product = product
	return f.granule, f.err
}

func inRegionSwath(column float64, n int) *SwathGranule {
	g := &SwathGranule{}
	for k := 0; k < n; k++ {
		g.Lats = append(g.Lats, 25.0+0.05*float64(k))
		g.Lons = append(g.Lons, 77.0+0.05*float64(k))
		g.Values = append(g.Values, column)
	}
	return g
}

func TestNO2SourceConvertsColumnDensity(t *testing.T) {
	// 5e-12 in column units maps to 100 µg/m³ under the nominal conversion.
	provider := &fakeSwathProvider{granule: inRegionSwath(5e-12, 8)}
	src := NewNO2Source(provider, testRegion, false)

	result := src.Produce(context.Background(), time.Now())
	require.Equal(t, OutcomeAvailable, result.Outcome)
	assert.Equal(t, "OMNO2", provider.product)
	assert.Equal(t, "ug_m3", result.Raster.Unit)
	assert.InDelta(t, 100.0, result.Raster.MeanValue(), 1e-6)
	assert.InDelta(t, 8.0/(25*25), result.Coverage, 1e-12)
}

func TestNO2SourceCapsConcentration(t *testing.T) {
	provider := &fakeSwathProvider{granule: inRegionSwath(5e-10, 4)}
	src := NewNO2Source(provider, testRegion, false)

	result := src.Produce(context.Background(), time.Now())
	require.Equal(t, OutcomeAvailable, result.Outcome)
	assert.InDelta(t, no2MicrogramsCap, result.Raster.MeanValue(), 1e-6)
}

func TestSO2SourceUsesOwnProduct(t *testing.T) {
	provider := &fakeSwathProvider{granule: inRegionSwath(3e-13, 4)}
	src := NewSO2Source(provider, testRegion, false)

	result := src.Produce(context.Background(), time.Now())
	require.Equal(t, OutcomeAvailable, result.Outcome)
	assert.Equal(t, "OMSO2", provider.product)
	assert.InDelta(t, 3e-13*so2ColumnToMicrograms, result.Raster.MeanValue(), 1e-9)
}

func offRegionSwath(column float64, n int) *SwathGranule {
	g := &SwathGranule{}
	for k := 0; k < n; k++ {
		g.Lats = append(g.Lats, 48.0+0.1*float64(k))
		g.Lons = append(g.Lons, 2.0+0.1*float64(k))
		g.Values = append(g.Values, column)
	}
	return g
}

func TestColumnSourceBackfillRequiresOptIn(t *testing.T) {
	provider := &fakeSwathProvider{granule: offRegionSwath(5e-12, 10)}
	src := NewNO2Source(provider, testRegion, false)

	assert.Equal(t, OutcomeEmpty, src.Produce(context.Background(), time.Now()).Outcome)
}

func TestColumnSourceSyntheticBackfill(t *testing.T) {
	provider := &fakeSwathProvider{granule: offRegionSwath(5e-12, 10)}
	src := NewNO2Source(provider, testRegion, true)

	result := src.Produce(context.Background(), time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	require.Equal(t, OutcomeAvailable, result.Outcome)
	assert.Equal(t, ProvenanceSyntheticBackfill, result.Provenance)
	assert.Equal(t, 0.0, result.Coverage)
	require.NoError(t, result.Raster.Validate())
	assert.Equal(t, 25, result.Raster.Rows())
	assert.Equal(t, 25, result.Raster.Cols())
	// Identical samples collapse the log-normal fit to a constant field.
	assert.InDelta(t, 100.0, result.Raster.MeanValue(), 1e-6)
}

type fakePrecipProvider struct {
	granule *PrecipGranule
	err     error
}

func (f *fakePrecipProvider) FetchPrecipitation(context.Context, time.Time) (*PrecipGranule, error) {
	return f.granule, f.err
}

func precipGranule(rows, cols int, value float64) *PrecipGranule {
	g := &PrecipGranule{Values: kelvinGrid(rows, cols, value)}
	for i := 0; i < rows; i++ {
		g.Lats = append(g.Lats, 24.0+3.0*float64(i)/float64(rows-1))
	}
	for j := 0; j < cols; j++ {
		g.Lons = append(g.Lons, 76.0+4.0*float64(j)/float64(cols-1))
	}
	return g
}

func TestPrecipSourceExtractsRegion(t *testing.T) {
	granule := precipGranule(12, 12, 12.5)
	granule.Values[0][0] = -9999 // sentinel, filtered out
	src := NewPrecipSource(&fakePrecipProvider{granule: granule}, testRegion)

	result := src.Produce(context.Background(), time.Now())
	require.Equal(t, OutcomeAvailable, result.Outcome)
	assert.Equal(t, "mm_day", result.Raster.Unit)
	assert.InDelta(t, 12.5, result.Raster.MeanValue(), 1e-9)
	assert.Greater(t, result.Coverage, 0.0)
	assert.Less(t, result.Coverage, 1.0)
}

func TestPrecipSourceRejectsMismatchedAxes(t *testing.T) {
	granule := precipGranule(12, 12, 5)
	granule.Lons = granule.Lons[:4]
	src := NewPrecipSource(&fakePrecipProvider{granule: granule}, testRegion)

	result := src.Produce(context.Background(), time.Now())
	require.Equal(t, OutcomeFailed, result.Outcome)
	assert.Error(t, result.Err)
}
