package ingest

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanpulse/resilience-api/schema"
)

// scriptedSource returns Empty until emptyBefore attempts have happened,
// then the terminal result.
type scriptedSource struct {
	name        string
	emptyBefore int
	terminal    func(string) Result

	mu    sync.Mutex
	dates []time.Time
}

func (s *scriptedSource) Name() string { return s.name }

func (s *scriptedSource) Produce(_ context.Context, date time.Time) Result {
	s.mu.Lock()
	s.dates = append(s.dates, date)
	attempt := len(s.dates)
	s.mu.Unlock()

	if attempt <= s.emptyBefore {
		return Empty(s.name)
	}
	return s.terminal(s.name)
}

func availableGrid(source string) Result {
	r := &schema.GeoRaster{
		Source: source,
		Unit:   "deg_c",
		Values: [][]float64{{30, 31}, {32, 33}},
		Lat1D:  []float64{19.0, 19.1},
		Lon1D:  []float64{72.8, 72.9},
	}
	return Available(source, r, 1.0, ProvenanceObserved)
}

func TestOrchestratorWalksDateLadder(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))
	src := &scriptedSource{name: "scripted", emptyBefore: 3, terminal: availableGrid}

	registry := NewRegistry()
	require.NoError(t, registry.Register(src))

	results := NewOrchestrator(registry, clock, nil).FetchAll(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, OutcomeAvailable, results[0].Outcome)
	assert.Equal(t, 1.0, results[0].Coverage)

	// Reference date is two days behind the clock; the fourth attempt is 21
	// days further back.
	require.Len(t, src.dates, 4)
	assert.Equal(t, time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC), src.dates[0])
	assert.Equal(t, time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC), src.dates[3])
}

func TestOrchestratorExhaustsLadderAsEmpty(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	src := &scriptedSource{name: "never", emptyBefore: len(dateBackoffDays) + 1, terminal: availableGrid}

	registry := NewRegistry()
	require.NoError(t, registry.Register(src))

	results := NewOrchestrator(registry, clock, nil).FetchAll(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, OutcomeEmpty, results[0].Outcome)
	assert.Len(t, src.dates, len(dateBackoffDays))
}

func TestOrchestratorIsolatesFailingSource(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	boom := errors.New("archive unreachable")
	failing := &scriptedSource{name: "failing", terminal: func(name string) Result {
		return Failed(name, boom)
	}}
	healthy := &scriptedSource{name: "healthy", terminal: availableGrid}

	registry := NewRegistry()
	require.NoError(t, registry.Register(failing))
	require.NoError(t, registry.Register(healthy))

	results := NewOrchestrator(registry, clock, nil).FetchAll(context.Background())
	require.Len(t, results, 2)

	assert.Equal(t, OutcomeFailed, results[0].Outcome)
	assert.ErrorIs(t, results[0].Err, boom)
	// A hard failure still lets older windows be tried before giving up.
	assert.Len(t, failing.dates, len(dateBackoffDays))

	assert.Equal(t, OutcomeAvailable, results[1].Outcome)
	assert.Equal(t, "healthy", results[1].Source)
}

func TestOrchestratorServesFromCache(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)

	firstAttempt := time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC)
	cached := availableGrid("cached")
	require.NoError(t, cache.Put("cached", firstAttempt, cached.Raster, 0.8))

	src := &scriptedSource{name: "cached", terminal: availableGrid}
	registry := NewRegistry()
	require.NoError(t, registry.Register(src))

	results := NewOrchestrator(registry, clock, cache).FetchAll(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, OutcomeAvailable, results[0].Outcome)
	assert.Equal(t, 0.8, results[0].Coverage)
	assert.Empty(t, src.dates, "cache hit must not reach the source")
}

func TestOrchestratorCancelledContext(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	src := &scriptedSource{name: "slow", terminal: availableGrid}
	registry := NewRegistry()
	require.NoError(t, registry.Register(src))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewOrchestrator(registry, clock, nil).FetchAll(ctx)
	require.Len(t, results, 1)
	assert.Equal(t, OutcomeFailed, results[0].Outcome)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
	assert.Empty(t, src.dates)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	registry := NewRegistry()
	src := &scriptedSource{name: "dup", terminal: availableGrid}
	require.NoError(t, registry.Register(src))

	err := registry.Register(&scriptedSource{name: "dup", terminal: availableGrid})
	assert.ErrorIs(t, err, ErrDuplicateSource)
}

func TestCacheRoundTrip(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	original := availableGrid(SourceLST)
	require.NoError(t, cache.Put(SourceLST, date, original.Raster, 0.75))

	got, coverage, ok := cache.Get(SourceLST, date)
	require.True(t, ok)
	assert.Equal(t, 0.75, coverage)
	assert.Equal(t, original.Raster.Values, got.Values)

	_, _, ok = cache.Get(SourceLST, date.AddDate(0, 0, 1))
	assert.False(t, ok)
}

func TestCacheRoundTripMaskedCells(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	masked := availableGrid(SourceLST).Raster
	masked.Values[0][1] = math.NaN()
	masked.Values[1][0] = math.NaN()

	require.NoError(t, cache.Put(SourceLST, date, masked, 0.5))

	got, coverage, ok := cache.Get(SourceLST, date)
	require.True(t, ok)
	assert.Equal(t, 0.5, coverage)
	assert.Equal(t, 30.0, got.Values[0][0])
	assert.Equal(t, 33.0, got.Values[1][1])
	assert.True(t, math.IsNaN(got.Values[0][1]))
	assert.True(t, math.IsNaN(got.Values[1][0]))
}

func TestResultReportMapping(t *testing.T) {
	used := availableGrid(SourceLST).Report()
	assert.Equal(t, schema.SourceUsed, used.Outcome)
	assert.Equal(t, ProvenanceObserved, used.Provenance)

	empty := Empty(SourceNO2).Report()
	assert.Equal(t, schema.SourceOmittedEmpty, empty.Outcome)

	failed := Failed(SourceSO2, errors.New("timeout")).Report()
	assert.Equal(t, schema.SourceOmittedFailed, failed.Outcome)
	assert.Equal(t, "timeout", failed.Error)
}
