package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Date windows tried per source, in days before the reference date. Satellite
// products lag realtime, so the ladder walks back until a usable granule
// turns up.
var dateBackoffDays = []int{0, 7, 14, 21, 28, 45, 60, 75, 90}

// Days subtracted from now before the first attempt, covering product
// processing delay at the archive.
const processingDelayDays = 2

// Orchestrator fans source production out concurrently with per-source
// failure isolation: one source failing or finding nothing never cancels its
// siblings.
type Orchestrator struct {
	registry *Registry
	clock    clockwork.Clock
	cache    *Cache
}

// NewOrchestrator builds an orchestrator. cache may be nil to disable
// caching.
func NewOrchestrator(registry *Registry, clock clockwork.Clock, cache *Cache) *Orchestrator {
	return &Orchestrator{registry: registry, clock: clock, cache: cache}
}

// attemptDates returns the ladder of observation dates to try, newest first.
func (o *Orchestrator) attemptDates() []time.Time {
	ref := o.clock.Now().UTC().AddDate(0, 0, -processingDelayDays)
	dates := make([]time.Time, 0, len(dateBackoffDays))
	for _, back := range dateBackoffDays {
		dates = append(dates, ref.AddDate(0, 0, -back))
	}
	return dates
}

// FetchAll produces every registered source concurrently and returns one
// result per source in registration order.
func (o *Orchestrator) FetchAll(ctx context.Context) []Result {
	sources := o.registry.All()
	results := make([]Result, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src RasterSource) {
			defer wg.Done()
			results[i] = o.fetchOne(ctx, src)
		}(i, src)
	}
	wg.Wait()

	for _, r := range results {
		entry := log.WithFields(logrus.Fields{
			"source":   r.Source,
			"outcome":  r.Outcome,
			"coverage": r.Coverage,
		})
		if r.Err != nil {
			entry = entry.WithError(r.Err)
		}
		entry.Info("source production finished")
	}
	return results
}

// fetchOne walks the date ladder for a single source: the first Available
// result wins, Empty moves to the next window, and a hard failure is
// remembered but does not stop older windows from being tried.
func (o *Orchestrator) fetchOne(ctx context.Context, src RasterSource) Result {
	var lastFailure *Result

	for _, date := range o.attemptDates() {
		if err := ctx.Err(); err != nil {
			return Failed(src.Name(), err)
		}

		if o.cache != nil {
			if raster, coverage, ok := o.cache.Get(src.Name(), date); ok {
				log.WithFields(logrus.Fields{
					"source": src.Name(),
					"date":   date.Format("2006-01-02"),
				}).Info("serving raster from cache")
				return Available(src.Name(), raster, coverage, ProvenanceObserved)
			}
		}

		result := src.Produce(ctx, date)
		switch result.Outcome {
		case OutcomeAvailable:
			if o.cache != nil && result.Provenance == ProvenanceObserved {
				if err := o.cache.Put(src.Name(), date, result.Raster, result.Coverage); err != nil {
					log.WithError(err).WithField("source", src.Name()).Warn("cache write failed")
				}
			}
			return result
		case OutcomeFailed:
			log.WithError(result.Err).WithFields(logrus.Fields{
				"source": src.Name(),
				"date":   date.Format("2006-01-02"),
			}).Warn("source attempt failed, trying older window")
			lastFailure = &result
		}
	}

	if lastFailure != nil {
		return *lastFailure
	}
	return Empty(src.Name())
}
