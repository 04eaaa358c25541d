package ingest

import (
	"github.com/urbanpulse/resilience-api/schema"
)

// Outcome of one source's production attempt.
type Outcome string

const (
	// OutcomeAvailable means a usable raster was produced.
	OutcomeAvailable Outcome = "available"
	// OutcomeEmpty means the source confirmed it has no data meeting the
	// minimum quality requirements, which is not an error.
	OutcomeEmpty Outcome = "empty"
	// OutcomeFailed means the source hit a hard error.
	OutcomeFailed Outcome = "failed"
)

// Data provenance labels. Anything other than observed must be opted into
// explicitly and is surfaced in the run report.
const (
	ProvenanceObserved          = "observed"
	ProvenanceSyntheticBackfill = "synthetic_lognormal_backfill"
)

// Result is the explicit outcome of one source production, replacing
// soft "no data means empty dataset" conventions so callers can tell
// confirmed absence from failure.
type Result struct {
	Source     string
	Outcome    Outcome
	Raster     *schema.GeoRaster
	Coverage   float64
	Provenance string
	Err        error
}

// Available wraps a usable raster.
func Available(source string, r *schema.GeoRaster, coverage float64, provenance string) Result {
	return Result{
		Source:     source,
		Outcome:    OutcomeAvailable,
		Raster:     r,
		Coverage:   coverage,
		Provenance: provenance,
	}
}

// Empty records a confirmed no-data outcome.
func Empty(source string) Result {
	return Result{Source: source, Outcome: OutcomeEmpty}
}

// Failed records a hard error.
func Failed(source string, err error) Result {
	return Result{Source: source, Outcome: OutcomeFailed, Err: err}
}

// Report converts the result into its run-report entry.
func (r Result) Report() schema.SourceReport {
	report := schema.SourceReport{
		Source:     r.Source,
		Coverage:   r.Coverage,
		Provenance: r.Provenance,
	}
	switch r.Outcome {
	case OutcomeAvailable:
		report.Outcome = schema.SourceUsed
	case OutcomeEmpty:
		report.Outcome = schema.SourceOmittedEmpty
	default:
		report.Outcome = schema.SourceOmittedFailed
		if r.Err != nil {
			report.Error = r.Err.Error()
		}
	}
	return report
}
