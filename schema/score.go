package schema

const (
	ScoreCollection  = "composite_scores"
	ReportCollection = "analysis_reports"
)

// City status labels derived from the overall score.
const (
	StatusHighlyResilient     = "Highly Resilient"
	StatusModeratelyResilient = "Moderately Resilient"
	StatusDeveloping          = "Developing Resilience"
	StatusVulnerable          = "Vulnerable"
	StatusHighlyVulnerable    = "Highly Vulnerable"
)

// CompositeScore maps each domain to a 0-100 score plus the overall mean and
// the derived status label. Every score is clamped to [0, 100].
type CompositeScore struct {
	Domains map[string]float64 `json:"domains" bson:"domains"`
	Overall float64            `json:"overall" bson:"overall"`
	Status  string             `json:"status" bson:"status"`
}

// Source availability outcomes reported per domain (spec: no silent
// substitution of synthetic data).
const (
	SourceUsed          = "used"
	SourceOmittedEmpty  = "omitted_no_coverage"
	SourceOmittedFailed = "omitted_failed"
)

// SourceReport records what happened to one ingestion source during a run.
type SourceReport struct {
	Source     string  `json:"source" bson:"source"`
	Outcome    string  `json:"outcome" bson:"outcome"`
	Coverage   float64 `json:"coverage" bson:"coverage"`
	Provenance string  `json:"provenance,omitempty" bson:"provenance,omitempty"`
	Error      string  `json:"error,omitempty" bson:"error,omitempty"`
}

// AnalysisReport is the persisted outcome of one full analysis run.
type AnalysisReport struct {
	ID              string           `json:"id" bson:"_id"`
	Region          string           `json:"region" bson:"region"`
	StartedAt       int64            `json:"started_at" bson:"started_at"`
	CompletedAt     int64            `json:"completed_at" bson:"completed_at"`
	Sources         []SourceReport   `json:"sources" bson:"sources"`
	Score           CompositeScore   `json:"score" bson:"score"`
	Hotspots        []Hotspot        `json:"-" bson:"-"`
	Recommendations []Recommendation `json:"-" bson:"-"`
	AreaSummaries   []AreaSummary    `json:"area_summaries" bson:"area_summaries"`
}
