package schema

import "fmt"

const (
	RecommendationCollection = "recommendations"
)

var (
	ErrInvalidPriority     = fmt.Errorf("priority must be one of Critical, High, Medium, Low")
	ErrNegativeCost        = fmt.Errorf("estimated cost must not be negative")
	ErrNegativePopAffected = fmt.Errorf("affected population must not be negative")
)

// InterventionType classifies a recommendation.
type InterventionType string

const (
	InterventionAirQuality     InterventionType = "air_quality"
	InterventionHeatMitigation InterventionType = "heat_mitigation"
	InterventionFloodDefense   InterventionType = "flood_defense"
	InterventionHealthcare     InterventionType = "healthcare"
	InterventionGreenSpace     InterventionType = "green_space"
	InterventionInfrastructure InterventionType = "infrastructure"
)

// Coordinates is an optional (lat, lon) pair attached to a recommendation.
type Coordinates struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

// Recommendation is a single proposed intervention for a ward.
type Recommendation struct {
	AreaNumber         int                `json:"area_number" bson:"area_number"`
	AreaName           string             `json:"area_name" bson:"area_name"`
	Intervention       InterventionType   `json:"intervention" bson:"intervention"`
	Priority           Priority           `json:"priority" bson:"priority"`
	Title              string             `json:"title" bson:"title"`
	Description        string             `json:"description" bson:"description"`
	EstimatedCostUSD   float64            `json:"estimated_cost_usd" bson:"estimated_cost_usd"`
	EstimatedImpact    string             `json:"estimated_impact" bson:"estimated_impact"`
	Timeline           string             `json:"timeline" bson:"timeline"`
	AffectedPopulation int64              `json:"affected_population" bson:"affected_population"`
	Metrics            map[string]float64 `json:"metrics" bson:"metrics"`
	Coordinates        *Coordinates       `json:"coordinates,omitempty" bson:"coordinates,omitempty"`
}

func (r *Recommendation) Validate() error {
	if !r.Priority.Valid() {
		return ErrInvalidPriority
	}
	if r.EstimatedCostUSD < 0 {
		return ErrNegativeCost
	}
	if r.AffectedPopulation < 0 {
		return ErrNegativePopAffected
	}
	return nil
}

// AreaSummary aggregates the recommendations of one ward.
type AreaSummary struct {
	AreaNumber         int      `json:"area_number" bson:"area_number"`
	AreaName           string   `json:"area_name" bson:"area_name"`
	Total              int      `json:"total" bson:"total"`
	CriticalPriority   int      `json:"critical_priority" bson:"critical_priority"`
	HighPriority       int      `json:"high_priority" bson:"high_priority"`
	MediumPriority     int      `json:"medium_priority" bson:"medium_priority"`
	LowPriority        int      `json:"low_priority" bson:"low_priority"`
	TotalCostUSD       float64  `json:"total_cost_usd" bson:"total_cost_usd"`
	InterventionTypes  []string `json:"intervention_types" bson:"intervention_types"`
	AffectedPopulation int64    `json:"affected_population" bson:"affected_population"`
}
