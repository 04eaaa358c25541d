package schema

const (
	HotspotCollection = "hotspots"
)

// Priority is one of exactly four ranked tiers.
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// Rank returns the sort rank of the tier, Critical first.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

func (p Priority) Valid() bool {
	return p.Rank() < 4
}

// Domain names produced by the analyzers.
const (
	DomainAirQuality = "air_quality"
	DomainHeat       = "heat"
	DomainFlood      = "flood"
	DomainHealthcare = "healthcare"
	DomainGreenSpace = "green_space"
)

// Hotspot is a point where a domain metric exceeds its threshold. Created
// fresh each analysis run; persistence is the store's concern.
type Hotspot struct {
	Domain    string   `json:"domain" bson:"domain"`
	Latitude  float64  `json:"latitude" bson:"latitude"`
	Longitude float64  `json:"longitude" bson:"longitude"`
	Severity  float64  `json:"severity" bson:"severity"`
	Category  string   `json:"category" bson:"category"`
	Priority  Priority `json:"priority" bson:"priority"`
	// Raw measurement backing the severity, e.g. AQI, temperature delta in
	// degrees C, or flood risk score.
	Measurement float64 `json:"measurement" bson:"measurement"`
}
