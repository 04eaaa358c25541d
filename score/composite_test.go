package score

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/urbanpulse/resilience-api/analyzer"
	"github.com/urbanpulse/resilience-api/schema"
)

func TestAirQualityPiecewise(t *testing.T) {
	assert.Equal(t, 100.0, AirQuality(30))
	assert.Equal(t, 100.0, AirQuality(50))
	assert.Equal(t, 75.0, AirQuality(75))
	assert.Equal(t, 50.0, AirQuality(100))
	assert.InDelta(t, 35.0, AirQuality(150), 1e-9)
	assert.InDelta(t, 20.0, AirQuality(200), 1e-9)
	assert.InDelta(t, 10.0, AirQuality(250), 1e-9)
	assert.InDelta(t, 0.0, AirQuality(300), 1e-9)
	assert.Equal(t, 0.0, AirQuality(450))
}

func TestHeatScore(t *testing.T) {
	assert.Equal(t, 100.0, Heat(0))
	assert.InDelta(t, 60.0, Heat(500), 1e-9)
	assert.InDelta(t, 20.0, Heat(1000), 1e-9)
	// Saturates past the normalization cap.
	assert.InDelta(t, 20.0, Heat(5000), 1e-9)
}

func TestFloodScore(t *testing.T) {
	assert.Equal(t, 100.0, Flood(0, 0))
	assert.InDelta(t, 60.0, Flood(1, 2), 1e-9)
	assert.InDelta(t, 20.0, Flood(10, 10), 1e-9)
	assert.InDelta(t, 70.0, FloodFromAverageRisk(0.3), 1e-9)
}

func TestHealthcareScore(t *testing.T) {
	assert.Equal(t, 100.0, Healthcare(0, 0))
	assert.InDelta(t, 50.0, Healthcare(1, 2), 1e-9)
	assert.InDelta(t, 0.0, Healthcare(5, 5), 1e-9)
	assert.InDelta(t, 80.0, HealthcareFromCapacity(0.8), 1e-9)
	assert.Equal(t, 100.0, HealthcareFromCapacity(3.0))
}

func TestStatusBands(t *testing.T) {
	assert.Equal(t, schema.StatusHighlyResilient, Status(80))
	assert.Equal(t, schema.StatusModeratelyResilient, Status(65))
	assert.Equal(t, schema.StatusDeveloping, Status(50))
	assert.Equal(t, schema.StatusVulnerable, Status(35))
	assert.Equal(t, schema.StatusHighlyVulnerable, Status(34.9))
}

func TestCompositeAllOmitted(t *testing.T) {
	c := Composite(&analyzer.Results{})
	assert.Equal(t, NeutralScore, c.Overall)
	assert.Equal(t, schema.StatusDeveloping, c.Status)
	for _, domain := range []string{
		schema.DomainAirQuality, schema.DomainHeat, schema.DomainFlood,
		schema.DomainHealthcare, schema.DomainGreenSpace,
	} {
		assert.Equal(t, NeutralScore, c.Domains[domain])
	}
}

func TestCompositeMixedDomains(t *testing.T) {
	results := &analyzer.Results{
		AirQuality: &analyzer.AirQualityResult{
			Wards: []analyzer.WardAirQuality{
				{MeanAQI: 100}, {MeanAQI: 200},
			},
		},
		Heat: &analyzer.HeatResult{HeatIslandCount: 250},
	}

	c := Composite(results)
	// Mean ward AQI 150 -> 35.
	assert.InDelta(t, 35.0, c.Domains[schema.DomainAirQuality], 1e-9)
	// 250 heat islands -> 80.
	assert.InDelta(t, 80.0, c.Domains[schema.DomainHeat], 1e-9)
	// Flood, healthcare, green space omitted -> neutral.
	assert.Equal(t, NeutralScore, c.Domains[schema.DomainFlood])
	// Overall mean of {35, 80, 50, 50, 50} = 53.
	assert.InDelta(t, 53.0, c.Overall, 1e-9)
	assert.Equal(t, schema.StatusDeveloping, c.Status)
}

func TestCompositeHealthcareCapacityFallback(t *testing.T) {
	results := &analyzer.Results{
		Healthcare: &analyzer.HealthcareResult{
			Wards: []analyzer.WardHealthcare{
				{FacilitiesPer1000: 0.2}, {FacilitiesPer1000: 0.6},
			},
		},
	}
	c := Composite(results)
	assert.InDelta(t, 40.0, c.Domains[schema.DomainHealthcare], 1e-9)
}
