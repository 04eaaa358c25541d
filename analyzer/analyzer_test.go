package analyzer

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanpulse/resilience-api/schema"
)

func squareWard(number int, name string, south, north, west, east float64, population int64) schema.AreaPolygon {
	return schema.AreaPolygon{
		Number: number,
		Name:   name,
		Boundary: orb.Polygon{orb.Ring{
			{west, south}, {east, south}, {east, north}, {west, north}, {west, south},
		}},
		Population: population,
	}
}

func gridRaster(values [][]float64, south, north, west, east float64) *schema.GeoRaster {
	rows, cols := len(values), len(values[0])
	lat := make([]float64, rows)
	lon := make([]float64, cols)
	for i := range lat {
		lat[i] = north
		if rows > 1 {
			lat[i] = north - (north-south)*float64(i)/float64(rows-1)
		}
	}
	for j := range lon {
		lon[j] = west
		if cols > 1 {
			lon[j] = west + (east-west)*float64(j)/float64(cols-1)
		}
	}
	return &schema.GeoRaster{Source: "test", Values: values, Lat1D: lat, Lon1D: lon}
}

func TestAnalyzeAirQualityHotspotsAndWards(t *testing.T) {
	aqi := gridRaster([][]float64{
		{40, 160, 210},
		{90, 310, 120},
		{60, 70, 80},
	}, 19.0, 19.2, 72.8, 73.0)
	ward := squareWard(1, "Test Ward", 18.9, 19.3, 72.7, 73.1, 500000)

	result := AnalyzeAirQuality(aqi, []schema.AreaPolygon{ward})
	require.NotNil(t, result)

	// 160 Medium, 210 High, 310 Critical.
	require.Len(t, result.Hotspots, 3)
	priorities := map[schema.Priority]int{}
	for _, h := range result.Hotspots {
		priorities[h.Priority]++
		assert.Equal(t, schema.DomainAirQuality, h.Domain)
	}
	assert.Equal(t, 1, priorities[schema.PriorityCritical])
	assert.Equal(t, 1, priorities[schema.PriorityHigh])
	assert.Equal(t, 1, priorities[schema.PriorityMedium])

	require.Len(t, result.Wards, 1)
	w := result.Wards[0]
	assert.InDelta(t, 126.67, w.MeanAQI, 0.01)
	assert.Equal(t, 310.0, w.MaxAQI)
	// Mean over 100 marks the whole ward population as affected.
	assert.Equal(t, int64(500000), w.AffectedPopulation)
}

func TestAnalyzeAirQualityCleanWard(t *testing.T) {
	aqi := gridRaster([][]float64{{30, 40}, {50, 60}}, 19.0, 19.1, 72.8, 72.9)
	ward := squareWard(1, "Clean Ward", 18.9, 19.2, 72.7, 73.0, 100000)

	result := AnalyzeAirQuality(aqi, []schema.AreaPolygon{ward})
	assert.Empty(t, result.Hotspots)
	require.Len(t, result.Wards, 1)
	assert.Equal(t, int64(0), result.Wards[0].AffectedPopulation)
}

func TestAnalyzeHeatIslandThreshold(t *testing.T) {
	// 8 cells at 30 and one at 36: mean 30.67, delta 5.33 -> Extreme.
	temp := gridRaster([][]float64{
		{30, 30, 30},
		{30, 36, 30},
		{30, 30, 30},
	}, 19.0, 19.2, 72.8, 73.0)

	result := AnalyzeHeat(temp, nil, nil)
	require.Len(t, result.Hotspots, 1)
	assert.Equal(t, IntensityExtreme, result.Hotspots[0].Category)
	assert.Equal(t, schema.PriorityCritical, result.Hotspots[0].Priority)
	assert.Equal(t, 1, result.HeatIslandCount)
	assert.InDelta(t, 30.67, result.MeanTemperature, 0.01)
}

func TestAnalyzeHeatVegetationVeto(t *testing.T) {
	temp := gridRaster([][]float64{
		{30, 30, 30},
		{30, 36, 30},
		{30, 30, 30},
	}, 19.0, 19.2, 72.8, 73.0)
	// Dense vegetation everywhere rules the hot pixel out.
	ndvi := gridRaster([][]float64{
		{0.7, 0.7, 0.7},
		{0.7, 0.7, 0.7},
		{0.7, 0.7, 0.7},
	}, 19.0, 19.2, 72.8, 73.0)

	result := AnalyzeHeat(temp, ndvi, nil)
	assert.Empty(t, result.Hotspots)
	assert.Equal(t, 0, result.HeatIslandCount)
}

func TestAnalyzeFloodElevationAdjustment(t *testing.T) {
	risk := gridRaster([][]float64{{0.2, 0.6}}, 19.0, 19.0, 72.8, 72.9)
	elevation := [][]float64{{0, 100}}
	ward := squareWard(1, "Flood Ward", 18.9, 19.1, 72.7, 73.0, 200000)

	result := AnalyzeFlood(risk, nil, elevation, []schema.AreaPolygon{ward})

	// Cell one: 0.2 + 0.3 at sea level = 0.5 High. Cell two: high ground
	// adds nothing, 0.6 stays High.
	require.Len(t, result.Zones, 2)
	assert.InDelta(t, 0.5, result.Zones[0].Risk, 1e-9)
	assert.Equal(t, schema.PriorityHigh, result.Zones[0].Priority)
	assert.InDelta(t, 0.6, result.Zones[1].Risk, 1e-9)
	assert.Equal(t, 2, result.HighRiskZones)

	require.Len(t, result.Wards, 1)
	w := result.Wards[0]
	assert.Equal(t, 2, w.ZoneCount)
	assert.Equal(t, 2, w.HighRiskZones)
	assert.InDelta(t, 0.55, w.AvgRisk, 1e-9)
	assert.Equal(t, 200.0, w.DrainageM3PerHr)
	assert.Equal(t, int64(110000), w.PopulationAtRisk)
}

func TestAnalyzeFloodWithoutElevation(t *testing.T) {
	risk := gridRaster([][]float64{{0.2, 0.8}}, 19.0, 19.0, 72.8, 72.9)

	result := AnalyzeFlood(risk, nil, nil, nil)
	// Base risk stands as-is: 0.2 below threshold, 0.8 Critical.
	require.Len(t, result.Zones, 1)
	assert.InDelta(t, 0.8, result.Zones[0].Risk, 1e-9)
	assert.Equal(t, schema.PriorityCritical, result.Zones[0].Priority)
}

func TestAnalyzeHealthcareGaps(t *testing.T) {
	facilities := []schema.FacilityPoint{
		{Name: "Hospital A", Amenity: schema.FacilityHospital, Latitude: 19.00, Longitude: 72.80, CapacityBeds: 500},
	}
	population := []schema.PopulationPoint{
		// Adjacent to the hospital, served.
		{Latitude: 19.005, Longitude: 72.80, Population: 5000},
		// About 11 km north, a critical gap.
		{Latitude: 19.10, Longitude: 72.80, Population: 8000},
		// Below the population floor, skipped.
		{Latitude: 19.20, Longitude: 72.80, Population: 50},
	}
	ward := squareWard(1, "Health Ward", 18.9, 19.3, 72.7, 73.0, 300000)

	result := AnalyzeHealthcare(population, facilities, []schema.AreaPolygon{ward})
	require.Len(t, result.Gaps, 1)
	gap := result.Gaps[0]
	assert.InDelta(t, 11.07, gap.DistanceKM, 0.1)
	assert.Equal(t, 1.0, gap.Severity)
	assert.Equal(t, schema.PriorityCritical, gap.Priority)
	assert.False(t, result.Approximate)

	require.Len(t, result.Wards, 1)
	w := result.Wards[0]
	assert.Equal(t, 1, w.Hospitals)
	assert.Equal(t, 500, w.TotalBeds)
	assert.Equal(t, AdequacyInsufficient, w.Adequacy)
}

func TestAnalyzeGreenSpaceDeficit(t *testing.T) {
	wards := []schema.AreaPolygon{
		squareWard(1, "Green Ward", 19.0, 19.1, 72.8, 72.9, 10000),
		squareWard(2, "Bare Ward", 19.1, 19.2, 72.8, 72.9, 10000),
	}
	greenSpaces := []schema.GreenSpacePolygon{
		{
			Name:    "Central Park",
			Leisure: schema.GreenSpacePark,
			Boundary: orb.Polygon{orb.Ring{
				{72.84, 19.04}, {72.86, 19.04}, {72.86, 19.06}, {72.84, 19.06}, {72.84, 19.04},
			}},
			AreaSqm: 90000,
		},
	}

	result := AnalyzeGreenSpace(nil, greenSpaces, wards)
	require.Len(t, result.Wards, 2)

	// Ward one hits the target exactly: 90000 m2 / 10000 people = 9 per
	// person, combined score 50.
	green := result.Wards[0]
	assert.InDelta(t, 9.0, green.PerPersonSqm, 1e-9)
	assert.InDelta(t, 50.0, green.CombinedScore, 1e-9)
	assert.Equal(t, schema.PriorityMedium, green.Priority)
	assert.Equal(t, 0.0, green.DeficitPerPersonSqm)

	// Ward two has nothing.
	bare := result.Wards[1]
	assert.Equal(t, 0.0, bare.PerPersonSqm)
	assert.Equal(t, schema.PriorityCritical, bare.Priority)
	assert.InDelta(t, 90000.0, bare.RecommendedNewGreenSqm, 1e-6)
}

func TestRunAllIsolation(t *testing.T) {
	temp := gridRaster([][]float64{
		{30, 30},
		{30, 30},
	}, 19.0, 19.1, 72.8, 72.9)

	// Only temperature present: every other domain stays nil.
	results := RunAll(&Datasets{Temperature: temp})
	assert.NotNil(t, results.Heat)
	assert.Nil(t, results.AirQuality)
	assert.Nil(t, results.Flood)
	assert.Nil(t, results.Healthcare)
	assert.Nil(t, results.GreenSpace)
	assert.Empty(t, results.Hotspots())
}
