package score

// NeutralScore is used for a domain whose source was omitted; the report
// carries the omission, the score stays neutral.
const NeutralScore = 50.0

// AirQuality maps the mean ward AQI onto a 0-100 resilience score, calibrated
// for Indian cities where AQI 100-300 is common.
func AirQuality(meanAQI float64) float64 {
	var s float64
	switch {
	case meanAQI <= 50:
		s = 100
	case meanAQI <= 100:
		s = 100 - (meanAQI - 50)
	case meanAQI <= 200:
		s = 50 - (meanAQI-100)*0.3
	case meanAQI <= 300:
		s = 20 - (meanAQI-200)*0.2
	default:
		s = 0
	}
	return clamp(s)
}

// Heat scores down from 100 as the heat island count approaches 1000.
func Heat(heatIslandCount int) float64 {
	coverage := float64(heatIslandCount) / 1000
	if coverage > 1 {
		coverage = 1
	}
	return clamp(100 - coverage*80)
}

// Flood scores down with the share of high-risk zones among reported zones.
func Flood(highRiskZones, totalZones int) float64 {
	if totalZones == 0 {
		return 100
	}
	ratio := float64(highRiskZones) / float64(totalZones)
	return clamp(100 - ratio*80)
}

// FloodFromAverageRisk is the fallback when no zone inventory exists, only a
// ward-average risk.
func FloodFromAverageRisk(avgRisk float64) float64 {
	return clamp(100 - avgRisk*100)
}

// Healthcare scores down with the share of critical gaps among access gaps.
func Healthcare(criticalGaps, totalGaps int) float64 {
	if totalGaps == 0 {
		return 100
	}
	ratio := float64(criticalGaps) / float64(totalGaps)
	return clamp(100 - ratio*100)
}

// HealthcareFromCapacity is the fallback when no gap inventory exists, only
// ward facility density.
func HealthcareFromCapacity(facilitiesPer1000 float64) float64 {
	return clamp(facilitiesPer1000 * 100)
}

// Green passes the mean combined green score through, clamped.
func Green(meanCombinedScore float64) float64 {
	return clamp(meanCombinedScore)
}

func clamp(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
