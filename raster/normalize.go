package raster

import "math"

// Heat stress categories from land surface temperature in Celsius.
const (
	HeatStressLow      = "Low"
	HeatStressModerate = "Moderate"
	HeatStressHigh     = "High"
	HeatStressExtreme  = "Extreme"
)

// AQI categories per the Indian national index bands.
const (
	AQIGood     = "Good"
	AQIModerate = "Moderate"
	AQIPoor     = "Poor"
	AQIVeryPoor = "Very Poor"
	AQISevere   = "Severe"
)

// Land cover classes derived from NDVI.
const (
	LandCoverWater    = "Water"
	LandCoverBuiltUp  = "Built-up"
	LandCoverSparse   = "Sparse Vegetation"
	LandCoverModerate = "Moderate Vegetation"
	LandCoverDense    = "Dense Vegetation"
)

// Precipitation intensity categories in mm/day.
const (
	PrecipLight     = "Light"
	PrecipModerate  = "Moderate"
	PrecipHeavy     = "Heavy"
	PrecipVeryHeavy = "Very Heavy"
)

// Flood risk categories on the 0-1 adjusted risk index.
const (
	FloodRiskLow      = "Low"
	FloodRiskMedium   = "Medium"
	FloodRiskHigh     = "High"
	FloodRiskCritical = "Critical"
)

// aqiBreakpoint maps a concentration interval onto an AQI interval for
// piecewise-linear interpolation.
type aqiBreakpoint struct {
	cLow, cHigh     float64
	aqiLow, aqiHigh float64
}

// Indian CPCB breakpoint tables. Concentrations are ug/m3.
var aqiBreakpoints = map[string][]aqiBreakpoint{
	"pm25": {
		{0, 30, 0, 50},
		{30, 60, 51, 100},
		{60, 90, 101, 200},
		{90, 120, 201, 300},
		{120, 250, 301, 400},
	},
	"pm10": {
		{0, 50, 0, 50},
		{50, 100, 51, 100},
		{100, 250, 101, 200},
		{250, 350, 201, 300},
		{350, 430, 301, 400},
	},
	"no2": {
		{0, 40, 0, 50},
		{40, 80, 51, 100},
		{80, 180, 101, 200},
		{180, 280, 201, 300},
		{280, 400, 301, 400},
	},
	"so2": {
		{0, 40, 0, 50},
		{40, 80, 51, 100},
		{80, 380, 101, 200},
		{380, 800, 201, 300},
		{800, 1600, 301, 400},
	},
}

const aqiCeiling = 400

// KnownPollutant reports whether a sub-index table exists for the pollutant.
func KnownPollutant(pollutant string) bool {
	_, ok := aqiBreakpoints[pollutant]
	return ok
}

// PollutantAQI converts one concentration into its sub-index by
// piecewise-linear interpolation over the pollutant's breakpoint table.
// Concentrations above the table top saturate at the ceiling. Unknown
// pollutants carry no sub-index and report false.
func PollutantAQI(pollutant string, concentration float64) (int, bool) {
	table, ok := aqiBreakpoints[pollutant]
	if !ok {
		return 0, false
	}
	if math.IsNaN(concentration) {
		return 0, false
	}
	for _, bp := range table {
		if concentration >= bp.cLow && concentration <= bp.cHigh {
			slope := (bp.aqiHigh - bp.aqiLow) / (bp.cHigh - bp.cLow)
			return int(slope*(concentration-bp.cLow) + bp.aqiLow), true
		}
	}
	return aqiCeiling, true
}

// OverallAQI is the maximum sub-index over the given per-pollutant
// concentrations. False when no pollutant had a usable sub-index.
func OverallAQI(concentrations map[string]float64) (int, bool) {
	overall, any := 0, false
	for pollutant, c := range concentrations {
		sub, ok := PollutantAQI(pollutant, c)
		if !ok {
			continue
		}
		any = true
		if sub > overall {
			overall = sub
		}
	}
	return overall, any
}

// ClassifyAQI labels an overall AQI value.
func ClassifyAQI(aqi int) string {
	switch {
	case aqi <= 50:
		return AQIGood
	case aqi <= 100:
		return AQIModerate
	case aqi <= 200:
		return AQIPoor
	case aqi <= 300:
		return AQIVeryPoor
	default:
		return AQISevere
	}
}

// NDVIGreenScore rescales an NDVI sample from [-1, 1] to an integer green
// score on [0, 100].
func NDVIGreenScore(ndvi float64) int {
	clipped := clip(ndvi, -1, 1)
	return int((clipped + 1) / 2 * 100)
}

// ClassifyLandCover buckets an NDVI sample into a land cover class.
func ClassifyLandCover(ndvi float64) string {
	switch {
	case ndvi < -0.1:
		return LandCoverWater
	case ndvi < 0.1:
		return LandCoverBuiltUp
	case ndvi < 0.3:
		return LandCoverSparse
	case ndvi < 0.6:
		return LandCoverModerate
	default:
		return LandCoverDense
	}
}

// ClassifyHeatStress labels a surface temperature in Celsius.
func ClassifyHeatStress(tempC float64) string {
	switch {
	case tempC < 30:
		return HeatStressLow
	case tempC < 35:
		return HeatStressModerate
	case tempC < 40:
		return HeatStressHigh
	default:
		return HeatStressExtreme
	}
}

// TemperatureScore maps a surface temperature in Celsius onto [0, 100],
// anchored at 20 C and saturating at 45 C.
func TemperatureScore(tempC float64) float64 {
	return clip((tempC-20)/25*100, 0, 100)
}

// ClassifyPrecipitation labels a daily precipitation total in mm/day.
func ClassifyPrecipitation(mmPerDay float64) string {
	switch {
	case mmPerDay < 2.5:
		return PrecipLight
	case mmPerDay < 10:
		return PrecipModerate
	case mmPerDay < 35:
		return PrecipHeavy
	default:
		return PrecipVeryHeavy
	}
}

// FloodRiskIndex derives a 0-1 risk index from precipitation in mm/day,
// raised by the soil moisture fraction when one is available. The combined
// index never exceeds 1.
func FloodRiskIndex(precipMM float64, soilMoisture *float64) float64 {
	risk := clip(precipMM/50, 0, 1)
	if soilMoisture != nil {
		risk = math.Min(risk+clip(*soilMoisture/0.5, 0, 1)*0.3, 1.0)
	}
	return risk
}

// ClassifyFloodRisk labels a 0-1 flood risk index.
func ClassifyFloodRisk(risk float64) string {
	switch {
	case risk < 0.25:
		return FloodRiskLow
	case risk < 0.5:
		return FloodRiskMedium
	case risk < 0.75:
		return FloodRiskHigh
	default:
		return FloodRiskCritical
	}
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
