package analyzer

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/urbanpulse/resilience-api/geo"
	"github.com/urbanpulse/resilience-api/schema"
)

const (
	// Populated points closer than this to a facility are served, km.
	healthcareAccessThresholdKM = 1.0

	// Points with fewer residents are skipped.
	healthcareMinPopulation = 100

	// Severity saturates at this distance, km.
	healthcareSeverityCapKM = 5.0
)

// Ward healthcare adequacy labels.
const (
	AdequacyInsufficient = "Insufficient"
	AdequacyAdequate     = "Adequate"
	AdequacyGood         = "Good"
)

// HealthcareGap is a populated point beyond the access threshold from every
// facility.
type HealthcareGap struct {
	Latitude   float64         `json:"latitude" bson:"latitude"`
	Longitude  float64         `json:"longitude" bson:"longitude"`
	Population int64           `json:"population" bson:"population"`
	DistanceKM float64         `json:"distance_km" bson:"distance_km"`
	Severity   float64         `json:"severity" bson:"severity"`
	Priority   schema.Priority `json:"priority" bson:"priority"`
}

// WardHealthcare is the per-ward capacity rollup.
type WardHealthcare struct {
	AreaNumber        int     `json:"area_number" bson:"area_number"`
	AreaName          string  `json:"area_name" bson:"area_name"`
	Population        int64   `json:"population" bson:"population"`
	Hospitals         int     `json:"hospitals" bson:"hospitals"`
	Clinics           int     `json:"clinics" bson:"clinics"`
	Pharmacies        int     `json:"pharmacies" bson:"pharmacies"`
	TotalFacilities   int     `json:"total_facilities" bson:"total_facilities"`
	TotalBeds         int     `json:"total_beds" bson:"total_beds"`
	FacilitiesPer1000 float64 `json:"facilities_per_1000" bson:"facilities_per_1000"`
	BedsPer1000       float64 `json:"beds_per_1000" bson:"beds_per_1000"`
	Adequacy          string  `json:"adequacy" bson:"adequacy"`
}

// HealthcareResult is the healthcare domain output. Approximate reports that
// at least one distance fell back to the degree approximation.
type HealthcareResult struct {
	Gaps        []HealthcareGap
	Hotspots    []schema.Hotspot
	Wards       []WardHealthcare
	Approximate bool
}

// AnalyzeHealthcare measures access gaps as the distance from each populated
// point to its nearest facility, in UTM meter space, then rolls facility
// capacity up per ward.
func AnalyzeHealthcare(population []schema.PopulationPoint, facilities []schema.FacilityPoint, wards []schema.AreaPolygon) *HealthcareResult {
	result := &HealthcareResult{}

	for _, pt := range population {
		if pt.Population < healthcareMinPopulation {
			continue
		}

		minKM := math.Inf(1)
		for _, f := range facilities {
			meters, approx := geo.DistanceUTM(pt.Latitude, pt.Longitude, f.Latitude, f.Longitude)
			if approx {
				result.Approximate = true
			}
			if km := meters / 1000; km < minKM {
				minKM = km
			}
		}
		if math.IsInf(minKM, 1) || minKM <= healthcareAccessThresholdKM {
			continue
		}

		severity := math.Min(minKM/healthcareSeverityCapKM, 1.0)
		var priority schema.Priority
		switch {
		case severity >= 0.6:
			priority = schema.PriorityCritical
		case severity >= 0.4:
			priority = schema.PriorityHigh
		default:
			priority = schema.PriorityMedium
		}

		result.Gaps = append(result.Gaps, HealthcareGap{
			Latitude:   pt.Latitude,
			Longitude:  pt.Longitude,
			Population: pt.Population,
			DistanceKM: minKM,
			Severity:   severity,
			Priority:   priority,
		})
		result.Hotspots = append(result.Hotspots, schema.Hotspot{
			Domain:      schema.DomainHealthcare,
			Latitude:    pt.Latitude,
			Longitude:   pt.Longitude,
			Severity:    severity,
			Category:    AdequacyInsufficient,
			Priority:    priority,
			Measurement: minKM,
		})
	}

	result.Wards = wardCapacity(facilities, wards)

	log.WithFields(logrus.Fields{
		"gaps":        len(result.Gaps),
		"approximate": result.Approximate,
	}).Info("healthcare analysis complete")
	return result
}

func wardCapacity(facilities []schema.FacilityPoint, wards []schema.AreaPolygon) []WardHealthcare {
	out := make([]WardHealthcare, 0, len(wards))
	for k := range wards {
		ward := &wards[k]
		wh := WardHealthcare{
			AreaNumber: ward.Number,
			AreaName:   ward.Name,
			Population: ward.Population,
		}

		for _, f := range facilities {
			if !ward.Contains(f.Latitude, f.Longitude) {
				continue
			}
			wh.TotalFacilities++
			wh.TotalBeds += f.CapacityBeds
			switch f.Amenity {
			case schema.FacilityHospital:
				wh.Hospitals++
			case schema.FacilityClinic:
				wh.Clinics++
			case schema.FacilityPharmacy:
				wh.Pharmacies++
			}
		}

		if ward.Population > 0 {
			wh.FacilitiesPer1000 = float64(wh.TotalFacilities) / float64(ward.Population) * 1000
			wh.BedsPer1000 = float64(wh.TotalBeds) / float64(ward.Population) * 1000
		}

		switch {
		case wh.FacilitiesPer1000 < 0.5:
			wh.Adequacy = AdequacyInsufficient
		case wh.FacilitiesPer1000 < 1.0:
			wh.Adequacy = AdequacyAdequate
		default:
			wh.Adequacy = AdequacyGood
		}

		out = append(out, wh)
	}
	return out
}
