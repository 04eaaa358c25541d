package analyzer

import (
	"math"

	"github.com/urbanpulse/resilience-api/raster"
	"github.com/urbanpulse/resilience-api/schema"
)

// WHO recommended green space per person, m2.
const greenSpaceTargetSqmPerPerson = 9.0

// WardGreenSpace is the per-ward green space assessment.
type WardGreenSpace struct {
	AreaNumber             int             `json:"area_number" bson:"area_number"`
	AreaName               string          `json:"area_name" bson:"area_name"`
	Population             int64           `json:"population" bson:"population"`
	GreenAreaSqm           float64         `json:"green_area_sqm" bson:"green_area_sqm"`
	PerPersonSqm           float64         `json:"per_person_sqm" bson:"per_person_sqm"`
	DeficitPerPersonSqm    float64         `json:"deficit_per_person_sqm" bson:"deficit_per_person_sqm"`
	DeficitSeverity        float64         `json:"deficit_severity" bson:"deficit_severity"`
	NDVIGreenScore         float64         `json:"ndvi_green_score" bson:"ndvi_green_score"`
	CombinedScore          float64         `json:"combined_score" bson:"combined_score"`
	Priority               schema.Priority `json:"priority" bson:"priority"`
	RecommendedNewGreenSqm float64         `json:"recommended_new_green_sqm" bson:"recommended_new_green_sqm"`
}

// GreenSpaceResult is the green space domain output.
type GreenSpaceResult struct {
	Wards []WardGreenSpace
}

// MeanCombinedScore averages the combined green score over wards.
func (r *GreenSpaceResult) MeanCombinedScore() float64 {
	if len(r.Wards) == 0 {
		return 0
	}
	sum := 0.0
	for _, w := range r.Wards {
		sum += w.CombinedScore
	}
	return sum / float64(len(r.Wards))
}

// AnalyzeGreenSpace assesses each ward's formal green space per person
// against the WHO target and blends in the NDVI green score of the ward's
// cells. A green space belongs to the ward containing its centroid.
func AnalyzeGreenSpace(ndvi *schema.GeoRaster, greenSpaces []schema.GreenSpacePolygon, wards []schema.AreaPolygon) *GreenSpaceResult {
	result := &GreenSpaceResult{}

	greenByWard := make([]float64, len(wards))
	for gi := range greenSpaces {
		lat, lon := greenSpaces[gi].Centroid()
		if k := wardIndexOf(wards, lat, lon); k >= 0 {
			greenByWard[k] += greenSpaces[gi].AreaSqm
		}
	}

	ndviByWard := make([][]float64, len(wards))
	if ndvi != nil {
		forEachCell(ndvi, func(i, j int, lat, lon, v float64) {
			if k := wardIndexOf(wards, lat, lon); k >= 0 {
				ndviByWard[k] = append(ndviByWard[k], float64(raster.NDVIGreenScore(v)))
			}
		})
	}

	for k := range wards {
		ward := &wards[k]

		perPerson := 0.0
		if ward.Population > 0 {
			perPerson = greenByWard[k] / float64(ward.Population)
		}

		deficit := math.Max(0, greenSpaceTargetSqmPerPerson-perPerson)
		ndviScore := mean(ndviByWard[k])
		combined := perPerson/greenSpaceTargetSqmPerPerson*50 + ndviScore/2

		var priority schema.Priority
		switch {
		case combined < 30:
			priority = schema.PriorityCritical
		case combined < 50:
			priority = schema.PriorityHigh
		case combined < 70:
			priority = schema.PriorityMedium
		default:
			priority = schema.PriorityLow
		}

		result.Wards = append(result.Wards, WardGreenSpace{
			AreaNumber:             ward.Number,
			AreaName:               ward.Name,
			Population:             ward.Population,
			GreenAreaSqm:           greenByWard[k],
			PerPersonSqm:           perPerson,
			DeficitPerPersonSqm:    deficit,
			DeficitSeverity:        math.Min(deficit/greenSpaceTargetSqmPerPerson, 1.0),
			NDVIGreenScore:         ndviScore,
			CombinedScore:          combined,
			Priority:               priority,
			RecommendedNewGreenSqm: deficit * float64(ward.Population),
		})
	}

	log.WithField("wards", len(result.Wards)).Info("green space analysis complete")
	return result
}
