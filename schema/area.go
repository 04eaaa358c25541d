package schema

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

const (
	AreaCollection       = "areas"
	FacilityCollection   = "facilities"
	GreenSpaceCollection = "green_spaces"
)

var (
	ErrNegativePopulation = fmt.Errorf("area population must not be negative")
	ErrEmptyBoundary      = fmt.Errorf("area boundary is empty")
)

// AreaPolygon is an administrative ward. Loaded once per analysis run and
// read-only afterwards.
type AreaPolygon struct {
	Number     int         `json:"number" bson:"number"`
	Name       string      `json:"name" bson:"name"`
	Boundary   orb.Polygon `json:"-" bson:"-"`
	Geometry   Geometry    `json:"geometry" bson:"geometry"`
	Population int64       `json:"population" bson:"population"`
	AreaSqm    float64     `json:"area_sqm" bson:"area_sqm"`
}

func (a *AreaPolygon) Validate() error {
	if a.Population < 0 {
		return ErrNegativePopulation
	}
	if len(a.Boundary) == 0 {
		return ErrEmptyBoundary
	}
	return nil
}

// Contains reports whether the geographic point lies inside the ward
// boundary. Cells straddling a boundary belong wholly to the ward containing
// their center.
func (a *AreaPolygon) Contains(lat, lon float64) bool {
	return planar.PolygonContains(a.Boundary, orb.Point{lon, lat})
}

// Geometry mirrors the GeoJSON geometry member for storage.
type Geometry struct {
	Type        string      `json:"type" bson:"type"`
	Coordinates interface{} `json:"coordinates" bson:"coordinates"`
}

// Facility types recognized by the healthcare analyzer.
const (
	FacilityHospital = "hospital"
	FacilityClinic   = "clinic"
	FacilityPharmacy = "pharmacy"
	FacilityDoctor   = "doctors"
)

// FacilityPoint is a healthcare facility. Read-only after load.
type FacilityPoint struct {
	Name         string  `json:"name" bson:"name"`
	Amenity      string  `json:"amenity" bson:"amenity"`
	Latitude     float64 `json:"latitude" bson:"latitude"`
	Longitude    float64 `json:"longitude" bson:"longitude"`
	CapacityBeds int     `json:"capacity_beds" bson:"capacity_beds"`
}

// Green space types recognized by the green space analyzer.
const (
	GreenSpacePark       = "park"
	GreenSpaceGarden     = "garden"
	GreenSpacePlayground = "playground"
)

// GreenSpacePolygon is a park, garden or playground. Read-only after load.
type GreenSpacePolygon struct {
	Name     string      `json:"name" bson:"name"`
	Leisure  string      `json:"leisure" bson:"leisure"`
	Boundary orb.Polygon `json:"-" bson:"-"`
	Geometry Geometry    `json:"geometry" bson:"geometry"`
	AreaSqm  float64     `json:"area_sqm" bson:"area_sqm"`
}

// Centroid returns the polygon centroid as (lat, lon).
func (g *GreenSpacePolygon) Centroid() (float64, float64) {
	c, _ := planar.CentroidArea(g.Boundary)
	return c.Y(), c.X()
}

// Contains reports whether the geographic point lies inside the green space.
func (g *GreenSpacePolygon) Contains(lat, lon float64) bool {
	return planar.PolygonContains(g.Boundary, orb.Point{lon, lat})
}

// PopulationPoint is a populated grid point used for access-gap analysis.
type PopulationPoint struct {
	Latitude   float64 `json:"latitude" bson:"latitude"`
	Longitude  float64 `json:"longitude" bson:"longitude"`
	Population int64   `json:"population" bson:"population"`
}
