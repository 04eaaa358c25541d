package geo

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/sirupsen/logrus"

	"github.com/urbanpulse/resilience-api/schema"
)

var log = logrus.WithField("prefix", "geo")

var (
	ErrNotAPolygon = fmt.Errorf("feature geometry is not a polygon")
	ErrNoFeatures  = fmt.Errorf("feature collection is empty")
)

// LoadWards reads administrative ward polygons from a GeoJSON feature
// collection. Features without a polygon geometry are skipped with a warning,
// never fatal.
func LoadWards(path string) ([]schema.AreaPolygon, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}

	wards := make([]schema.AreaPolygon, 0, len(fc.Features))
	for i, feat := range fc.Features {
		poly, err := featurePolygon(feat)
		if err != nil {
			log.WithFields(logrus.Fields{
				"path":    path,
				"feature": i,
			}).Warn("skipping ward feature without polygon geometry")
			continue
		}

		ward := schema.AreaPolygon{
			Number:     propertyInt(feat, "ward_number", i+1),
			Name:       propertyString(feat, "name", fmt.Sprintf("Ward %d", i+1)),
			Boundary:   poly,
			Geometry:   storedGeometry(feat.Geometry),
			Population: int64(propertyInt(feat, "population", 0)),
			AreaSqm:    orbgeo.Area(poly),
		}
		if err := ward.Validate(); err != nil {
			return nil, fmt.Errorf("ward feature %d: %w", i, err)
		}
		wards = append(wards, ward)
	}

	if len(wards) == 0 {
		return nil, ErrNoFeatures
	}
	return wards, nil
}

// LoadFacilities reads healthcare facility points from a GeoJSON feature
// collection. Point features only; polygons (building footprints) collapse to
// their centroid.
func LoadFacilities(path string) ([]schema.FacilityPoint, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}

	facilities := make([]schema.FacilityPoint, 0, len(fc.Features))
	for _, feat := range fc.Features {
		var point orb.Point
		switch g := feat.Geometry.(type) {
		case orb.Point:
			point = g
		default:
			point, _ = planar.CentroidArea(feat.Geometry)
		}

		facilities = append(facilities, schema.FacilityPoint{
			Name:         propertyString(feat, "name", "unnamed facility"),
			Amenity:      propertyString(feat, "amenity", schema.FacilityClinic),
			Latitude:     point.Y(),
			Longitude:    point.X(),
			CapacityBeds: propertyInt(feat, "capacity_beds", 0),
		})
	}

	if len(facilities) == 0 {
		return nil, ErrNoFeatures
	}
	return facilities, nil
}

// LoadGreenSpaces reads park, garden and playground polygons from a GeoJSON
// feature collection.
func LoadGreenSpaces(path string) ([]schema.GreenSpacePolygon, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}

	spaces := make([]schema.GreenSpacePolygon, 0, len(fc.Features))
	for i, feat := range fc.Features {
		poly, err := featurePolygon(feat)
		if err != nil {
			log.WithFields(logrus.Fields{
				"path":    path,
				"feature": i,
			}).Warn("skipping green space feature without polygon geometry")
			continue
		}

		spaces = append(spaces, schema.GreenSpacePolygon{
			Name:     propertyString(feat, "name", "unnamed green space"),
			Leisure:  propertyString(feat, "leisure", schema.GreenSpacePark),
			Boundary: poly,
			Geometry: storedGeometry(feat.Geometry),
			AreaSqm:  orbgeo.Area(poly),
		})
	}

	if len(spaces) == 0 {
		return nil, ErrNoFeatures
	}
	return spaces, nil
}

func readFeatureCollection(path string) (*geojson.FeatureCollection, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return fc, nil
}

// featurePolygon extracts a polygon from a feature, taking the largest ring
// set of a multipolygon.
func featurePolygon(feat *geojson.Feature) (orb.Polygon, error) {
	switch g := feat.Geometry.(type) {
	case orb.Polygon:
		return g, nil
	case orb.MultiPolygon:
		if len(g) == 0 {
			return nil, ErrNotAPolygon
		}
		largest := g[0]
		largestArea := orbgeo.Area(g[0])
		for _, poly := range g[1:] {
			if a := orbgeo.Area(poly); a > largestArea {
				largest, largestArea = poly, a
			}
		}
		return largest, nil
	default:
		return nil, ErrNotAPolygon
	}
}

func storedGeometry(g orb.Geometry) schema.Geometry {
	encoded := geojson.NewGeometry(g)
	return schema.Geometry{
		Type:        string(g.GeoJSONType()),
		Coordinates: encoded.Coordinates,
	}
}

func propertyString(feat *geojson.Feature, key, fallback string) string {
	if v, ok := feat.Properties[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func propertyInt(feat *geojson.Feature, key string, fallback int) int {
	switch v := feat.Properties[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}
