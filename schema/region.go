package schema

// Bounds is a geographic bounding box in degrees.
type Bounds struct {
	South float64 `json:"south" bson:"south"`
	North float64 `json:"north" bson:"north"`
	West  float64 `json:"west" bson:"west"`
	East  float64 `json:"east" bson:"east"`
}

func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.South && lat <= b.North && lon >= b.West && lon <= b.East
}

// Buffered widens the box by d degrees on every side.
func (b Bounds) Buffered(d float64) Bounds {
	return Bounds{
		South: b.South - d,
		North: b.North + d,
		West:  b.West - d,
		East:  b.East + d,
	}
}

// RegionConfig is the immutable per-deployment configuration handed to each
// component at construction time. Components never read global settings.
type RegionConfig struct {
	Name string `json:"name" bson:"name"`

	Bounds Bounds `json:"bounds" bson:"bounds"`

	// Target output grid resolution in meters.
	ResolutionMeters int `json:"resolution_meters" bson:"resolution_meters"`

	// Default satellite grid tile covering the region, used when a product
	// carries an unknown tile identifier.
	DefaultTile string `json:"default_tile" bson:"default_tile"`

	// Minimum accepted pixels after quality filtering for a granule to be
	// usable.
	MinValidPixels int `json:"min_valid_pixels" bson:"min_valid_pixels"`
}

// GridSize returns the number of cells per axis for the region at the
// configured resolution, using the 111 km/degree approximation.
func (c RegionConfig) GridSize() (rows, cols int) {
	const metersPerDegree = 111000.0
	latSpan := (c.Bounds.North - c.Bounds.South) * metersPerDegree
	lonSpan := (c.Bounds.East - c.Bounds.West) * metersPerDegree
	rows = int(latSpan) / c.ResolutionMeters
	cols = int(lonSpan) / c.ResolutionMeters
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	return rows, cols
}
