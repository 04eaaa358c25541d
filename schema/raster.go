package schema

import (
	"fmt"
	"math"
)

var (
	ErrCoordinateShapeMismatch = fmt.Errorf("coordinate array shape does not match value array shape")
	ErrNoCoordinates           = fmt.Errorf("raster carries no coordinate arrays")
)

// GeoRaster is a 2-D grid of physical values with geographic coordinates.
// Coordinates are either axis-aligned 1-D arrays (Lat1D/Lon1D) or per-pixel
// 2-D arrays (Lat2D/Lon2D) for reprojected or irregular grids. Pipeline
// stages return new instances instead of mutating in place, so concurrent
// analyzers can safely share a base raster.
type GeoRaster struct {
	Source string      `json:"source" bson:"source"`
	Unit   string      `json:"unit" bson:"unit"`
	Values [][]float64 `json:"values" bson:"values"`
	Lat1D  []float64   `json:"lat_1d,omitempty" bson:"lat_1d,omitempty"`
	Lon1D  []float64   `json:"lon_1d,omitempty" bson:"lon_1d,omitempty"`
	Lat2D  [][]float64 `json:"lat_2d,omitempty" bson:"lat_2d,omitempty"`
	Lon2D  [][]float64 `json:"lon_2d,omitempty" bson:"lon_2d,omitempty"`
	QC     [][]int64   `json:"-" bson:"-"`
}

func (r *GeoRaster) Rows() int {
	return len(r.Values)
}

func (r *GeoRaster) Cols() int {
	if len(r.Values) == 0 {
		return 0
	}
	return len(r.Values[0])
}

// Geolocated reports whether the raster carries per-pixel 2-D coordinates.
func (r *GeoRaster) Geolocated() bool {
	return len(r.Lat2D) > 0 && len(r.Lon2D) > 0
}

// CellCoord returns the geographic coordinate of cell (i, j) for either
// coordinate layout.
func (r *GeoRaster) CellCoord(i, j int) (lat, lon float64) {
	if r.Geolocated() {
		return r.Lat2D[i][j], r.Lon2D[i][j]
	}
	return r.Lat1D[i], r.Lon1D[j]
}

// Validate checks the coordinate/value shape invariant.
func (r *GeoRaster) Validate() error {
	rows, cols := r.Rows(), r.Cols()
	if r.Geolocated() {
		if len(r.Lat2D) != rows || len(r.Lon2D) != rows {
			return ErrCoordinateShapeMismatch
		}
		for i := range r.Lat2D {
			if len(r.Lat2D[i]) != cols || len(r.Lon2D[i]) != cols {
				return ErrCoordinateShapeMismatch
			}
		}
		return nil
	}
	if len(r.Lat1D) == 0 || len(r.Lon1D) == 0 {
		return ErrNoCoordinates
	}
	if len(r.Lat1D) != rows || len(r.Lon1D) != cols {
		return ErrCoordinateShapeMismatch
	}
	return nil
}

// ValidCount returns the number of non-NaN cells.
func (r *GeoRaster) ValidCount() int {
	count := 0
	for i := range r.Values {
		for j := range r.Values[i] {
			if !math.IsNaN(r.Values[i][j]) {
				count++
			}
		}
	}
	return count
}

// MeanValue returns the mean over non-NaN cells, or NaN when empty.
func (r *GeoRaster) MeanValue() float64 {
	sum, count := 0.0, 0
	for i := range r.Values {
		for j := range r.Values[i] {
			if v := r.Values[i][j]; !math.IsNaN(v) {
				sum += v
				count++
			}
		}
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}

// PointCloud holds scattered swath samples that do not form a clean grid.
type PointCloud struct {
	Source string    `json:"source" bson:"source"`
	Unit   string    `json:"unit" bson:"unit"`
	Lats   []float64 `json:"lats" bson:"lats"`
	Lons   []float64 `json:"lons" bson:"lons"`
	Values []float64 `json:"values" bson:"values"`
}

func (p *PointCloud) Len() int {
	return len(p.Values)
}

// QCMask is a boolean acceptance mask with the same shape as the raster it
// gates.
type QCMask [][]bool

// Count returns the number of accepted pixels.
func (m QCMask) Count() int {
	count := 0
	for i := range m {
		for j := range m[i] {
			if m[i][j] {
				count++
			}
		}
	}
	return count
}

// NewGrid allocates a rows x cols grid filled with the given value.
func NewGrid(rows, cols int, fill float64) [][]float64 {
	grid := make([][]float64, rows)
	for i := range grid {
		grid[i] = make([]float64, cols)
		for j := range grid[i] {
			grid[i][j] = fill
		}
	}
	return grid
}
