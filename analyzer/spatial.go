package analyzer

import (
	"math"

	"github.com/urbanpulse/resilience-api/schema"
)

// forEachCell visits every finite cell of a raster with its geographic
// coordinates.
func forEachCell(r *schema.GeoRaster, fn func(i, j int, lat, lon, v float64)) {
	for i := 0; i < r.Rows(); i++ {
		for j := 0; j < r.Cols(); j++ {
			v := r.Values[i][j]
			if math.IsNaN(v) {
				continue
			}
			lat, lon := r.CellCoord(i, j)
			fn(i, j, lat, lon, v)
		}
	}
}

// wardIndexOf returns the index of the ward containing the point, or -1. A
// cell straddling a boundary belongs wholly to the ward containing its
// center.
func wardIndexOf(wards []schema.AreaPolygon, lat, lon float64) int {
	for k := range wards {
		if wards[k].Contains(lat, lon) {
			return k
		}
	}
	return -1
}

// sampleAt reads the raster value nearest to the geographic point. For
// sinusoidal grids latitude is constant along a row, so the nearest row is
// found by latitude and the nearest column by longitude within that row.
func sampleAt(r *schema.GeoRaster, lat, lon float64) (float64, bool) {
	if r == nil || r.Rows() == 0 || r.Cols() == 0 {
		return 0, false
	}

	bestRow := 0
	bestRowDist := math.Inf(1)
	for i := 0; i < r.Rows(); i++ {
		rowLat, _ := r.CellCoord(i, 0)
		if d := math.Abs(rowLat - lat); d < bestRowDist {
			bestRow, bestRowDist = i, d
		}
	}

	bestCol := 0
	bestColDist := math.Inf(1)
	for j := 0; j < r.Cols(); j++ {
		_, cellLon := r.CellCoord(bestRow, j)
		if d := math.Abs(cellLon - lon); d < bestColDist {
			bestCol, bestColDist = j, d
		}
	}

	v := r.Values[bestRow][bestCol]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
