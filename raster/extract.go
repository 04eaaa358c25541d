package raster

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/urbanpulse/resilience-api/schema"
)

const (
	// Buffer in degrees applied on retry when the exact bounds catch no
	// pixels, tolerating near-miss swath edges.
	extractBuffer = 0.1

	// Index padding around the tight bounding box of in-region pixels.
	extractPadding = 20

	// Epsilon keeping inverse-distance weights finite at zero distance.
	idwEpsilon = 1e-10
)

// Extraction is the outcome of subsetting a raster to a region.
type Extraction struct {
	Raster *schema.GeoRaster
	// Coverage is validPixels / totalPixelsInRegion. Zero means the region
	// was not covered; callers decide policy, this layer never fabricates
	// data.
	Coverage float64
}

// Extract subsets a geolocated raster to the target bounds. When the exact
// bounds catch nothing the buffered bounds are tried; when those are empty
// too, zero coverage is reported.
func Extract(r *schema.GeoRaster, bounds schema.Bounds) Extraction {
	inRegion, regionTotal := regionMask(r, bounds)
	if regionTotal == 0 {
		log.WithField("source", r.Source).Info("no pixels in exact bounds, retrying with buffer")
		inRegion, regionTotal = regionMask(r, bounds.Buffered(extractBuffer))
	}
	if regionTotal == 0 {
		log.WithField("source", r.Source).Warn("region not covered by raster, reporting zero coverage")
		return Extraction{Raster: nil, Coverage: 0}
	}

	minRow, maxRow, minCol, maxCol := tightBox(inRegion)

	minRow = maxInt(0, minRow-extractPadding)
	maxRow = minInt(r.Rows()-1, maxRow+extractPadding)
	minCol = maxInt(0, minCol-extractPadding)
	maxCol = minInt(r.Cols()-1, maxCol+extractPadding)

	sub := slice(r, minRow, maxRow, minCol, maxCol)

	valid := 0
	for i := range inRegion {
		for j := range inRegion[i] {
			if inRegion[i][j] && !math.IsNaN(r.Values[i][j]) {
				valid++
			}
		}
	}

	return Extraction{
		Raster:   sub,
		Coverage: float64(valid) / float64(regionTotal),
	}
}

func regionMask(r *schema.GeoRaster, bounds schema.Bounds) ([][]bool, int) {
	mask := make([][]bool, r.Rows())
	total := 0
	for i := 0; i < r.Rows(); i++ {
		mask[i] = make([]bool, r.Cols())
		for j := 0; j < r.Cols(); j++ {
			lat, lon := r.CellCoord(i, j)
			if bounds.Contains(lat, lon) {
				mask[i][j] = true
				total++
			}
		}
	}
	return mask, total
}

func tightBox(mask [][]bool) (minRow, maxRow, minCol, maxCol int) {
	minRow, minCol = math.MaxInt32, math.MaxInt32
	maxRow, maxCol = -1, -1
	for i := range mask {
		for j := range mask[i] {
			if !mask[i][j] {
				continue
			}
			minRow = minInt(minRow, i)
			maxRow = maxInt(maxRow, i)
			minCol = minInt(minCol, j)
			maxCol = maxInt(maxCol, j)
		}
	}
	return minRow, maxRow, minCol, maxCol
}

func slice(r *schema.GeoRaster, minRow, maxRow, minCol, maxCol int) *schema.GeoRaster {
	rows := maxRow - minRow + 1

	out := &schema.GeoRaster{
		Source: r.Source,
		Unit:   r.Unit,
		Values: make([][]float64, rows),
	}
	if r.Geolocated() {
		out.Lat2D = make([][]float64, rows)
		out.Lon2D = make([][]float64, rows)
	} else {
		out.Lat1D = append([]float64(nil), r.Lat1D[minRow:maxRow+1]...)
		out.Lon1D = append([]float64(nil), r.Lon1D[minCol:maxCol+1]...)
	}
	if len(r.QC) > 0 {
		out.QC = make([][]int64, rows)
	}

	for i := 0; i < rows; i++ {
		src := minRow + i
		out.Values[i] = append([]float64(nil), r.Values[src][minCol:maxCol+1]...)
		if r.Geolocated() {
			out.Lat2D[i] = append([]float64(nil), r.Lat2D[src][minCol:maxCol+1]...)
			out.Lon2D[i] = append([]float64(nil), r.Lon2D[src][minCol:maxCol+1]...)
		}
		if len(r.QC) > 0 {
			out.QC[i] = append([]int64(nil), r.QC[src][minCol:maxCol+1]...)
		}
	}
	return out
}

// InterpolateIDW regrids an irregular point cloud onto an axis-aligned
// rows x cols grid over the given bounds using inverse-distance weighting,
// w = 1/(d^2+eps), aggregated over every sample (no neighbor cutoff).
func InterpolateIDW(cloud *schema.PointCloud, bounds schema.Bounds, rows, cols int) *schema.GeoRaster {
	lats := linspace(bounds.South, bounds.North, rows)
	lons := linspace(bounds.West, bounds.East, cols)

	values := schema.NewGrid(rows, cols, math.NaN())
	if cloud.Len() > 0 {
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				values[i][j] = idwAt(cloud, lats[i], lons[j])
			}
		}
	}

	return &schema.GeoRaster{
		Source: cloud.Source,
		Unit:   cloud.Unit,
		Values: values,
		Lat1D:  lats,
		Lon1D:  lons,
	}
}

// ExtractCloud subsets an irregular swath to the region and interpolates it
// onto a rows x cols target grid. Coverage is the ratio of in-region swath
// samples to target grid cells, reported explicitly so callers can
// distinguish sparse interpolation from dense coverage. Empty swaths (after
// the buffered retry) yield zero coverage and no raster.
func ExtractCloud(cloud *schema.PointCloud, bounds schema.Bounds, rows, cols int) Extraction {
	subset := filterCloud(cloud, bounds)
	if subset.Len() == 0 {
		log.WithField("source", cloud.Source).Info("no swath samples in exact bounds, retrying with buffer")
		subset = filterCloud(cloud, bounds.Buffered(extractBuffer))
	}
	if subset.Len() == 0 {
		log.WithField("source", cloud.Source).Warn("swath does not cover region, reporting zero coverage")
		return Extraction{Raster: nil, Coverage: 0}
	}

	coverage := float64(subset.Len()) / float64(rows*cols)
	log.WithFields(logrus.Fields{
		"source":   cloud.Source,
		"samples":  subset.Len(),
		"coverage": coverage,
	}).Info("interpolating swath samples onto target grid")

	return Extraction{
		Raster:   InterpolateIDW(subset, bounds, rows, cols),
		Coverage: coverage,
	}
}

func filterCloud(cloud *schema.PointCloud, bounds schema.Bounds) *schema.PointCloud {
	out := &schema.PointCloud{Source: cloud.Source, Unit: cloud.Unit}
	for k := 0; k < cloud.Len(); k++ {
		if math.IsNaN(cloud.Values[k]) {
			continue
		}
		if bounds.Contains(cloud.Lats[k], cloud.Lons[k]) {
			out.Lats = append(out.Lats, cloud.Lats[k])
			out.Lons = append(out.Lons, cloud.Lons[k])
			out.Values = append(out.Values, cloud.Values[k])
		}
	}
	return out
}

func idwAt(cloud *schema.PointCloud, lat, lon float64) float64 {
	weightSum, valueSum := 0.0, 0.0
	for k := 0; k < cloud.Len(); k++ {
		dLat := lat - cloud.Lats[k]
		dLon := lon - cloud.Lons[k]
		w := 1.0 / (dLat*dLat + dLon*dLon + idwEpsilon)
		weightSum += w
		valueSum += w * cloud.Values[k]
	}
	return valueSum / weightSum
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
