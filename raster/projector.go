package raster

import (
	"fmt"
	"math"
	"strconv"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "raster")

const (
	// Sphere radius of the sinusoidal grid datum in meters.
	sinusoidalRadius = 6371007.181

	// Edge length of one grid tile in projected meters (1200 px at ~926.6 m).
	tileSizeMeters = 1111950.5197665

	// Tile indices relative to the grid origin: h=18 is the central
	// meridian, v=9 is the equator.
	centralMeridianTile = 18
	equatorTile         = 9
)

// tileBounds is an axis-aligned box in projected meter space.
type tileBounds struct {
	left   float64
	bottom float64
	right  float64
	top    float64
}

// SinusoidalProjector converts a product's native sinusoidal tile grid into
// per-pixel geographic coordinates.
type SinusoidalProjector struct {
	tiles       map[string]tileBounds
	defaultTile string
}

// NewSinusoidalProjector builds the known-tile table covering h 14-27,
// v 0-11 (South Asia and surroundings). Tile identifiers outside the table
// fall back to defaultTile.
func NewSinusoidalProjector(defaultTile string) *SinusoidalProjector {
	tiles := make(map[string]tileBounds)
	for h := 14; h < 28; h++ {
		for v := 0; v < 12; v++ {
			id := fmt.Sprintf("h%02dv%02d", h, v)
			left := float64(h-centralMeridianTile) * tileSizeMeters
			top := float64(equatorTile-v) * tileSizeMeters
			tiles[id] = tileBounds{
				left:   left,
				right:  left + tileSizeMeters,
				top:    top,
				bottom: top - tileSizeMeters,
			}
		}
	}
	return &SinusoidalProjector{tiles: tiles, defaultTile: defaultTile}
}

// Coordinates produces lat[rows][cols], lon[rows][cols] in degrees for the
// given tile. Rows run top to bottom in projected space. An unknown or
// malformed tile id never fails; the default tile is substituted and the
// fallback logged.
func (p *SinusoidalProjector) Coordinates(rows, cols int, tileID string) (lat, lon [][]float64) {
	bounds, ok := p.tiles[tileID]
	if !ok {
		log.WithFields(logrus.Fields{
			"tile":    tileID,
			"default": p.defaultTile,
		}).Warn("unknown tile id, falling back to default tile")
		bounds = p.tiles[p.defaultTile]
	}

	xs := linspace(bounds.left, bounds.right, cols)
	ys := linspace(bounds.top, bounds.bottom, rows)

	lat = make([][]float64, rows)
	lon = make([][]float64, rows)
	for i := 0; i < rows; i++ {
		lat[i] = make([]float64, cols)
		lon[i] = make([]float64, cols)
		for j := 0; j < cols; j++ {
			lat[i][j], lon[i][j] = inverseSinusoidal(xs[j], ys[i])
		}
	}
	return lat, lon
}

// inverseSinusoidal applies the closed-form inverse of the spherical
// sinusoidal projection.
func inverseSinusoidal(x, y float64) (lat, lon float64) {
	latRad := y / sinusoidalRadius
	lat = latRad * 180 / math.Pi
	cosLat := math.Cos(latRad)
	if cosLat == 0 {
		return lat, 0
	}
	lon = x / (sinusoidalRadius * cosLat) * 180 / math.Pi
	return lat, lon
}

// TileFromGranuleName extracts the hNNvNN token from a granule file name
// like MOD11A1.A2023365.h25v06.061.2024004135620.hdf. Names without a tile
// token yield the projector's default tile.
func (p *SinusoidalProjector) TileFromGranuleName(name string) string {
	start := -1
	for i := 0; i+6 <= len(name); i++ {
		if name[i] != 'h' || name[i+3] != 'v' {
			continue
		}
		if isDigits(name[i+1:i+3]) && isDigits(name[i+4:i+6]) {
			start = i
			break
		}
	}
	if start < 0 {
		return p.defaultTile
	}
	return name[start : start+6]
}

func isDigits(s string) bool {
	if _, err := strconv.Atoi(s); err != nil {
		return false
	}
	return true
}

// linspace returns n evenly spaced samples over [from, to] inclusive.
func linspace(from, to float64, n int) []float64 {
	samples := make([]float64, n)
	if n == 1 {
		samples[0] = from
		return samples
	}
	step := (to - from) / float64(n-1)
	for i := range samples {
		samples[i] = from + float64(i)*step
	}
	return samples
}
