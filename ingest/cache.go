package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/urbanpulse/resilience-api/schema"
)

// Cache stores produced rasters on the local filesystem. File names embed
// the source name and observation date, so concurrent sources never collide
// on the shared directory.
type Cache struct {
	dir string
}

// NewCache creates the cache directory when needed.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory %s: %w", dir, err)
	}
	return &Cache{dir: dir}, nil
}

// cacheFloat marshals NaN as null so masked cells survive the JSON round
// trip. encoding/json rejects NaN outright, and every raster that went
// through QC or plausibility filtering carries NaN in rejected cells.
type cacheFloat float64

func (f cacheFloat) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(f)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

func (f *cacheFloat) UnmarshalJSON(raw []byte) error {
	if string(raw) == "null" {
		*f = cacheFloat(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*f = cacheFloat(v)
	return nil
}

// cacheRaster mirrors schema.GeoRaster with NaN-tolerant value cells.
// Coordinate arrays stay plain floats, they are never masked.
type cacheRaster struct {
	Source string         `json:"source"`
	Unit   string         `json:"unit"`
	Values [][]cacheFloat `json:"values"`
	Lat1D  []float64      `json:"lat_1d,omitempty"`
	Lon1D  []float64      `json:"lon_1d,omitempty"`
	Lat2D  [][]float64    `json:"lat_2d,omitempty"`
	Lon2D  [][]float64    `json:"lon_2d,omitempty"`
}

type cacheEntry struct {
	Raster   *cacheRaster `json:"raster"`
	Coverage float64      `json:"coverage"`
}

func encodeRaster(r *schema.GeoRaster) *cacheRaster {
	out := &cacheRaster{
		Source: r.Source,
		Unit:   r.Unit,
		Values: make([][]cacheFloat, len(r.Values)),
		Lat1D:  r.Lat1D,
		Lon1D:  r.Lon1D,
		Lat2D:  r.Lat2D,
		Lon2D:  r.Lon2D,
	}
	for i, row := range r.Values {
		out.Values[i] = make([]cacheFloat, len(row))
		for j, v := range row {
			out.Values[i][j] = cacheFloat(v)
		}
	}
	return out
}

func (cr *cacheRaster) decode() *schema.GeoRaster {
	out := &schema.GeoRaster{
		Source: cr.Source,
		Unit:   cr.Unit,
		Values: make([][]float64, len(cr.Values)),
		Lat1D:  cr.Lat1D,
		Lon1D:  cr.Lon1D,
		Lat2D:  cr.Lat2D,
		Lon2D:  cr.Lon2D,
	}
	for i, row := range cr.Values {
		out.Values[i] = make([]float64, len(row))
		for j, v := range row {
			out.Values[i][j] = float64(v)
		}
	}
	return out
}

func (c *Cache) path(source string, date time.Time) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s.json", source, date.Format("2006-01-02")))
}

// Get returns the cached raster for a source and date, if present.
func (c *Cache) Get(source string, date time.Time) (*schema.GeoRaster, float64, bool) {
	raw, err := os.ReadFile(c.path(source, date))
	if err != nil {
		return nil, 0, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		log.WithError(err).WithField("source", source).Warn("discarding unreadable cache entry")
		return nil, 0, false
	}
	if entry.Raster == nil {
		return nil, 0, false
	}
	raster := entry.Raster.decode()
	if raster.Validate() != nil {
		return nil, 0, false
	}
	return raster, entry.Coverage, true
}

// Put writes a raster for a source and date. Write goes through a temp file
// and rename so readers never observe a partial entry.
func (c *Cache) Put(source string, date time.Time, raster *schema.GeoRaster, coverage float64) error {
	raw, err := json.Marshal(cacheEntry{Raster: encodeRaster(raster), Coverage: coverage})
	if err != nil {
		return fmt.Errorf("encoding cache entry for %s: %w", source, err)
	}

	final := c.path(source, date)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return fmt.Errorf("writing cache entry for %s: %w", source, err)
	}
	return os.Rename(tmp, final)
}
