package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/urbanpulse/resilience-api/external/cmr"
	"github.com/urbanpulse/resilience-api/schema"
)

// Product short names in the NASA catalog.
const (
	ProductLST           = "MOD11A1"
	ProductNDVI          = "MOD13A2"
	ProductPrecipitation = "GPM_3IMERGDF"
)

// Archive resolves granules in two steps: the catalog names the granule
// covering the region and date, then the payload is read from a local
// directory of decoded granules kept in sync by an external download job.
// A granule the catalog knows but the archive has not synced yet counts as
// absent, so the date ladder moves on to older, already-synced windows.
type Archive struct {
	catalog cmr.CMR
	dir     string
	bounds  schema.Bounds
}

func NewArchive(catalog cmr.CMR, dir string, bounds schema.Bounds) *Archive {
	return &Archive{catalog: catalog, dir: dir, bounds: bounds}
}

type archivedLST struct {
	Kelvin [][]float64 `json:"kelvin"`
	QC     [][]int64   `json:"qc"`
}

type archivedNDVI struct {
	ScaledNDVI [][]float64 `json:"scaled_ndvi"`
}

type archivedSwath struct {
	Lats   []float64 `json:"lats"`
	Lons   []float64 `json:"lons"`
	Values []float64 `json:"values"`
}

type archivedPrecip struct {
	Lats   []float64   `json:"lats"`
	Lons   []float64   `json:"lons"`
	Values [][]float64 `json:"values"`
}

func (a *Archive) FetchLST(ctx context.Context, date time.Time, bounds schema.Bounds) (*LSTGranule, error) {
	title, err := a.resolve(ctx, ProductLST, date, bounds)
	if err != nil {
		return nil, err
	}
	var payload archivedLST
	if err := a.load(title, &payload); err != nil {
		return nil, err
	}
	return &LSTGranule{GranuleName: title, Kelvin: payload.Kelvin, QC: payload.QC}, nil
}

func (a *Archive) FetchNDVI(ctx context.Context, date time.Time, bounds schema.Bounds) (*NDVIGranule, error) {
	title, err := a.resolve(ctx, ProductNDVI, date, bounds)
	if err != nil {
		return nil, err
	}
	var payload archivedNDVI
	if err := a.load(title, &payload); err != nil {
		return nil, err
	}
	return &NDVIGranule{GranuleName: title, ScaledNDVI: payload.ScaledNDVI}, nil
}

func (a *Archive) FetchColumn(ctx context.Context, product string, date time.Time) (*SwathGranule, error) {
	title, err := a.resolve(ctx, product, date, a.bounds)
	if err != nil {
		return nil, err
	}
	var payload archivedSwath
	if err := a.load(title, &payload); err != nil {
		return nil, err
	}
	return &SwathGranule{Lats: payload.Lats, Lons: payload.Lons, Values: payload.Values}, nil
}

func (a *Archive) FetchPrecipitation(ctx context.Context, date time.Time) (*PrecipGranule, error) {
	title, err := a.resolve(ctx, ProductPrecipitation, date, a.bounds)
	if err != nil {
		return nil, err
	}
	var payload archivedPrecip
	if err := a.load(title, &payload); err != nil {
		return nil, err
	}
	return &PrecipGranule{Lats: payload.Lats, Lons: payload.Lons, Values: payload.Values}, nil
}

// resolve asks the catalog for the first granule of the product covering the
// bounds on the given day.
func (a *Archive) resolve(ctx context.Context, product string, date time.Time, bounds schema.Bounds) (string, error) {
	granules, err := a.catalog.Search(ctx, product, date, bounds)
	if errors.Is(err, cmr.ErrNoEntries) {
		return "", ErrNoGranule
	}
	if err != nil {
		return "", fmt.Errorf("searching %s granules: %w", product, err)
	}
	return granules[0].Title, nil
}

func (a *Archive) load(title string, out interface{}) error {
	path := filepath.Join(a.dir, title+".json")
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.WithFields(logrus.Fields{
			"granule": title,
			"path":    path,
		}).Warn("granule known to catalog but not synced to archive")
		return ErrNoGranule
	}
	if err != nil {
		return fmt.Errorf("reading archived granule %s: %w", title, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding archived granule %s: %w", title, err)
	}
	return nil
}
