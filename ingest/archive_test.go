package ingest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanpulse/resilience-api/external/cmr"
	"github.com/urbanpulse/resilience-api/schema"
)

type fakeCatalog struct {
	granules  map[string][]cmr.Granule
	err       error
	lastQuery string
}

func (f *fakeCatalog) Search(_ context.Context, shortName string, _ time.Time, _ schema.Bounds) ([]cmr.Granule, error) {
	f.lastQuery = shortName
	if f.err != nil {
		return nil, f.err
	}
	return f.granules[shortName], nil
}

func writeGranule(t *testing.T, dir, title string, payload interface{}) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, title+".json"), raw, 0644))
}

func TestArchiveFetchLST(t *testing.T) {
	dir := t.TempDir()
	title := "MOD11A1.A2026074.h25v06.061.2026076031500"
	writeGranule(t, dir, title, archivedLST{
		Kelvin: [][]float64{{300, 301}},
		QC:     [][]int64{{0, 2}},
	})

	catalog := &fakeCatalog{granules: map[string][]cmr.Granule{
		ProductLST: {{Title: title}},
	}}
	archive := NewArchive(catalog, dir, testRegion.Bounds)

	granule, err := archive.FetchLST(context.Background(), time.Now(), testRegion.Bounds)
	require.NoError(t, err)
	assert.Equal(t, ProductLST, catalog.lastQuery)
	assert.Equal(t, title, granule.GranuleName)
	assert.Equal(t, [][]float64{{300, 301}}, granule.Kelvin)
	assert.Equal(t, [][]int64{{0, 2}}, granule.QC)
}

func TestArchiveCatalogMissTranslatesToNoGranule(t *testing.T) {
	catalog := &fakeCatalog{err: cmr.ErrNoEntries}
	archive := NewArchive(catalog, t.TempDir(), testRegion.Bounds)

	_, err := archive.FetchNDVI(context.Background(), time.Now(), testRegion.Bounds)
	assert.ErrorIs(t, err, ErrNoGranule)
}

func TestArchiveUnsyncedGranuleIsAbsent(t *testing.T) {
	// Catalog knows the granule but the archive directory has no payload for
	// it yet; the ladder should treat the window as empty.
	catalog := &fakeCatalog{granules: map[string][]cmr.Granule{
		"OMNO2": {{Title: "OMI-Aura_L2-OMNO2_2026m0313"}},
	}}
	archive := NewArchive(catalog, t.TempDir(), testRegion.Bounds)

	_, err := archive.FetchColumn(context.Background(), "OMNO2", time.Now())
	assert.ErrorIs(t, err, ErrNoGranule)
}

func TestArchiveFetchPrecipitation(t *testing.T) {
	dir := t.TempDir()
	title := "3B-DAY.MS.MRG.3IMERG.20260313"
	writeGranule(t, dir, title, archivedPrecip{
		Lats:   []float64{18.9, 19.0},
		Lons:   []float64{72.8, 72.9},
		Values: [][]float64{{4.5, 5.0}, {6.5, 7.0}},
	})

	catalog := &fakeCatalog{granules: map[string][]cmr.Granule{
		ProductPrecipitation: {{Title: title}},
	}}
	archive := NewArchive(catalog, dir, testRegion.Bounds)

	granule, err := archive.FetchPrecipitation(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, []float64{18.9, 19.0}, granule.Lats)
	assert.Equal(t, 7.0, granule.Values[1][1])
}
