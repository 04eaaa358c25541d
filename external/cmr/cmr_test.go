package cmr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanpulse/resilience-api/schema"
)

var testBounds = schema.Bounds{South: 18.85, North: 19.3, West: 72.75, East: 73.05}

const searchResponse = `{
  "feed": {
    "entry": [
      {
        "title": "MOD11A1.A2026074.h25v06.061.2026076031500",
        "links": [
          {"rel": "http://esipfed.org/ns/fedsearch/1.1/browse#", "href": "https://example.com/browse.jpg"},
          {"rel": "http://esipfed.org/ns/fedsearch/1.1/data#", "href": "https://example.com/MOD11A1.hdf"}
        ]
      },
      {
        "title": "MOD11A1.A2026074.h24v07.061.2026076031501",
        "links": []
      }
    ]
  }
}`

func TestSearchParsesGranules(t *testing.T) {
	var gotQuery map[string][]string
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(searchResponse))
	}))
	defer ts.Close()

	c := New("edl-token", ts.URL, ts.Client())
	date := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

	granules, err := c.Search(context.Background(), "MOD11A1", date, testBounds)
	require.NoError(t, err)
	require.Len(t, granules, 2)

	assert.Equal(t, "MOD11A1.A2026074.h25v06.061.2026076031500", granules[0].Title)
	assert.Equal(t, "https://example.com/MOD11A1.hdf", granules[0].DownloadURL)
	assert.Empty(t, granules[1].DownloadURL)

	assert.Equal(t, "Bearer edl-token", gotAuth)
	assert.Equal(t, []string{"MOD11A1"}, gotQuery["short_name"])
	assert.Equal(t, []string{"72.750000,18.850000,73.050000,19.300000"}, gotQuery["bounding_box"])
	assert.Equal(t, []string{"2026-03-15T00:00:00Z,2026-03-16T00:00:00Z"}, gotQuery["temporal"])
}

func TestSearchNoEntries(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"feed": {"entry": []}}`))
	}))
	defer ts.Close()

	c := New("", ts.URL, ts.Client())
	_, err := c.Search(context.Background(), "OMNO2", time.Now(), testBounds)
	assert.ErrorIs(t, err, ErrNoEntries)
}

func TestSearchNonOKStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	c := New("", ts.URL, ts.Client())
	_, err := c.Search(context.Background(), "GPM_3IMERGDF", time.Now(), testBounds)
	assert.ErrorIs(t, err, ErrResponseStatus)
}
