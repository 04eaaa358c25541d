package cmr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/urbanpulse/resilience-api/schema"
)

const (
	defaultURL      = "https://cmr.earthdata.nasa.gov/search/granules.json"
	defaultPageSize = "10"
	dataLinkRel     = "http://esipfed.org/ns/fedsearch/1.1/data#"
)

var (
	ErrResponseStatus = fmt.Errorf("granule search returned non-ok status")
	ErrNoEntries      = fmt.Errorf("no granules matched the query")
)

// Granule is one catalog entry returned by a search.
type Granule struct {
	Title       string
	DownloadURL string
}

// CMR searches the NASA common metadata repository for granules of a product
// over a bounding box and day.
type CMR interface {
	Search(ctx context.Context, shortName string, date time.Time, bounds schema.Bounds) ([]Granule, error)
}

type client struct {
	token      string
	url        string
	httpClient *http.Client
}

type entryLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

type feedEntry struct {
	Title string      `json:"title"`
	Links []entryLink `json:"links"`
}

type jsonResponse struct {
	Feed struct {
		Entry []feedEntry `json:"entry"`
	} `json:"feed"`
}

func (c *client) Search(ctx context.Context, shortName string, date time.Time, bounds schema.Bounds) ([]Granule, error) {
	day := date.UTC().Truncate(24 * time.Hour)

	query := url.Values{}
	query.Set("short_name", shortName)
	query.Set("temporal", fmt.Sprintf("%s,%s",
		day.Format(time.RFC3339),
		day.Add(24*time.Hour).Format(time.RFC3339)))
	query.Set("bounding_box", fmt.Sprintf("%f,%f,%f,%f",
		bounds.West, bounds.South, bounds.East, bounds.North))
	query.Set("page_size", defaultPageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	d, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrResponseStatus, resp.StatusCode)
	}

	var r jsonResponse
	if err := json.Unmarshal(d, &r); err != nil {
		return nil, err
	}
	if len(r.Feed.Entry) == 0 {
		return nil, ErrNoEntries
	}

	granules := make([]Granule, 0, len(r.Feed.Entry))
	for _, entry := range r.Feed.Entry {
		granules = append(granules, Granule{
			Title:       entry.Title,
			DownloadURL: downloadLink(entry.Links),
		})
	}
	return granules, nil
}

func downloadLink(links []entryLink) string {
	for _, l := range links {
		if l.Rel == dataLinkRel {
			return l.Href
		}
	}
	return ""
}

// New builds a catalog client. token is the Earthdata bearer token and may be
// empty for anonymous search; url overrides the production endpoint.
func New(token string, url string, httpClient *http.Client) CMR {
	u := defaultURL
	if url != "" {
		u = url
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &client{
		token:      token,
		url:        u,
		httpClient: httpClient,
	}
}
