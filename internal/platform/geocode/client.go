package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	nominatimURL = "https://nominatim.openstreetmap.org/search"
	userAgent    = "CareMatchAI/1.0"
)

type coordinates struct {
	lat, lon float64
	ok       bool
}

// Client resolves location names through Nominatim. Results, including
// misses, are memoized in an injected process-lifetime cache.
type Client struct {
	httpClient *http.Client
	cache      *gocache.Cache
}

func NewClient(cache *gocache.Cache) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 4 * time.Second,
		},
		cache: cache,
	}
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (c *Client) Geocode(ctx context.Context, location string) (float64, float64, bool, error) {
	key := strings.ToLower(strings.TrimSpace(location))
	if key == "" {
		return 0, 0, false, nil
	}

	if cached, found := c.cache.Get("geocode:" + key); found {
		coords := cached.(coordinates)
		return coords.lat, coords.lon, coords.ok, nil
	}

	query := url.Values{}
	query.Set("q", location)
	query.Set("format", "json")
	query.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, "GET", nominatimURL+"?"+query.Encode(), nil)
	if err != nil {
		return 0, 0, false, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, 0, false, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, false, fmt.Errorf("geocode api returned status: %s", resp.Status)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return 0, 0, false, fmt.Errorf("geocode decode failed: %w", err)
	}

	if len(results) == 0 {
		c.cache.Set("geocode:"+key, coordinates{}, gocache.NoExpiration)
		return 0, 0, false, nil
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		c.cache.Set("geocode:"+key, coordinates{}, gocache.NoExpiration)
		return 0, 0, false, nil
	}

	c.cache.Set("geocode:"+key, coordinates{lat: lat, lon: lon, ok: true}, gocache.NoExpiration)
	return lat, lon, true, nil
}
