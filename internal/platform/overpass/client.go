package overpass

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"carematch/internal/facility"
)

const (
	userAgent = "CareMatchAI/1.0"
	// OSM element ids are offset to avoid colliding with repository ids.
	idOffset = 900000000

	defaultRating  = 4.0
	defaultAvgCost = 3000
)

var defaultEndpoints = []string{
	"https://overpass-api.de/api/interpreter",
	"https://overpass.kumi.systems/api/interpreter",
	"https://lz4.overpass-api.de/api/interpreter",
}

// Client fetches hospitals around a coordinate from the Overpass API,
// failing over across mirrors and widening the search radius when a query
// comes back empty.
type Client struct {
	endpoints  []string
	httpClient *http.Client
}

func NewClient() *Client {
	return &Client{
		endpoints: defaultEndpoints,
		httpClient: &http.Client{
			Timeout: 12 * time.Second,
		},
	}
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *overpassCenter   `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c *Client) Nearby(ctx context.Context, lat, lon float64, radiusM, limit int) ([]facility.Facility, error) {
	var payload overpassResponse
	for _, radius := range []int{radiusM, radiusM * 2, radiusM * 3} {
		result, err := c.runQuery(ctx, buildQuery(lat, lon, radius))
		if err != nil {
			return nil, err
		}
		payload = result
		if len(payload.Elements) > 0 {
			break
		}
	}

	facilities := make([]facility.Facility, 0, len(payload.Elements))
	for _, element := range payload.Elements {
		elementLat, elementLon, ok := element.coordinates()
		if !ok {
			continue
		}

		name := element.Tags["name"]
		if name == "" {
			name = "Nearby Hospital"
		}

		distanceKm := round2(facility.HaversineKm(lat, lon, elementLat, elementLon))
		facilityLat, facilityLon := elementLat, elementLon

		facilities = append(facilities, facility.Facility{
			ID:               element.ID + idOffset,
			Name:             name,
			Location:         assembleAddress(element.Tags),
			Rating:           defaultRating,
			AvgCost:          defaultAvgCost,
			EmergencyCapable: element.Tags["emergency"] == "yes",
			Latitude:         &facilityLat,
			Longitude:        &facilityLon,
			DistanceKm:       &distanceKm,
			Source:           "overpass",
		})
	}

	sort.SliceStable(facilities, func(i, j int) bool {
		return *facilities[i].DistanceKm < *facilities[j].DistanceKm
	})
	if len(facilities) > limit {
		facilities = facilities[:limit]
	}
	return facilities, nil
}

// runQuery tries each mirror in order; the first parseable response wins.
func (c *Client) runQuery(ctx context.Context, query string) (overpassResponse, error) {
	var lastErr error
	for _, endpoint := range c.endpoints {
		req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBufferString(query))
		if err != nil {
			return overpassResponse{}, err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Content-Type", "text/plain; charset=utf-8")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		var payload overpassResponse
		err = json.NewDecoder(resp.Body).Decode(&payload)
		resp.Body.Close()
		if err != nil || resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("overpass endpoint %s failed: status %s, err %v", endpoint, resp.Status, err)
			continue
		}
		return payload, nil
	}
	return overpassResponse{}, fmt.Errorf("all overpass endpoints failed: %w", lastErr)
}

func (e overpassElement) coordinates() (float64, float64, bool) {
	if e.Lat != nil && e.Lon != nil {
		return *e.Lat, *e.Lon, true
	}
	if e.Center != nil {
		return e.Center.Lat, e.Center.Lon, true
	}
	return 0, 0, false
}

func assembleAddress(tags map[string]string) string {
	var parts []string
	for _, key := range []string{"addr:street", "addr:city", "addr:state"} {
		if tags[key] != "" {
			parts = append(parts, tags[key])
		}
	}
	if len(parts) == 0 {
		return "Near your location"
	}
	return strings.Join(parts, ", ")
}

func buildQuery(lat, lon float64, radiusM int) string {
	return fmt.Sprintf(`[out:json][timeout:20];
(
  node["amenity"="hospital"](around:%d,%f,%f);
  way["amenity"="hospital"](around:%d,%f,%f);
  relation["amenity"="hospital"](around:%d,%f,%f);
  node["healthcare"="hospital"](around:%d,%f,%f);
  way["healthcare"="hospital"](around:%d,%f,%f);
  relation["healthcare"="hospital"](around:%d,%f,%f);
);
out center tags;`,
		radiusM, lat, lon, radiusM, lat, lon, radiusM, lat, lon,
		radiusM, lat, lon, radiusM, lat, lon, radiusM, lat, lon)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
