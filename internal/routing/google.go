package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avirmani/fleet-manager/internal/domain"
)

const defaultTimeout = 10 * time.Second

// GoogleClient calls the Google Directions API with waypoint optimization.
type GoogleClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewGoogleClient builds a Directions client. baseURL is typically
// https://maps.googleapis.com but is injectable for tests.
func NewGoogleClient(baseURL, apiKey string) *GoogleClient {
	return &GoogleClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

type directionsResponse struct {
	Status string `json:"status"`
	Routes []struct {
		WaypointOrder []int `json:"waypoint_order"`
		Legs          []struct {
			Distance struct {
				Value float64 `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value float64 `json:"value"`
			} `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

func formatPoint(p domain.Point) string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lon)
}

// Optimize requests an optimized driving route. An unreachable pair, an
// empty result set or a provider timeout all surface as domain.ErrNoRoute
// so callers abort planning instead of persisting a partial route.
func (c *GoogleClient) Optimize(ctx context.Context, req OptimizeRequest) (OptimizeResult, error) {
	q := url.Values{}
	q.Set("origin", formatPoint(req.Origin))
	dest := req.Destination
	if req.RoundTrip {
		dest = req.Origin
	}
	q.Set("destination", formatPoint(dest))
	if len(req.Waypoints) > 0 {
		parts := make([]string, 0, len(req.Waypoints)+1)
		parts = append(parts, "optimize:true")
		for _, w := range req.Waypoints {
			parts = append(parts, formatPoint(w))
		}
		q.Set("waypoints", strings.Join(parts, "|"))
	}
	q.Set("key", c.apiKey)

	u := c.baseURL + "/maps/api/directions/json?" + q.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return OptimizeResult{}, fmt.Errorf("routing.GoogleClient.Optimize: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return OptimizeResult{}, fmt.Errorf("%w: directions request failed: %v", domain.ErrNoRoute, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return OptimizeResult{}, fmt.Errorf("%w: directions returned status %d", domain.ErrNoRoute, resp.StatusCode)
	}

	var body directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return OptimizeResult{}, fmt.Errorf("%w: malformed directions response: %v", domain.ErrNoRoute, err)
	}
	if body.Status != "OK" || len(body.Routes) == 0 {
		return OptimizeResult{}, fmt.Errorf("%w: directions status %q", domain.ErrNoRoute, body.Status)
	}

	route := body.Routes[0]
	if len(route.Legs) != len(req.Waypoints)+1 {
		return OptimizeResult{}, fmt.Errorf("%w: expected %d legs, got %d", domain.ErrNoRoute, len(req.Waypoints)+1, len(route.Legs))
	}

	out := OptimizeResult{
		WaypointOrder: route.WaypointOrder,
		Legs:          make([]Leg, 0, len(route.Legs)),
	}
	if len(out.WaypointOrder) == 0 && len(req.Waypoints) > 0 {
		// Some responses omit waypoint_order for a single waypoint.
		for i := range req.Waypoints {
			out.WaypointOrder = append(out.WaypointOrder, i)
		}
	}
	for _, l := range route.Legs {
		out.Legs = append(out.Legs, Leg{
			DistanceMeters:  l.Distance.Value,
			DurationSeconds: l.Duration.Value,
		})
	}
	return out, nil
}
