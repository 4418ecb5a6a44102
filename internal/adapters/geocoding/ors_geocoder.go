package geocoding

import (
	"context"
	"delivery-manifest-service/internal/domain"
	"delivery-manifest-service/internal/platform/httpx"
	"delivery-manifest-service/internal/platform/obs"
	"delivery-manifest-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNoResult is returned when the geocoding service has no match for an address.
var ErrNoResult = errors.New("no geocode result")

// ORSGeocoder implements ports.Geocoder using the OpenRouteService search API.
// Results are persisted in a GeocodeCache keyed by the normalized address.
type ORSGeocoder struct {
	client  *httpx.Client
	apiKey  string
	baseURL string
	country string
	cache   ports.GeocodeCache
	logger  *zap.Logger
}

var _ ports.Geocoder = (*ORSGeocoder)(nil)

type Option func(*ORSGeocoder)

// Override the API base URL (used by tests).
func WithBaseURL(u string) Option {
	return func(o *ORSGeocoder) { o.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(c *httpx.Client) Option {
	return func(o *ORSGeocoder) { o.client = c }
}

func NewORSGeocoder(
	apiKey string,
	cache ports.GeocodeCache,
	logger *zap.Logger,
	opts ...Option,
) (*ORSGeocoder, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &ORSGeocoder{
		client:  httpx.NewClient(10 * time.Second),
		apiKey:  apiKey,
		baseURL: "https://api.openrouteservice.org",
		country: "BR",
		cache:   cache,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// normalize ensures consistent cache keys by collapsing whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// Resolve a single address, consulting the cache first.
func (g *ORSGeocoder) Geocode(ctx context.Context, address string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.Geocode")(&err)

	norm := normalize(address)
	if norm == "" {
		return domain.Coordinates{}, errors.New("geocode: address must be non-empty")
	}

	if g.cache != nil {
		cached, err := g.cache.GetMany(ctx, []string{norm})
		if err != nil {
			g.logger.Warn("geocode cache read failed", zap.Error(err))
		} else if c, ok := cached[norm]; ok {
			return c, nil
		}
	}

	c, err := g.search(ctx, norm)
	if err != nil {
		return domain.Coordinates{}, err
	}

	if g.cache != nil {
		if err := g.cache.PutMany(ctx, map[string]domain.Coordinates{norm: c}); err != nil {
			g.logger.Warn("geocode cache write failed", zap.Error(err))
		}
	}
	return c, nil
}

func (g *ORSGeocoder) search(ctx context.Context, norm string) (domain.Coordinates, error) {
	endpoint := g.baseURL + "/geocode/search"

	resp, err := g.client.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", g.apiKey)
		req.Header.Set("Accept", "application/json")

		q := req.URL.Query()
		q.Set("text", norm)
		q.Set("boundary.country", g.country)
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", norm, err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", norm, ErrNoResult)
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, fmt.Errorf("invalid coordinate format for %q", norm)
	}

	return domain.Coordinates{Lon: coords[0], Lat: coords[1]}, nil
}
