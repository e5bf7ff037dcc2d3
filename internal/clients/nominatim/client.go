package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dpup/saferoute/server/internal/lib/geo"
)

const (
	// DefaultBaseURL is the public OpenStreetMap Nominatim instance
	DefaultBaseURL = "https://nominatim.openstreetmap.org"
	// DefaultLimit is the number of search results requested
	DefaultLimit = 6
	// MinQueryLength is the shortest query sent upstream
	MinQueryLength = 3

	// viewboxSpan biases results to roughly 10km around the user
	viewboxSpan = 0.1
)

// HTTPDoer is the subset of http.Client used by the geocoder
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ResultCache stores lookup results between requests
type ResultCache interface {
	Load(key string, result interface{}) bool
	Store(key string, value interface{})
}

// Result is a candidate destination
type Result struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Coords      geo.Point `json:"coords"`
	Type        string    `json:"type"`
}

// Client provides place search and reverse geocoding against Nominatim
type Client struct {
	baseURL     string
	userAgent   string
	limit       int
	httpClient  HTTPDoer
	cache       ResultCache
	minInterval time.Duration

	throttle    sync.Mutex
	lastRequest time.Time
}

// NewClient creates a new Nominatim client
func NewClient(baseURL, userAgent string, limit int) *Client {
	return NewClientWithHTTPDoer(baseURL, userAgent, limit, &http.Client{
		Timeout: 10 * time.Second,
	})
}

// NewClientWithHTTPDoer creates a client with a custom HTTP implementation
func NewClientWithHTTPDoer(baseURL, userAgent string, limit int, httpClient HTTPDoer) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		limit:      limit,
		httpClient: httpClient,
	}
}

// WithCache enables result caching
func (c *Client) WithCache(cache ResultCache) *Client {
	c.cache = cache
	return c
}

// WithMinInterval spaces upstream requests at least d apart. The public
// instance allows one request per second.
func (c *Client) WithMinInterval(d time.Duration) *Client {
	c.minInterval = d
	return c
}

// nominatimPlace is a single entry of the /search response
type nominatimPlace struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Type        string `json:"type"`
}

type nominatimReverse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// Search looks up places matching query. Queries shorter than three
// characters return no results without a request. When near is set results
// are biased towards it but not restricted to it.
func (c *Client) Search(ctx context.Context, query string, near *geo.Point) ([]Result, error) {
	if utf8.RuneCountInString(query) < MinQueryLength {
		return []Result{}, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(c.limit))
	params.Set("addressdetails", "1")
	if near != nil {
		params.Set("viewbox", fmt.Sprintf("%.6f,%.6f,%.6f,%.6f",
			near.Longitude-viewboxSpan, near.Latitude+viewboxSpan,
			near.Longitude+viewboxSpan, near.Latitude-viewboxSpan))
		params.Set("bounded", "0")
	}

	cacheKey := "search|" + params.Encode()
	var results []Result
	if c.cache != nil && c.cache.Load(cacheKey, &results) {
		return results, nil
	}

	var places []nominatimPlace
	if err := c.getJSON(ctx, "/search", params, &places); err != nil {
		return nil, err
	}

	results = make([]Result, 0, len(places))
	for _, place := range places {
		result, err := place.toResult()
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	if c.cache != nil {
		c.cache.Store(cacheKey, results)
	}
	return results, nil
}

// Reverse returns the display name of the place at p, or "" when Nominatim
// has nothing there
func (c *Client) Reverse(ctx context.Context, p geo.Point) (string, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(p.Latitude, 'f', 6, 64))
	params.Set("lon", strconv.FormatFloat(p.Longitude, 'f', 6, 64))
	params.Set("format", "json")

	cacheKey := "reverse|" + params.Encode()
	var name string
	if c.cache != nil && c.cache.Load(cacheKey, &name) {
		return name, nil
	}

	var response nominatimReverse
	if err := c.getJSON(ctx, "/reverse", params, &response); err != nil {
		return "", err
	}

	if c.cache != nil {
		c.cache.Store(cacheKey, response.DisplayName)
	}
	return response.DisplayName, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	requestURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("rate limit exceeded")
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// wait blocks until the minimum interval since the previous request has passed
func (c *Client) wait(ctx context.Context) error {
	if c.minInterval <= 0 {
		return nil
	}

	c.throttle.Lock()
	defer c.throttle.Unlock()

	if delay := c.minInterval - time.Since(c.lastRequest); delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	c.lastRequest = time.Now()
	return nil
}

func (p nominatimPlace) toResult() (Result, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return Result{}, fmt.Errorf("invalid latitude %q: %w", p.Lat, err)
	}
	lng, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return Result{}, fmt.Errorf("invalid longitude %q: %w", p.Lon, err)
	}

	name := p.Name
	if name == "" {
		name = strings.TrimSpace(strings.SplitN(p.DisplayName, ",", 2)[0])
	}
	placeType := p.Type
	if placeType == "" {
		placeType = "place"
	}

	return Result{
		Name:        name,
		DisplayName: p.DisplayName,
		Coords:      geo.Point{Latitude: lat, Longitude: lng},
		Type:        placeType,
	}, nil
}
