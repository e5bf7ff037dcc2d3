package nominatim

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dpup/saferoute/server/internal/lib/geo"
)

// MockHTTPDoer is a mock implementation of HTTPDoer
type MockHTTPDoer struct {
	mock.Mock
}

func (m *MockHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*http.Response)
	return resp, args.Error(1)
}

// memoryCache is a map-backed ResultCache
type memoryCache struct {
	values map[string]interface{}
}

func (m *memoryCache) Load(key string, result interface{}) bool {
	v, ok := m.values[key]
	if !ok {
		return false
	}
	switch out := result.(type) {
	case *[]Result:
		*out = v.([]Result)
	case *string:
		*out = v.(string)
	}
	return true
}

func (m *memoryCache) Store(key string, value interface{}) {
	m.values[key] = value
}

func loadTestFixture(t *testing.T, filename string) string {
	data, err := os.ReadFile("testdata/" + filename)
	require.NoError(t, err, "Failed to load test fixture %s", filename)
	return string(data)
}

func createMockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestSearch(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		q := req.URL.Query()
		return req.URL.Path == "/search" &&
			q.Get("q") == "central park" &&
			q.Get("format") == "json" &&
			q.Get("limit") == "6" &&
			q.Get("addressdetails") == "1" &&
			q.Get("viewbox") == "" &&
			req.Header.Get("User-Agent") == "SafeRoute test"
	})).Return(createMockResponse(200, loadTestFixture(t, "search_central_park.json")), nil).Once()

	client := NewClientWithHTTPDoer("https://nominatim.example.org/", "SafeRoute test", 0, mockHTTP)

	results, err := client.Search(context.Background(), "central park", nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Central Park", results[0].Name)
	assert.Equal(t, "park", results[0].Type)
	assert.InDelta(t, 40.7827725, results[0].Coords.Latitude, 1e-9)
	assert.InDelta(t, -73.9653627, results[0].Coords.Longitude, 1e-9)

	// Missing name and type fall back to the display name and "place"
	assert.Equal(t, "59 Street-Columbus Circle", results[1].Name)
	assert.Equal(t, "place", results[1].Type)

	mockHTTP.AssertExpectations(t)
}

func TestSearch_ViewboxAroundUser(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		q := req.URL.Query()
		return q.Get("viewbox") == "-74.100000,40.800000,-73.900000,40.600000" && q.Get("bounded") == "0"
	})).Return(createMockResponse(200, "[]"), nil).Once()

	client := NewClientWithHTTPDoer("", "", 6, mockHTTP)

	results, err := client.Search(context.Background(), "coffee", &geo.Point{Latitude: 40.7, Longitude: -74.0})
	require.NoError(t, err)
	assert.Empty(t, results)
	mockHTTP.AssertExpectations(t)
}

func TestSearch_ShortQuery(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	client := NewClientWithHTTPDoer("", "", 6, mockHTTP)

	for _, q := range []string{"", "a", "ab", "日本"} {
		results, err := client.Search(context.Background(), q, nil)
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	}
	mockHTTP.AssertNotCalled(t, "Do", mock.Anything)
}

func TestSearch_Errors(t *testing.T) {
	tests := []struct {
		name     string
		response *http.Response
		err      error
		contains string
	}{
		{"transport", nil, errors.New("connection refused"), "failed to execute request"},
		{"rate limited", createMockResponse(429, ""), nil, "rate limit exceeded"},
		{"server error", createMockResponse(503, "down"), nil, "API error 503: down"},
		{"bad json", createMockResponse(200, "{"), nil, "failed to decode response"},
		{"bad coordinate", createMockResponse(200, `[{"lat":"north","lon":"1"}]`), nil, "invalid latitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockHTTP := &MockHTTPDoer{}
			mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).Return(tt.response, tt.err)

			client := NewClientWithHTTPDoer("", "", 6, mockHTTP)
			_, err := client.Search(context.Background(), "somewhere", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestSearch_Cached(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).
		Return(createMockResponse(200, loadTestFixture(t, "search_central_park.json")), nil).Once()

	client := NewClientWithHTTPDoer("", "", 6, mockHTTP).WithCache(&memoryCache{values: map[string]interface{}{}})

	first, err := client.Search(context.Background(), "central park", nil)
	require.NoError(t, err)
	second, err := client.Search(context.Background(), "central park", nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	mockHTTP.AssertNumberOfCalls(t, "Do", 1)
}

func TestReverse(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		q := req.URL.Query()
		return req.URL.Path == "/reverse" && q.Get("lat") == "40.748400" && q.Get("lon") == "-73.985700"
	})).Return(createMockResponse(200, `{"display_name":"Empire State Building, 350, 5th Avenue, Manhattan"}`), nil).Once()

	client := NewClientWithHTTPDoer("", "", 6, mockHTTP).WithCache(&memoryCache{values: map[string]interface{}{}})

	name, err := client.Reverse(context.Background(), geo.Point{Latitude: 40.7484, Longitude: -73.9857})
	require.NoError(t, err)
	assert.Equal(t, "Empire State Building, 350, 5th Avenue, Manhattan", name)

	// Second lookup is served from cache
	name, err = client.Reverse(context.Background(), geo.Point{Latitude: 40.7484, Longitude: -73.9857})
	require.NoError(t, err)
	assert.Equal(t, "Empire State Building, 350, 5th Avenue, Manhattan", name)
	mockHTTP.AssertExpectations(t)
}

func TestReverse_NothingThere(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).
		Return(createMockResponse(200, `{"error":"Unable to geocode"}`), nil)

	client := NewClientWithHTTPDoer("", "", 6, mockHTTP)
	name, err := client.Reverse(context.Background(), geo.Point{Latitude: 0, Longitude: 0})
	require.NoError(t, err)
	assert.Equal(t, "", name)
}

func TestMinInterval_RespectsContext(t *testing.T) {
	mockHTTP := &MockHTTPDoer{}
	mockHTTP.On("Do", mock.AnythingOfType("*http.Request")).
		Return(createMockResponse(200, "[]"), nil).Once()

	client := NewClientWithHTTPDoer("", "", 6, mockHTTP).WithMinInterval(time.Hour)

	_, err := client.Search(context.Background(), "first", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Search(ctx, "second", nil)
	assert.ErrorIs(t, err, context.Canceled)
	mockHTTP.AssertExpectations(t)
}
