package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/USA-RedDragon/pinpoint-server/internal/apis"
	"github.com/USA-RedDragon/pinpoint-server/internal/config"
	"github.com/USA-RedDragon/pinpoint-server/internal/events"
	"github.com/USA-RedDragon/pinpoint-server/internal/places"
	"github.com/USA-RedDragon/pinpoint-server/internal/saved"
	"github.com/gin-gonic/gin"
)

type fakeSearch struct {
	payload []byte
	err     error
}

func (f fakeSearch) SearchLocal(_ context.Context, _, _ string) ([]byte, error) {
	return f.payload, f.err
}

func newRouter(store *saved.Store, clients *apis.Clients, aggregator *places.Aggregator, bus *events.EventBus) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("store", store)
		c.Set("clients", clients)
		c.Set("aggregator", aggregator)
		c.Set("bus", bus)
		c.Next()
	})
	v1 := r.Group("/v1")
	v1.POST("/places", POSTPlaces)
	v1.POST("/weather", POSTWeather)
	v1.POST("/ai/point", POSTAIPoint)
	v1.POST("/ai/city", POSTAICity)
	v1.GET("/image", GETImage)
	v1.GET("/saved/bookmarks", GETBookmarks)
	v1.POST("/saved/bookmarks", POSTBookmarkToggle)
	v1.GET("/saved/history", GETHistory)
	v1.DELETE("/saved", DELETESaved)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, req)
	return recorder
}

func emptyStore(t *testing.T) *saved.Store {
	t.Helper()
	return saved.NewStore(context.Background(), nil)
}

func TestPOSTPlaces(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"local_results":[
		{"title":"Cafe de Flore","rating":4.2,"reviews":900,"type":"Cafe","address":"172 Bd Saint-Germain"},
		{"title":"Shakespeare and Company","rating":4.6,"reviews":12000,"type":"Book store","address":"37 Rue de la Bucherie"}
	]}`)
	aggregator := places.NewAggregator(fakeSearch{payload: payload}, 0)
	r := newRouter(emptyStore(t), nil, aggregator, events.NewEventBus())

	recorder := doJSON(t, r, http.MethodPost, "/v1/places", map[string]any{
		"lat": 48.8584, "lng": 2.2945, "zoom": 14, "interests": []string{"food"},
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body: %s", recorder.Code, recorder.Body.String())
	}

	var result places.Result
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result.Groups) != 1 {
		t.Fatalf("unexpected group count: %d", len(result.Groups))
	}
	if result.Groups[0].ID != "food" {
		t.Errorf("unexpected group id: %s", result.Groups[0].ID)
	}
	if len(result.Groups[0].Places) != 2 {
		t.Errorf("unexpected place count: %d", len(result.Groups[0].Places))
	}
}

func TestPOSTPlacesAnchorAndObjectInterests(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"local_results":[{"title":"Louvre","rating":4.7,"reviews":200000}]}`)
	aggregator := places.NewAggregator(fakeSearch{payload: payload}, 0)
	r := newRouter(emptyStore(t), nil, aggregator, events.NewEventBus())

	recorder := doJSON(t, r, http.MethodPost, "/v1/places", map[string]any{
		"ll": "@48.8584,2.2945,15z",
		"interests": []any{
			map[string]any{"id": "art", "query": "art galleries"},
			"museums",
		},
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body: %s", recorder.Code, recorder.Body.String())
	}

	var result places.Result
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result.Groups) != 2 {
		t.Fatalf("unexpected group count: %d", len(result.Groups))
	}
	if result.Groups[0].ID != "art" || result.Groups[0].Query != "art galleries" {
		t.Errorf("unexpected first group: %+v", result.Groups[0])
	}
	if result.Groups[1].ID != "museums" {
		t.Errorf("unexpected second group: %+v", result.Groups[1])
	}

	recorder = doJSON(t, r, http.MethodPost, "/v1/places", map[string]any{
		"ll":        "48.8584,2.2945",
		"interests": []any{"museums"},
	})
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("malformed anchor: unexpected status %d", recorder.Code)
	}
}

func TestPOSTPlacesValidation(t *testing.T) {
	t.Parallel()

	aggregator := places.NewAggregator(fakeSearch{payload: []byte(`{}`)}, 0)
	r := newRouter(emptyStore(t), nil, aggregator, events.NewEventBus())

	recorder := doJSON(t, r, http.MethodPost, "/v1/places", map[string]any{
		"lat": 91.0, "lng": 2.2945, "interests": []string{"food"},
	})
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("out-of-range latitude: unexpected status %d", recorder.Code)
	}

	recorder = doJSON(t, r, http.MethodPost, "/v1/places", map[string]any{
		"lat": 48.8584, "lng": 2.2945,
	})
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("missing interests: unexpected status %d", recorder.Code)
	}
}

func TestPOSTWeather(t *testing.T) {
	t.Parallel()

	forecast := `{"current":{"temperature_2m":21.5}}`
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(forecast))
	}))
	defer upstream.Close()

	clients := apis.NewClients(&config.Config{
		Providers: config.Providers{
			TimeoutSeconds: 5,
			Weather:        config.Weather{URL: upstream.URL},
		},
	})
	r := newRouter(emptyStore(t), clients, nil, events.NewEventBus())

	recorder := doJSON(t, r, http.MethodPost, "/v1/weather", map[string]any{"lat": 48.8584, "lng": 2.2945})
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	if recorder.Body.String() != forecast {
		t.Errorf("forecast was not passed through: %s", recorder.Body.String())
	}
}

func TestPOSTWeatherUpstreamFailure(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	clients := apis.NewClients(&config.Config{
		Providers: config.Providers{
			TimeoutSeconds: 5,
			Weather:        config.Weather{URL: upstream.URL},
		},
	})
	r := newRouter(emptyStore(t), clients, nil, events.NewEventBus())

	recorder := doJSON(t, r, http.MethodPost, "/v1/weather", map[string]any{"lat": 48.8584, "lng": 2.2945})
	if recorder.Code != http.StatusBadGateway {
		t.Errorf("unexpected status: %d", recorder.Code)
	}
}

func TestPOSTAIPoint(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"The Eiffel Tower area."}}],"citations":["https://example.com"]}`))
	}))
	defer upstream.Close()

	clients := apis.NewClients(&config.Config{
		Providers: config.Providers{
			TimeoutSeconds: 5,
			Perplexity:     config.Perplexity{URL: upstream.URL, APIKey: "test", Model: "sonar"},
		},
	})
	r := newRouter(emptyStore(t), clients, nil, events.NewEventBus())

	recorder := doJSON(t, r, http.MethodPost, "/v1/ai/point", map[string]any{
		"lat": 48.8584, "lng": 2.2945, "bestLabel": "Paris, France",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body: %s", recorder.Code, recorder.Body.String())
	}

	var summary apis.Summary
	if err := json.Unmarshal(recorder.Body.Bytes(), &summary); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if summary.Summary != "The Eiffel Tower area." {
		t.Errorf("unexpected summary: %s", summary.Summary)
	}
}

func TestPOSTAIPointRequiresLabel(t *testing.T) {
	t.Parallel()

	r := newRouter(emptyStore(t), apis.NewClients(&config.Config{}), nil, events.NewEventBus())
	recorder := doJSON(t, r, http.MethodPost, "/v1/ai/point", map[string]any{"lat": 48.8584, "lng": 2.2945})
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("unexpected status: %d", recorder.Code)
	}
}

func TestPOSTAICityRequiresName(t *testing.T) {
	t.Parallel()

	r := newRouter(emptyStore(t), apis.NewClients(&config.Config{}), nil, events.NewEventBus())
	recorder := doJSON(t, r, http.MethodPost, "/v1/ai/city", map[string]any{"cc": "FR"})
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("unexpected status: %d", recorder.Code)
	}
}

func TestGETImageRejectsBadTargets(t *testing.T) {
	t.Parallel()

	r := newRouter(emptyStore(t), nil, nil, events.NewEventBus())

	recorder := doJSON(t, r, http.MethodGet, "/v1/image", nil)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("missing url: unexpected status %d", recorder.Code)
	}

	recorder = doJSON(t, r, http.MethodGet, "/v1/image?url=ftp%3A%2F%2Fexample.com%2Fa.png", nil)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("ftp scheme: unexpected status %d", recorder.Code)
	}

	// httptest servers bind to loopback, which the proxy must refuse.
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
	}))
	defer upstream.Close()

	recorder = doJSON(t, r, http.MethodGet, "/v1/image?url="+upstream.URL+"/a.png", nil)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("loopback target: unexpected status %d", recorder.Code)
	}
}

func TestSavedEndpoints(t *testing.T) {
	t.Parallel()

	store := emptyStore(t)
	r := newRouter(store, nil, nil, events.NewEventBus())

	entry := map[string]any{"title": "Eiffel Tower", "lat": 48.8584, "lng": 2.2945}

	recorder := doJSON(t, r, http.MethodPost, "/v1/saved/bookmarks", entry)
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body: %s", recorder.Code, recorder.Body.String())
	}
	var toggle struct {
		Bookmarked bool `json:"bookmarked"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &toggle); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !toggle.Bookmarked {
		t.Error("expected place to be bookmarked")
	}

	recorder = doJSON(t, r, http.MethodGet, "/v1/saved/bookmarks", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	var bookmarks struct {
		Bookmarks []saved.Place `json:"bookmarks"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &bookmarks); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(bookmarks.Bookmarks) != 1 {
		t.Fatalf("unexpected bookmark count: %d", len(bookmarks.Bookmarks))
	}
	if bookmarks.Bookmarks[0].ID != "48.8584,2.2945" {
		t.Errorf("unexpected derived id: %s", bookmarks.Bookmarks[0].ID)
	}

	// Toggling the same place again removes it.
	recorder = doJSON(t, r, http.MethodPost, "/v1/saved/bookmarks", entry)
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &toggle); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if toggle.Bookmarked {
		t.Error("expected bookmark to be removed")
	}

	store.UpsertHistory(saved.Place{ID: "48.8584,2.2945", Title: "Eiffel Tower", Lat: 48.8584, Lng: 2.2945})
	recorder = doJSON(t, r, http.MethodGet, "/v1/saved/history", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	var history struct {
		History []saved.Place `json:"history"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &history); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(history.History) != 1 {
		t.Fatalf("unexpected history count: %d", len(history.History))
	}

	recorder = doJSON(t, r, http.MethodDelete, "/v1/saved", nil)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if len(store.History()) != 0 || len(store.Bookmarks()) != 0 {
		t.Error("expected both lists to be empty after clear")
	}
}

func TestIsPublicIP(t *testing.T) {
	t.Parallel()

	cases := []struct {
		ip     string
		public bool
	}{
		{"127.0.0.1", false},
		{"10.1.2.3", false},
		{"172.16.0.1", false},
		{"192.168.1.1", false},
		{"169.254.0.1", false},
		{"0.0.0.0", false},
		{"::1", false},
		{"fe80::1", false},
		{"93.184.216.34", true},
		{"2606:2800:220:1::1", true},
	}
	for _, testCase := range cases {
		ip := net.ParseIP(testCase.ip)
		if ip == nil {
			t.Fatalf("failed to parse IP %s", testCase.ip)
		}
		if got := isPublicIP(ip); got != testCase.public {
			t.Errorf("isPublicIP(%s) = %v, want %v", testCase.ip, got, testCase.public)
		}
	}
}
