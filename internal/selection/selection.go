// Package selection orchestrates everything that happens after a map click:
// reverse geocoding, weather, the AI summary, and nearby places, each racing
// on its own goroutine while a monotonic token keeps late results from a
// previous click out of the current view.
package selection

import (
	"context"
	"encoding/json"

	"github.com/USA-RedDragon/pinpoint-server/internal/apis"
	"github.com/USA-RedDragon/pinpoint-server/internal/geo"
	"github.com/USA-RedDragon/pinpoint-server/internal/places"
)

// Status tracks a section (or the whole selection) through its lifecycle.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// FallbackLabel stands in when reverse geocoding fails; the summary prompt
// still needs something to talk about.
const FallbackLabel = "Selected location"

// DisabledMessage is the persistent error shown while the service runs
// without a map token.
const DisabledMessage = "Map selections are disabled: no map token is configured"

// ViewState is the full client-facing state of one selection. Every update
// carries a complete snapshot so consumers never have to patch.
type ViewState struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`

	Coordinate *geo.Coordinate `json:"coordinate,omitempty"`
	Label      string          `json:"label,omitempty"`

	Summary       string   `json:"summary,omitempty"`
	Images        []string `json:"images,omitempty"`
	Sources       []string `json:"sources,omitempty"`
	SummaryStatus Status   `json:"summaryStatus,omitempty"`
	SummaryError  string   `json:"summaryError,omitempty"`

	Weather       json.RawMessage `json:"weather,omitempty"`
	WeatherStatus Status          `json:"weatherStatus,omitempty"`
	WeatherError  string          `json:"weatherError,omitempty"`

	PlacesGroups []places.Group `json:"placesGroups,omitempty"`
	PlacesStatus Status         `json:"placesStatus,omitempty"`
	PlacesError  string         `json:"placesError,omitempty"`

	// CacheReplay marks views rebuilt from a saved place rather than
	// fetched. Replayed views are never snapshotted back into storage.
	CacheReplay bool `json:"cacheReplay"`
}

// Update is one streamed state change.
type Update struct {
	Section string    `json:"section"`
	Token   uint64    `json:"token"`
	View    ViewState `json:"view"`
}

// ApplyResult says whether an async continuation landed in the live view or
// was dropped as stale.
type ApplyResult int

const (
	Applied ApplyResult = iota
	Stale
)

// Geocoder resolves a coordinate to a short label.
type Geocoder interface {
	ReverseLabel(ctx context.Context, coord geo.Coordinate) (string, error)
}

// WeatherProvider fetches a provider-shaped forecast.
type WeatherProvider interface {
	Forecast(ctx context.Context, coord geo.Coordinate) (json.RawMessage, error)
}

// Summarizer writes the AI summary for a labeled point.
type Summarizer interface {
	PointSummary(ctx context.Context, req apis.PointRequest) (apis.Summary, error)
}

// PlaceSearcher aggregates interest groups around a point.
type PlaceSearcher interface {
	Search(ctx context.Context, lat, lng float64, zoom int, interests []places.Interest) places.Result
}

// Providers bundles the four upstream dependencies of a session.
type Providers struct {
	Geocoder   Geocoder
	Weather    WeatherProvider
	Summarizer Summarizer
	Places     PlaceSearcher
}
