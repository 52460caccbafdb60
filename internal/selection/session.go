package selection

import (
	"context"
	"errors"
	"sync"

	"github.com/USA-RedDragon/pinpoint-server/internal/apis"
	"github.com/USA-RedDragon/pinpoint-server/internal/events"
	"github.com/USA-RedDragon/pinpoint-server/internal/geo"
	"github.com/USA-RedDragon/pinpoint-server/internal/metrics"
	"github.com/USA-RedDragon/pinpoint-server/internal/places"
	"github.com/USA-RedDragon/pinpoint-server/internal/saved"
	"github.com/google/uuid"
)

// Session owns the selection state for one client connection.
//
// Two counters gate every async continuation: selectionSeq invalidates
// everything when a new point is selected, placesSeq additionally
// invalidates just the places lookup when the interest set changes. A
// continuation whose token no longer matches is dropped without touching
// the view.
type Session struct {
	id string
	mu sync.Mutex

	selectionSeq uint64
	placesSeq    uint64

	cancelGeocode context.CancelFunc
	cancelWeather context.CancelFunc
	cancelSummary context.CancelFunc
	cancelPlaces  context.CancelFunc

	coord     geo.Coordinate
	zoom      int
	interests []places.Interest
	view      ViewState

	store     *saved.Store
	providers Providers
	sink      func(Update)
	metrics   *metrics.Metrics
	bus       *events.EventBus
	disabled  bool
}

// NewSession starts an idle session. sink receives one Update per applied
// state change. disabled sessions answer every selection with the
// persistent disabled message and never call a provider.
func NewSession(store *saved.Store, providers Providers, sink func(Update), m *metrics.Metrics, bus *events.EventBus, disabled bool) *Session {
	m.IncrementActiveSessions()
	return &Session{
		id:        uuid.New().String(),
		zoom:      places.DefaultZoom,
		view:      ViewState{Status: StatusIdle},
		store:     store,
		providers: providers,
		sink:      sink,
		metrics:   m,
		bus:       bus,
		disabled:  disabled,
	}
}

func (s *Session) ID() string {
	return s.id
}

// View returns a snapshot of the current state.
func (s *Session) View() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Close invalidates all in-flight work. The session must not be used after.
func (s *Session) Close() {
	s.mu.Lock()
	s.selectionSeq++
	s.cancelAllLocked()
	s.mu.Unlock()
	s.metrics.DecrementActiveSessions()
}

func (s *Session) cancelAllLocked() {
	for _, cancel := range []*context.CancelFunc{&s.cancelGeocode, &s.cancelWeather, &s.cancelSummary, &s.cancelPlaces} {
		if *cancel != nil {
			(*cancel)()
			*cancel = nil
		}
	}
}

func (s *Session) send(update Update) {
	if s.sink != nil {
		s.sink(update)
	}
}

func (s *Session) updateLocked(section string, tok uint64) Update {
	return Update{Section: section, Token: tok, View: s.view}
}

// Select starts a fresh selection at coord and returns its token. Any
// in-flight work for the previous selection is cancelled first; results
// that still arrive are dropped by the token check.
func (s *Session) Select(ctx context.Context, coord geo.Coordinate, zoom int) uint64 {
	s.mu.Lock()
	s.selectionSeq++
	tok := s.selectionSeq
	s.placesSeq++
	ptok := s.placesSeq
	s.cancelAllLocked()
	s.coord = coord
	if zoom > 0 {
		s.zoom = zoom
	}

	if s.disabled {
		s.view = ViewState{Status: StatusError, Message: DisabledMessage, Coordinate: &coord}
		update := s.updateLocked("selection", tok)
		s.mu.Unlock()
		s.send(update)
		return tok
	}

	if hit := s.store.FindCached(coord); hit != nil {
		s.view = viewFromSaved(*hit)
		s.interests = interestsFromGroups(hit.PlacesGroups)
		update := s.updateLocked("selection", tok)
		s.mu.Unlock()

		// Replays refresh the history position but never hit the network.
		s.store.UpsertHistory(*hit)
		s.metrics.IncrementCacheHits()
		s.bus.Publish(events.CacheHitEvent{SessionID: s.id, PlaceID: hit.ID})
		s.send(update)
		return tok
	}

	s.view = ViewState{
		Status:        StatusLoading,
		Coordinate:    &coord,
		SummaryStatus: StatusLoading,
		WeatherStatus: StatusLoading,
		PlacesStatus:  StatusLoading,
	}
	s.interests = []places.Interest{places.DefaultInterest()}
	interests := append([]places.Interest{}, s.interests...)
	zoom = s.zoom

	geocodeCtx, cancelGeocode := context.WithCancel(ctx)
	weatherCtx, cancelWeather := context.WithCancel(ctx)
	placesCtx, cancelPlaces := context.WithCancel(ctx)
	s.cancelGeocode = cancelGeocode
	s.cancelWeather = cancelWeather
	s.cancelPlaces = cancelPlaces
	update := s.updateLocked("selection", tok)
	s.mu.Unlock()

	s.metrics.IncrementSelections()
	s.bus.Publish(events.SelectionStartedEvent{SessionID: s.id, Token: tok, Lat: coord.Lat, Lng: coord.Lng})
	s.send(update)

	go s.fetchWeather(weatherCtx, tok, coord)
	go s.fetchPlaces(placesCtx, tok, ptok, coord, zoom, interests, false)
	go s.resolveAndSummarize(geocodeCtx, tok, coord)

	return tok
}

// AddInterests fetches results for interests not yet shown, leaving the
// existing groups untouched. Only the places token is bumped: a late
// summary or weather result for the same selection still lands.
func (s *Session) AddInterests(ctx context.Context, ids []string) {
	s.mu.Lock()
	if s.disabled || s.view.Coordinate == nil || s.view.CacheReplay {
		s.mu.Unlock()
		return
	}
	tok := s.selectionSeq

	existing := make(map[string]bool, len(s.interests))
	for _, interest := range s.interests {
		existing[interest.ID] = true
	}
	var fresh []places.Interest
	for _, id := range ids {
		if id == "" || existing[id] {
			continue
		}
		fresh = append(fresh, places.ResolveInterest(id))
		existing[id] = true
	}
	if len(fresh) == 0 {
		s.mu.Unlock()
		return
	}
	s.interests = append(s.interests, fresh...)

	// The replacement fetch must cover every interest whose group has not
	// been applied yet, not just the fresh ones: bumping the places token
	// drops any in-flight lookup, and the interests it carried are already
	// recorded so they would never be re-fetched.
	applied := make(map[string]bool, len(s.view.PlacesGroups))
	for _, group := range s.view.PlacesGroups {
		applied[group.ID] = true
	}
	pending := make([]places.Interest, 0, len(s.interests))
	for _, interest := range s.interests {
		if !applied[interest.ID] {
			pending = append(pending, interest)
		}
	}

	s.placesSeq++
	ptok := s.placesSeq
	if s.cancelPlaces != nil {
		s.cancelPlaces()
	}
	placesCtx, cancelPlaces := context.WithCancel(ctx)
	s.cancelPlaces = cancelPlaces
	coord := s.coord
	zoom := s.zoom
	s.view.PlacesStatus = StatusLoading
	update := s.updateLocked("places", tok)
	s.mu.Unlock()
	s.send(update)

	go s.fetchPlaces(placesCtx, tok, ptok, coord, zoom, pending, true)
}

// RefreshWeather re-fetches the forecast for the current selection and, on
// success, folds it into a matching bookmark so saved places stay current.
func (s *Session) RefreshWeather(ctx context.Context) {
	s.mu.Lock()
	if s.disabled || s.view.Coordinate == nil {
		s.mu.Unlock()
		return
	}
	tok := s.selectionSeq
	coord := s.coord
	if s.cancelWeather != nil {
		s.cancelWeather()
	}
	weatherCtx, cancelWeather := context.WithCancel(ctx)
	s.cancelWeather = cancelWeather
	s.view.WeatherStatus = StatusLoading
	s.view.WeatherError = ""
	update := s.updateLocked("weather", tok)
	s.mu.Unlock()
	s.send(update)

	go func() {
		raw, err := s.providers.Weather.Forecast(weatherCtx, coord)
		if dropForCancel(weatherCtx, err) {
			return
		}
		if err != nil {
			s.metrics.IncrementProviderErrors("weather")
			s.apply(tok, "weather", func(v *ViewState) {
				v.WeatherStatus = StatusError
				v.WeatherError = err.Error()
			})
			return
		}
		result := s.apply(tok, "weather", func(v *ViewState) {
			v.Weather = raw
			v.WeatherStatus = StatusReady
			v.WeatherError = ""
		})
		if result != Applied {
			return
		}

		s.mu.Lock()
		title := s.view.Label
		s.mu.Unlock()
		s.store.MergeIntoBookmark(saved.Place{
			ID:            saved.PlaceID(coord.Lat, coord.Lng),
			Title:         title,
			Lat:           coord.Lat,
			Lng:           coord.Lng,
			Weather:       raw,
			WeatherStatus: string(StatusReady),
		})
	}()
}

// apply runs fn against the view if tok is still current, then streams the
// resulting snapshot. Stale continuations are counted and dropped.
func (s *Session) apply(tok uint64, section string, fn func(*ViewState)) ApplyResult {
	s.mu.Lock()
	if tok != s.selectionSeq {
		s.mu.Unlock()
		s.metrics.IncrementStaleDrops(section)
		return Stale
	}
	fn(&s.view)
	update := s.updateLocked(section, tok)
	s.mu.Unlock()
	s.send(update)
	return Applied
}

// applyPlaces additionally checks the places token so an interest change
// invalidates an in-flight lookup without disturbing the other sections.
func (s *Session) applyPlaces(tok, ptok uint64, fn func(*ViewState)) ApplyResult {
	s.mu.Lock()
	if tok != s.selectionSeq || ptok != s.placesSeq {
		s.mu.Unlock()
		s.metrics.IncrementStaleDrops("places")
		return Stale
	}
	fn(&s.view)
	update := s.updateLocked("places", tok)
	s.mu.Unlock()
	s.send(update)
	return Applied
}

// dropForCancel filters the cancellation path: a cancelled lookup is a
// non-event, never an error surfaced to the view.
func dropForCancel(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}

func (s *Session) fetchWeather(ctx context.Context, tok uint64, coord geo.Coordinate) {
	raw, err := s.providers.Weather.Forecast(ctx, coord)
	if dropForCancel(ctx, err) {
		return
	}
	if err != nil {
		s.metrics.IncrementProviderErrors("weather")
		s.apply(tok, "weather", func(v *ViewState) {
			v.WeatherStatus = StatusError
			v.WeatherError = err.Error()
		})
		return
	}
	s.apply(tok, "weather", func(v *ViewState) {
		v.Weather = raw
		v.WeatherStatus = StatusReady
		v.WeatherError = ""
	})
}

func (s *Session) fetchPlaces(ctx context.Context, tok, ptok uint64, coord geo.Coordinate, zoom int, interests []places.Interest, additive bool) {
	result := s.providers.Places.Search(ctx, coord.Lat, coord.Lng, zoom, interests)
	if ctx.Err() != nil {
		return
	}
	if result.Error != "" {
		s.metrics.IncrementProviderErrors("places")
	}
	s.applyPlaces(tok, ptok, func(v *ViewState) {
		if additive {
			v.PlacesGroups = append(append([]places.Group{}, v.PlacesGroups...), result.Groups...)
		} else {
			v.PlacesGroups = result.Groups
		}
		if result.Error != "" {
			v.PlacesStatus = StatusError
			v.PlacesError = result.Error
		} else {
			v.PlacesStatus = StatusReady
			v.PlacesError = ""
		}
	})
}

// resolveAndSummarize is the one strictly ordered chain: the summary prompt
// needs a label, so the summary call starts only after geocoding settles.
// Geocode failure downgrades to the fallback label rather than erroring.
func (s *Session) resolveAndSummarize(ctx context.Context, tok uint64, coord geo.Coordinate) {
	label, err := s.providers.Geocoder.ReverseLabel(ctx, coord)
	if dropForCancel(ctx, err) {
		return
	}
	if err != nil {
		s.metrics.IncrementProviderErrors("geocode")
	}
	if err != nil || label == "" {
		label = FallbackLabel
	}

	// Publish the label and register the summary cancel under the same
	// token check, so a concurrent re-selection can't leak a summary call.
	s.mu.Lock()
	if tok != s.selectionSeq {
		s.mu.Unlock()
		s.metrics.IncrementStaleDrops("label")
		return
	}
	s.view.Label = label
	summaryCtx, cancelSummary := context.WithCancel(ctx)
	s.cancelSummary = cancelSummary
	update := s.updateLocked("label", tok)
	s.mu.Unlock()
	s.send(update)

	summary, err := s.providers.Summarizer.PointSummary(summaryCtx, apis.PointRequest{Coordinate: coord, Label: label})
	if dropForCancel(summaryCtx, err) {
		return
	}
	if err != nil {
		s.metrics.IncrementProviderErrors("summary")
	}
	result := s.apply(tok, "summary", func(v *ViewState) {
		if err != nil {
			v.SummaryStatus = StatusError
			v.SummaryError = err.Error()
		} else {
			v.Summary = summary.Summary
			v.Images = summary.Images
			v.Sources = summary.Sources
			v.SummaryStatus = StatusReady
			v.SummaryError = ""
		}
		// The selection is usable once the summary settles either way;
		// weather and places carry their own per-section status.
		v.Status = StatusReady
	})
	if result == Applied {
		s.snapshot(tok)
	}
}

// snapshot persists the settled view into history (and a matching bookmark
// if one exists). Cache replays are never written back.
func (s *Session) snapshot(tok uint64) {
	s.mu.Lock()
	if tok != s.selectionSeq || s.view.CacheReplay {
		s.mu.Unlock()
		return
	}
	entry := savedFromView(s.coord, s.view)
	label := s.view.Label
	s.mu.Unlock()

	s.store.UpsertHistory(entry)
	if s.store.IsBookmarked(entry) {
		s.store.MergeIntoBookmark(entry)
	}
	s.bus.Publish(events.SelectionReadyEvent{SessionID: s.id, Token: tok, Label: label})
}

func viewFromSaved(place saved.Place) ViewState {
	coord := geo.Coordinate{Lat: place.Lat, Lng: place.Lng}
	view := ViewState{
		Status:        StatusReady,
		Coordinate:    &coord,
		Label:         place.Title,
		Summary:       place.Summary,
		Images:        place.Images,
		Sources:       place.Sources,
		Weather:       place.Weather,
		WeatherStatus: Status(place.WeatherStatus),
		WeatherError:  place.WeatherError,
		PlacesGroups:  place.PlacesGroups,
		PlacesStatus:  Status(place.PlacesStatus),
		PlacesError:   place.PlacesError,
		CacheReplay:   true,
	}
	if place.Summary != "" {
		view.SummaryStatus = StatusReady
	}
	return view
}

func savedFromView(coord geo.Coordinate, view ViewState) saved.Place {
	return saved.Place{
		ID:            saved.PlaceID(coord.Lat, coord.Lng),
		Title:         view.Label,
		Lat:           coord.Lat,
		Lng:           coord.Lng,
		Summary:       view.Summary,
		Images:        view.Images,
		Sources:       view.Sources,
		PlacesGroups:  view.PlacesGroups,
		PlacesStatus:  string(view.PlacesStatus),
		PlacesError:   view.PlacesError,
		Weather:       view.Weather,
		WeatherStatus: string(view.WeatherStatus),
		WeatherError:  view.WeatherError,
	}
}

func interestsFromGroups(groups []places.Group) []places.Interest {
	interests := make([]places.Interest, 0, len(groups))
	for _, group := range groups {
		interests = append(interests, places.Interest{ID: group.ID, Label: group.Label, Query: group.Query})
	}
	return interests
}
