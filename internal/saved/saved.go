// Package saved keeps the user's bookmarked and recently viewed places and
// persists them through the storage layer. Persistence is best effort: a
// broken backend degrades to in-memory lists, never to an error surfaced to
// the caller.
package saved

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/USA-RedDragon/pinpoint-server/internal/geo"
	"github.com/USA-RedDragon/pinpoint-server/internal/places"
	"github.com/USA-RedDragon/pinpoint-server/internal/storage"
	"github.com/go-errors/errors"
)

// HistoryLimit caps the history list. The oldest entries fall off the end.
const HistoryLimit = 40

// Place is one saved map selection with whatever sections had settled when
// it was snapshotted.
type Place struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Lat           float64         `json:"lat"`
	Lng           float64         `json:"lng"`
	Summary       string          `json:"summary,omitempty"`
	Images        []string        `json:"images,omitempty"`
	Sources       []string        `json:"sources,omitempty"`
	PlacesGroups  []places.Group  `json:"placesGroups,omitempty"`
	PlacesStatus  string          `json:"placesStatus,omitempty"`
	PlacesError   string          `json:"placesError,omitempty"`
	Weather       json.RawMessage `json:"weather,omitempty"`
	WeatherStatus string          `json:"weatherStatus,omitempty"`
	WeatherError  string          `json:"weatherError,omitempty"`
	SavedAt       time.Time       `json:"savedAt"`
}

// PlaceID derives the stable identifier for a coordinate, rounded to four
// decimals (roughly 11 m of latitude).
func PlaceID(lat, lng float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lng)
}

func (p Place) coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: p.Lat, Lng: p.Lng}
}

func samePlace(a, b Place) bool {
	return geo.SameForLists(a.coordinate(), a.Title, b.coordinate(), b.Title)
}

// Dedupe collapses entries that identify the same place. The first
// occurrence wins, order is otherwise preserved.
func Dedupe(list []Place) []Place {
	deduped := make([]Place, 0, len(list))
	for _, candidate := range list {
		duplicate := false
		for _, kept := range deduped {
			if samePlace(kept, candidate) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			deduped = append(deduped, candidate)
		}
	}
	return deduped
}

// merge lays entry over base field by field; entry wins wherever it has a
// value. savedAt is handled by the callers.
func merge(base, entry Place) Place {
	merged := base
	merged.ID = entry.ID
	merged.Lat = entry.Lat
	merged.Lng = entry.Lng
	if entry.Title != "" {
		merged.Title = entry.Title
	}
	if entry.Summary != "" {
		merged.Summary = entry.Summary
	}
	if len(entry.Images) > 0 {
		merged.Images = entry.Images
	}
	if len(entry.Sources) > 0 {
		merged.Sources = entry.Sources
	}
	if len(entry.PlacesGroups) > 0 {
		merged.PlacesGroups = entry.PlacesGroups
	}
	if entry.PlacesStatus != "" {
		merged.PlacesStatus = entry.PlacesStatus
	}
	if entry.PlacesError != "" {
		merged.PlacesError = entry.PlacesError
	}
	if len(entry.Weather) > 0 {
		merged.Weather = entry.Weather
	}
	if entry.WeatherStatus != "" {
		merged.WeatherStatus = entry.WeatherStatus
	}
	if entry.WeatherError != "" {
		merged.WeatherError = entry.WeatherError
	}
	return merged
}

// Store holds the bookmark and history lists behind a mutex.
type Store struct {
	mu        sync.RWMutex
	storage   storage.Storage
	bookmarks []Place
	history   []Place
}

// NewStore loads both lists from storage. Missing or corrupt data starts
// the store empty.
func NewStore(ctx context.Context, st storage.Storage) *Store {
	store := &Store{
		storage:   st,
		bookmarks: []Place{},
		history:   []Place{},
	}
	store.bookmarks = loadList(ctx, st, storage.BookmarksKey)
	store.history = loadList(ctx, st, storage.HistoryKey)
	return store
}

func loadList(ctx context.Context, st storage.Storage, key string) []Place {
	if st == nil {
		return []Place{}
	}
	data, err := st.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("failed to load saved places", "key", key, "error", err.Error())
		}
		return []Place{}
	}
	var list []Place
	if err := json.Unmarshal(data, &list); err != nil {
		slog.Warn("corrupt saved places data, starting empty", "key", key, "error", err.Error())
		return []Place{}
	}
	return Dedupe(list)
}

// persist re-reads the named list and writes it out asynchronously; callers
// never wait on or observe storage failures.
func (s *Store) persist(key string) {
	if s.storage == nil {
		return
	}
	go func() {
		s.mu.RLock()
		var list []Place
		switch key {
		case storage.BookmarksKey:
			list = append([]Place{}, s.bookmarks...)
		case storage.HistoryKey:
			list = append([]Place{}, s.history...)
		}
		s.mu.RUnlock()

		data, err := json.Marshal(list)
		if err != nil {
			slog.Error("failed to encode saved places", "key", key, "error", err.Error())
			return
		}
		if err := s.storage.Save(context.Background(), key, data); err != nil {
			slog.Error("failed to persist saved places", "key", key, "error", err.Error())
		}
	}()
}

// Bookmarks returns a copy of the bookmark list.
func (s *Store) Bookmarks() []Place {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Place{}, s.bookmarks...)
}

// History returns a copy of the history list, most recent first.
func (s *Store) History() []Place {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Place{}, s.history...)
}

// FindCached returns the newest saved view close enough to the coordinate
// to answer for it, bookmarks before history. Nil when nothing matches.
func (s *Store) FindCached(coord geo.Coordinate) *Place {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, list := range [][]Place{s.bookmarks, s.history} {
		for _, place := range list {
			if geo.SameForCache(place.coordinate(), coord) {
				hit := place
				return &hit
			}
		}
	}
	return nil
}

// UpsertHistory merges the entry into any matching history item and moves
// it to the front, or inserts it at the front, then trims to HistoryLimit.
func (s *Store) UpsertHistory(entry Place) {
	s.mu.Lock()
	merged := entry
	rest := make([]Place, 0, len(s.history))
	for _, existing := range s.history {
		if samePlace(existing, entry) {
			merged = merge(existing, entry)
			continue
		}
		rest = append(rest, existing)
	}
	// Upserts always stamp the visit time, even when the entry carries an
	// older savedAt from a bookmark or a replayed cache hit.
	merged.SavedAt = time.Now()
	s.history = append([]Place{merged}, rest...)
	if len(s.history) > HistoryLimit {
		s.history = s.history[:HistoryLimit]
	}
	s.mu.Unlock()

	s.persist(storage.HistoryKey)
}

// IsBookmarked reports whether a place equivalent to the entry is
// bookmarked.
func (s *Store) IsBookmarked(entry Place) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, bookmark := range s.bookmarks {
		if samePlace(bookmark, entry) {
			return true
		}
	}
	return false
}

// ToggleBookmark adds the entry to bookmarks, or removes the matching
// bookmark if one exists. Returns true when the place is bookmarked after
// the call.
func (s *Store) ToggleBookmark(entry Place) bool {
	s.mu.Lock()
	removed := false
	rest := make([]Place, 0, len(s.bookmarks))
	for _, bookmark := range s.bookmarks {
		if samePlace(bookmark, entry) {
			removed = true
			continue
		}
		rest = append(rest, bookmark)
	}
	if removed {
		s.bookmarks = rest
	} else {
		entry.SavedAt = time.Now()
		s.bookmarks = append([]Place{entry}, rest...)
	}
	s.mu.Unlock()

	s.persist(storage.BookmarksKey)
	return !removed
}

// MergeIntoBookmark folds fresher section data into an existing bookmark,
// keeping its original savedAt. A place that is not bookmarked is left
// alone.
func (s *Store) MergeIntoBookmark(entry Place) {
	s.mu.Lock()
	changed := false
	for i, bookmark := range s.bookmarks {
		if samePlace(bookmark, entry) {
			savedAt := bookmark.SavedAt
			s.bookmarks[i] = merge(bookmark, entry)
			s.bookmarks[i].SavedAt = savedAt
			changed = true
			break
		}
	}
	s.mu.Unlock()

	if changed {
		s.persist(storage.BookmarksKey)
	}
}

// ClearAll empties both lists.
func (s *Store) ClearAll() {
	s.mu.Lock()
	s.bookmarks = []Place{}
	s.history = []Place{}
	s.mu.Unlock()

	s.persist(storage.BookmarksKey)
	s.persist(storage.HistoryKey)
}
