package saved_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/USA-RedDragon/pinpoint-server/internal/geo"
	"github.com/USA-RedDragon/pinpoint-server/internal/saved"
	"github.com/USA-RedDragon/pinpoint-server/internal/storage"
)

type fakeStorage struct {
	mu      sync.Mutex
	data    map[string][]byte
	failing bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{data: map[string][]byte{}}
}

func (f *fakeStorage) Load(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return nil, fmt.Errorf("backend down")
	}
	data, ok := f.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (f *fakeStorage) Save(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return fmt.Errorf("backend down")
	}
	f.data[key] = value
	return nil
}

func (f *fakeStorage) Close() error {
	return nil
}

var (
	eiffelTower = saved.Place{ID: "48.8584,2.2945", Title: "Eiffel Tower", Lat: 48.8584, Lng: 2.2945}
	louvre      = saved.Place{ID: "48.8606,2.3376", Title: "Louvre Museum", Lat: 48.8606, Lng: 2.3376}
	versailles  = saved.Place{ID: "48.8049,2.1204", Title: "Palace of Versailles", Lat: 48.8049, Lng: 2.1204}
)

func TestPlaceID(t *testing.T) {
	t.Parallel()

	if id := saved.PlaceID(48.8584, 2.2945); id != "48.8584,2.2945" {
		t.Errorf("unexpected id: %s", id)
	}
	if id := saved.PlaceID(48.85843219, 2.29451101); id != "48.8584,2.2945" {
		t.Errorf("expected rounding to 4 decimals, got %s", id)
	}
}

func TestDedupe(t *testing.T) {
	t.Parallel()

	// Second entry is 45 m from the first with a different name; third is
	// the same name 5 km out. Both collapse into the first.
	near := saved.Place{ID: "near", Title: "Tower Plaza", Lat: eiffelTower.Lat + 0.0004, Lng: eiffelTower.Lng}
	sameName := saved.Place{ID: "far", Title: "eiffel  tower", Lat: eiffelTower.Lat + 0.045, Lng: eiffelTower.Lng}

	deduped := saved.Dedupe([]saved.Place{eiffelTower, near, sameName, louvre})
	if len(deduped) != 2 {
		t.Fatalf("expected 2 entries after dedupe, got %d", len(deduped))
	}
	if deduped[0].ID != eiffelTower.ID || deduped[1].ID != louvre.ID {
		t.Errorf("expected first occurrences to win, got %+v", deduped)
	}

	// Idempotent
	again := saved.Dedupe(deduped)
	if len(again) != 2 {
		t.Errorf("expected dedupe to be idempotent, got %d entries", len(again))
	}
}

func TestUpsertHistory(t *testing.T) {
	t.Parallel()

	store := saved.NewStore(context.Background(), newFakeStorage())

	store.UpsertHistory(eiffelTower)
	store.UpsertHistory(louvre)

	history := store.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if history[0].ID != louvre.ID {
		t.Errorf("expected most recent entry first, got %s", history[0].ID)
	}

	// Re-upserting an equivalent place merges and moves it to the front
	// instead of duplicating it.
	revisit := eiffelTower
	revisit.Summary = "Wrought-iron lattice tower on the Champ de Mars."
	store.UpsertHistory(revisit)

	history = store.History()
	if len(history) != 2 {
		t.Fatalf("expected merge, not insert, got %d entries", len(history))
	}
	if history[0].ID != eiffelTower.ID || history[0].Summary == "" {
		t.Errorf("expected merged Eiffel Tower at the front, got %+v", history[0])
	}

	// A fresh entry missing a field keeps the older value.
	bare := saved.Place{ID: eiffelTower.ID, Title: eiffelTower.Title, Lat: eiffelTower.Lat, Lng: eiffelTower.Lng}
	store.UpsertHistory(bare)
	if store.History()[0].Summary == "" {
		t.Errorf("expected existing summary preserved through merge")
	}
}

func TestUpsertHistoryRefreshesSavedAt(t *testing.T) {
	t.Parallel()

	store := saved.NewStore(context.Background(), newFakeStorage())

	// A replayed bookmark arrives with its original savedAt; the history
	// entry records the visit time instead.
	replayed := eiffelTower
	replayed.SavedAt = time.Now().Add(-time.Hour)
	store.UpsertHistory(replayed)

	if got := store.History()[0].SavedAt; !got.After(replayed.SavedAt) {
		t.Errorf("expected savedAt stamped at upsert time, got %v", got)
	}
}

func TestUpsertHistoryCap(t *testing.T) {
	t.Parallel()

	store := saved.NewStore(context.Background(), newFakeStorage())

	// Spread entries >10 km apart so none of them merge.
	for i := 0; i < saved.HistoryLimit+10; i++ {
		store.UpsertHistory(saved.Place{
			ID:    fmt.Sprintf("entry-%d", i),
			Title: fmt.Sprintf("Place %d", i),
			Lat:   float64(i),
			Lng:   0,
		})
	}

	history := store.History()
	if len(history) != saved.HistoryLimit {
		t.Fatalf("expected history capped at %d, got %d", saved.HistoryLimit, len(history))
	}
	if history[0].ID != fmt.Sprintf("entry-%d", saved.HistoryLimit+9) {
		t.Errorf("expected newest entry at the front, got %s", history[0].ID)
	}
}

func TestToggleBookmark(t *testing.T) {
	t.Parallel()

	store := saved.NewStore(context.Background(), newFakeStorage())

	if !store.ToggleBookmark(eiffelTower) {
		t.Errorf("expected first toggle to bookmark")
	}
	if !store.IsBookmarked(eiffelTower) {
		t.Errorf("expected place to be bookmarked")
	}

	// Toggling an equivalent place (same landmark, slightly different
	// click) removes the bookmark.
	nearby := eiffelTower
	nearby.Lat += 0.0004
	if store.ToggleBookmark(nearby) {
		t.Errorf("expected second toggle to remove the bookmark")
	}
	if len(store.Bookmarks()) != 0 {
		t.Errorf("expected no bookmarks left")
	}
}

func TestMergeIntoBookmark(t *testing.T) {
	t.Parallel()

	store := saved.NewStore(context.Background(), newFakeStorage())
	store.ToggleBookmark(eiffelTower)
	savedAt := store.Bookmarks()[0].SavedAt

	time.Sleep(5 * time.Millisecond)
	update := eiffelTower
	update.Weather = []byte(`{"current":{"temperature_2m":21.5}}`)
	update.WeatherStatus = "ready"
	store.MergeIntoBookmark(update)

	bookmarks := store.Bookmarks()
	if len(bookmarks) != 1 {
		t.Fatalf("expected 1 bookmark, got %d", len(bookmarks))
	}
	if len(bookmarks[0].Weather) == 0 || bookmarks[0].WeatherStatus != "ready" {
		t.Errorf("expected weather merged into bookmark, got %+v", bookmarks[0])
	}
	if !bookmarks[0].SavedAt.Equal(savedAt) {
		t.Errorf("expected savedAt preserved by merge")
	}

	// Merging into a place that is not bookmarked must not create one.
	store.MergeIntoBookmark(versailles)
	if len(store.Bookmarks()) != 1 {
		t.Errorf("expected merge to never create bookmarks")
	}
}

func TestFindCached(t *testing.T) {
	t.Parallel()

	store := saved.NewStore(context.Background(), newFakeStorage())
	store.UpsertHistory(eiffelTower)

	// 45 m away: cache hit.
	hit := store.FindCached(geo.Coordinate{Lat: eiffelTower.Lat + 0.0004, Lng: eiffelTower.Lng})
	if hit == nil || hit.ID != eiffelTower.ID {
		t.Fatalf("expected cache hit for nearby click, got %+v", hit)
	}

	// 5 km away: the strict cache rule says no, even though the list rule
	// would have merged a same-named entry.
	miss := store.FindCached(geo.Coordinate{Lat: eiffelTower.Lat + 0.045, Lng: eiffelTower.Lng})
	if miss != nil {
		t.Errorf("expected no cache hit 5 km away, got %+v", miss)
	}

	// Bookmarks win over history.
	bookmark := eiffelTower
	bookmark.Summary = "bookmark copy"
	store.ToggleBookmark(bookmark)
	hit = store.FindCached(geo.Coordinate{Lat: eiffelTower.Lat, Lng: eiffelTower.Lng})
	if hit == nil || hit.Summary != "bookmark copy" {
		t.Errorf("expected the bookmark to answer first, got %+v", hit)
	}
}

func TestClearAll(t *testing.T) {
	t.Parallel()

	store := saved.NewStore(context.Background(), newFakeStorage())
	store.ToggleBookmark(eiffelTower)
	store.UpsertHistory(louvre)

	store.ClearAll()
	if len(store.Bookmarks()) != 0 || len(store.History()) != 0 {
		t.Errorf("expected both lists cleared")
	}
}

func TestStorageFailuresAreSoft(t *testing.T) {
	t.Parallel()

	st := newFakeStorage()
	st.failing = true
	store := saved.NewStore(context.Background(), st)

	// Every mutation still works against the in-memory lists.
	store.UpsertHistory(eiffelTower)
	store.ToggleBookmark(louvre)
	if len(store.History()) != 1 || len(store.Bookmarks()) != 1 {
		t.Errorf("expected in-memory lists to survive a dead backend")
	}
}

func TestCorruptDataStartsEmpty(t *testing.T) {
	t.Parallel()

	st := newFakeStorage()
	st.data[storage.BookmarksKey] = []byte(`{"not": "a list"`)
	st.data[storage.HistoryKey] = []byte(`42`)

	store := saved.NewStore(context.Background(), st)
	if len(store.Bookmarks()) != 0 || len(store.History()) != 0 {
		t.Errorf("expected corrupt payloads to degrade to empty lists")
	}
}

func TestLoadDedupes(t *testing.T) {
	t.Parallel()

	st := newFakeStorage()
	st.data[storage.HistoryKey] = []byte(`[
		{"id": "48.8584,2.2945", "title": "Eiffel Tower", "lat": 48.8584, "lng": 2.2945},
		{"id": "48.8588,2.2945", "title": "Tour Eiffel Plaza", "lat": 48.8588, "lng": 2.2945}
	]`)

	store := saved.NewStore(context.Background(), st)
	history := store.History()
	if len(history) != 1 || history[0].ID != "48.8584,2.2945" {
		t.Errorf("expected duplicates collapsed on load with the first entry winning, got %+v", history)
	}
}
