package places_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/USA-RedDragon/pinpoint-server/internal/places"
)

func TestNormalizeLocalResults(t *testing.T) {
	t.Parallel()

	payload := []byte(`{
		"local_results": [
			{"title": "Louvre Museum", "rating": 4.7, "reviews": 281000, "type": "Art museum", "address": "Rue de Rivoli", "thumbnail": "https://example.com/louvre.jpg", "link": "https://louvre.fr"},
			{"title": "Musée d'Orsay", "rating": "4.7", "reviews": "108,350", "type": "Museum"},
			{"rating": 4.2, "reviews": 12}
		]
	}`)

	items := places.Normalize(payload)
	if len(items) != 2 {
		t.Fatalf("expected 2 items (the titleless entry discarded), got %d", len(items))
	}

	louvre := items[0]
	if louvre.Title != "Louvre Museum" {
		t.Errorf("expected Louvre Museum, got %s", louvre.Title)
	}
	if louvre.Rating.Float64Value() != 4.7 {
		t.Errorf("expected rating 4.7, got %f", louvre.Rating.Float64Value())
	}
	if louvre.ReviewsCount.Int64Value() != 281000 {
		t.Errorf("expected 281000 reviews, got %d", louvre.ReviewsCount.Int64Value())
	}
	if louvre.Address != "Rue de Rivoli" {
		t.Errorf("expected address, got %s", louvre.Address)
	}
	if louvre.ThumbnailURL != "https://example.com/louvre.jpg" {
		t.Errorf("expected thumbnail, got %s", louvre.ThumbnailURL)
	}

	// String-typed rating and comma-formatted review count still parse.
	orsay := items[1]
	if orsay.Rating.Float64Value() != 4.7 {
		t.Errorf("expected parsed string rating 4.7, got %f", orsay.Rating.Float64Value())
	}
	if orsay.ReviewsCount.Int64Value() != 108350 {
		t.Errorf("expected parsed 108350 reviews, got %d", orsay.ReviewsCount.Int64Value())
	}
}

func TestNormalizeAlternateShapes(t *testing.T) {
	t.Parallel()

	// "results" array with "name"/"stars"/"user_ratings_total" attributes.
	payload := []byte(`{
		"results": [
			{"name": "Eiffel Tower", "stars": 4.8, "user_ratings_total": 350000, "types": ["tourist_attraction", "point_of_interest"], "vicinity": "Champ de Mars"}
		]
	}`)
	items := places.Normalize(payload)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Title != "Eiffel Tower" {
		t.Errorf("expected Eiffel Tower, got %s", items[0].Title)
	}
	if items[0].Rating.Float64Value() != 4.8 {
		t.Errorf("expected rating from stars, got %f", items[0].Rating.Float64Value())
	}
	if items[0].Category != "tourist_attraction" {
		t.Errorf("expected first entry of types array, got %s", items[0].Category)
	}
	if items[0].Address != "Champ de Mars" {
		t.Errorf("expected vicinity as address, got %s", items[0].Address)
	}

	// Array nested one level deeper.
	payload = []byte(`{"local_results": {"places": [{"title": "Arc de Triomphe"}]}}`)
	items = places.Normalize(payload)
	if len(items) != 1 || items[0].Title != "Arc de Triomphe" {
		t.Errorf("expected nested places array to normalize, got %+v", items)
	}

	// Unrecognized payloads and non-JSON degrade to empty, never panic.
	if items := places.Normalize([]byte(`{"answers": []}`)); len(items) != 0 {
		t.Errorf("expected no items for unknown shape, got %d", len(items))
	}
	if items := places.Normalize([]byte(`not json`)); len(items) != 0 {
		t.Errorf("expected no items for invalid JSON, got %d", len(items))
	}
}

func TestNormalizeCap(t *testing.T) {
	t.Parallel()

	var entries []string
	for i := 0; i < 30; i++ {
		entries = append(entries, fmt.Sprintf(`{"title": "Place %d"}`, i))
	}
	payload := []byte(`{"results": [` + strings.Join(entries, ",") + `]}`)

	items := places.Normalize(payload)
	if len(items) != places.MaxItemsPerGroup {
		t.Errorf("expected cap of %d items, got %d", places.MaxItemsPerGroup, len(items))
	}
	if items[0].Title != "Place 0" {
		t.Errorf("expected input order preserved, got %s first", items[0].Title)
	}
}
