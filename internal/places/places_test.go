package places_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/USA-RedDragon/pinpoint-server/internal/places"
)

type fakeProvider struct {
	payloads map[string][]byte
	errs     map[string]error
	anchors  []string
}

func (f *fakeProvider) SearchLocal(_ context.Context, query, ll string) ([]byte, error) {
	f.anchors = append(f.anchors, ll)
	if err, ok := f.errs[query]; ok {
		return nil, err
	}
	return f.payloads[query], nil
}

func TestAnchor(t *testing.T) {
	t.Parallel()

	anchor := places.Anchor(48.8584, 2.2945, 14)
	if anchor != "@48.8584,2.2945,14z" {
		t.Errorf("unexpected anchor: %s", anchor)
	}
	// Zero zoom falls back to the default.
	anchor = places.Anchor(48.8584, 2.2945, 0)
	if anchor != "@48.8584,2.2945,14z" {
		t.Errorf("unexpected anchor with default zoom: %s", anchor)
	}
}

func TestAggregatorSearch(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		payloads: map[string][]byte{
			"top tourist attractions": []byte(`{"local_results": [
				{"title": "Eiffel Tower", "type": "Tourist attraction"},
				{"title": "Random Office", "type": "Corporate office"}
			]}`),
			"best restaurants": []byte(`{"local_results": [{"title": "Le Bistro", "type": "Restaurant"}]}`),
		},
		errs: map[string]error{
			"coffee shops": fmt.Errorf("upstream returned status 500"),
		},
	}
	agg := places.NewAggregator(provider, time.Second)

	interests := []places.Interest{
		places.ResolveInterest("attractions"),
		places.ResolveInterest("food"),
		places.ResolveInterest("coffee"),
	}
	result := agg.Search(context.Background(), 48.8584, 2.2945, 14, interests)

	if len(result.Groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(result.Groups))
	}
	// Order follows the request even though searches run concurrently.
	if result.Groups[0].ID != "attractions" || result.Groups[1].ID != "food" || result.Groups[2].ID != "coffee" {
		t.Errorf("unexpected group order: %+v", result.Groups)
	}

	// The default group is POI filtered, the office is gone.
	if len(result.Groups[0].Places) != 1 || result.Groups[0].Places[0].Title != "Eiffel Tower" {
		t.Errorf("expected POI filter on attractions, got %+v", result.Groups[0].Places)
	}
	// Other groups are not POI filtered.
	if len(result.Groups[1].Places) != 1 {
		t.Errorf("expected Le Bistro kept, got %+v", result.Groups[1].Places)
	}

	// Failure stays inside its group.
	if result.Groups[2].Error == "" || len(result.Groups[2].Places) != 0 {
		t.Errorf("expected coffee group to carry its error, got %+v", result.Groups[2])
	}
	if result.Error != "" {
		t.Errorf("a non-default group error must not fail the result, got %s", result.Error)
	}

	for _, anchor := range provider.anchors {
		if anchor != "@48.8584,2.2945,14z" {
			t.Errorf("unexpected anchor sent to provider: %s", anchor)
		}
	}
}

func TestAggregatorDefaultGroupFailure(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		errs: map[string]error{
			"top tourist attractions": fmt.Errorf("missing API key"),
		},
	}
	agg := places.NewAggregator(provider, time.Second)

	result := agg.Search(context.Background(), 1, 2, 14, []places.Interest{places.ResolveInterest("attractions")})
	if !strings.Contains(result.Error, "missing API key") {
		t.Errorf("expected top-level error when the default group is empty and errored, got %q", result.Error)
	}
}

func TestResolveInterest(t *testing.T) {
	t.Parallel()

	builtin := places.ResolveInterest("food")
	if builtin.Query != "best restaurants" {
		t.Errorf("expected builtin query, got %s", builtin.Query)
	}

	custom := places.ResolveInterest("street art")
	if custom.Query != "street art" || custom.Label != "street art" {
		t.Errorf("expected free-form interest to reuse its id, got %+v", custom)
	}
}
