// Package places turns raw local-search payloads into grouped, classified
// place listings, one group per interest.
package places

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/mattn/go-nulltype"
)

// DefaultInterestID is the interest fetched on every fresh selection. Its
// group is the only one run through the point-of-interest filter and the
// only one whose failure is allowed to fail the whole result.
const DefaultInterestID = "attractions"

// Interest is a category of places a user can ask for around a point.
type Interest struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Query string `json:"query"`
}

//nolint:golint,gochecknoglobals
var builtinInterests = []Interest{
	{ID: DefaultInterestID, Label: "Attractions", Query: "top tourist attractions"},
	{ID: "food", Label: "Food", Query: "best restaurants"},
	{ID: "coffee", Label: "Coffee", Query: "coffee shops"},
	{ID: "nightlife", Label: "Nightlife", Query: "bars and nightlife"},
	{ID: "shopping", Label: "Shopping", Query: "shopping"},
	{ID: "museums", Label: "Museums", Query: "museums and galleries"},
	{ID: "outdoors", Label: "Outdoors", Query: "parks and outdoor activities"},
}

// DefaultInterest returns the interest used for first-pass selections.
func DefaultInterest() Interest {
	return builtinInterests[0]
}

// ResolveInterest maps an interest id to its builtin definition. Unknown ids
// become free-form interests whose id doubles as the search query.
func ResolveInterest(id string) Interest {
	for _, interest := range builtinInterests {
		if interest.ID == id {
			return interest
		}
	}
	return Interest{ID: id, Label: id, Query: id}
}

// Item is one normalized place listing.
type Item struct {
	Title        string               `json:"title"`
	Rating       nulltype.NullFloat64 `json:"rating,omitempty"`
	ReviewsCount nulltype.NullInt64   `json:"reviewsCount,omitempty"`
	Category     string               `json:"category,omitempty"`
	Address      string               `json:"address,omitempty"`
	ThumbnailURL string               `json:"thumbnailUrl,omitempty"`
	Link         string               `json:"link,omitempty"`
}

// Group holds the results for a single interest. Error is set per group so
// one failed interest never hides the others.
type Group struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Query  string `json:"query"`
	Places []Item `json:"places"`
	Error  string `json:"error,omitempty"`
}

// Result is the aggregate answer across all requested interests.
type Result struct {
	Groups []Group `json:"groups"`
	Error  string  `json:"error,omitempty"`
}

// SearchProvider performs one raw local search anchored to a map position.
type SearchProvider interface {
	SearchLocal(ctx context.Context, query, ll string) ([]byte, error)
}

const DefaultZoom = 14

// Aggregator fans a set of interests out to the search provider and
// normalizes whatever comes back.
type Aggregator struct {
	provider SearchProvider
	timeout  time.Duration
}

func NewAggregator(provider SearchProvider, timeout time.Duration) *Aggregator {
	return &Aggregator{provider: provider, timeout: timeout}
}

// Anchor renders the map position parameter local search engines expect.
func Anchor(lat, lng float64, zoom int) string {
	if zoom <= 0 {
		zoom = DefaultZoom
	}
	return "@" + strconv.FormatFloat(lat, 'f', -1, 64) +
		"," + strconv.FormatFloat(lng, 'f', -1, 64) +
		"," + strconv.Itoa(zoom) + "z"
}

// Search queries every interest concurrently. Group order follows the
// request order regardless of which search finishes first.
func (a *Aggregator) Search(ctx context.Context, lat, lng float64, zoom int, interests []Interest) Result {
	ll := Anchor(lat, lng, zoom)
	groups := make([]Group, len(interests))

	var wg sync.WaitGroup
	for i, interest := range interests {
		wg.Add(1)
		go func(i int, interest Interest) {
			defer wg.Done()
			groups[i] = a.searchOne(ctx, interest, ll)
		}(i, interest)
	}
	wg.Wait()

	Reclassify(groups)

	result := Result{Groups: groups}
	for _, group := range groups {
		if group.ID == DefaultInterestID && group.Error != "" && len(group.Places) == 0 {
			result.Error = group.Error
		}
	}
	return result
}

func (a *Aggregator) searchOne(ctx context.Context, interest Interest, ll string) Group {
	group := Group{ID: interest.ID, Label: interest.Label, Query: interest.Query, Places: []Item{}}

	searchCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	payload, err := a.provider.SearchLocal(searchCtx, interest.Query, ll)
	if err != nil {
		group.Error = err.Error()
		return group
	}

	items := Normalize(payload)
	if interest.ID == DefaultInterestID {
		items = FilterPointsOfInterest(items)
	}
	group.Places = items
	return group
}

// decodeObject is shared by the normalization tables.
func decodeObject(payload []byte) (map[string]any, bool) {
	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, false
	}
	return doc, true
}
