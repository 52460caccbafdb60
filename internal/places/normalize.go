package places

import (
	"strconv"
	"strings"
)

// Local-search providers disagree about where the result array lives and
// what each attribute is called. Normalization probes a fixed list of
// shapes in order instead of binding to any one provider's schema.

//nolint:golint,gochecknoglobals
var (
	resultArrayKeys = []string{"local_results", "results", "places", "data"}

	titleKeys     = []string{"title", "name"}
	ratingKeys    = []string{"rating", "stars", "score"}
	reviewsKeys   = []string{"reviews", "reviews_count", "user_ratings_total"}
	categoryKeys  = []string{"type", "category", "types"}
	addressKeys   = []string{"address", "vicinity", "full_address", "formatted_address"}
	thumbnailKeys = []string{"thumbnail", "image", "photo", "icon"}
	linkKeys      = []string{"link", "website", "url"}
)

// MaxItemsPerGroup caps each interest group after normalization.
const MaxItemsPerGroup = 12

// Normalize extracts up to MaxItemsPerGroup items from a raw provider
// payload. Entries without a recognizable title are discarded.
func Normalize(payload []byte) []Item {
	items := []Item{}
	for _, raw := range collectRawPlaces(payload) {
		item, ok := normalizeItem(raw)
		if !ok {
			continue
		}
		items = append(items, item)
		if len(items) == MaxItemsPerGroup {
			break
		}
	}
	return items
}

func collectRawPlaces(payload []byte) []map[string]any {
	doc, ok := decodeObject(payload)
	if !ok {
		return nil
	}
	for _, key := range resultArrayKeys {
		value, ok := doc[key]
		if !ok {
			continue
		}
		// Some providers nest the array one level deeper, e.g.
		// {"local_results": {"places": [...]}}.
		if inner, ok := value.(map[string]any); ok {
			for _, innerKey := range resultArrayKeys {
				if innerValue, ok := inner[innerKey]; ok {
					value = innerValue
					break
				}
			}
		}
		arr, ok := value.([]any)
		if !ok {
			continue
		}
		places := make([]map[string]any, 0, len(arr))
		for _, entry := range arr {
			if obj, ok := entry.(map[string]any); ok {
				places = append(places, obj)
			}
		}
		if len(places) > 0 {
			return places
		}
	}
	return nil
}

func normalizeItem(raw map[string]any) (Item, bool) {
	var item Item

	item.Title = firstString(raw, titleKeys)
	if item.Title == "" {
		return Item{}, false
	}

	if rating, ok := firstFloat(raw, ratingKeys); ok {
		item.Rating.Set(rating)
	}
	if reviews, ok := firstInt(raw, reviewsKeys); ok {
		item.ReviewsCount.Set(reviews)
	}
	item.Category = firstString(raw, categoryKeys)
	item.Address = firstString(raw, addressKeys)
	item.ThumbnailURL = firstString(raw, thumbnailKeys)
	item.Link = firstString(raw, linkKeys)

	return item, true
}

func firstString(raw map[string]any, keys []string) string {
	for _, key := range keys {
		switch value := raw[key].(type) {
		case string:
			if value != "" {
				return value
			}
		case []any:
			// e.g. "types": ["museum", "point_of_interest"]
			if len(value) > 0 {
				if s, ok := value[0].(string); ok && s != "" {
					return s
				}
			}
		}
	}
	return ""
}

func firstFloat(raw map[string]any, keys []string) (float64, bool) {
	for _, key := range keys {
		switch value := raw[key].(type) {
		case float64:
			return value, true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func firstInt(raw map[string]any, keys []string) (int64, bool) {
	for _, key := range keys {
		switch value := raw[key].(type) {
		case float64:
			return int64(value), true
		case string:
			// Counts often arrive formatted, e.g. "12,450".
			cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
			if n, err := strconv.ParseInt(cleaned, 10, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
