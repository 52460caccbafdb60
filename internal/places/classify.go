package places

import (
	"regexp"
	"strings"
)

//nolint:golint,gochecknoglobals
var poiKeywords = []string{
	"tourist attraction",
	"attraction",
	"landmark",
	"museum",
	"monument",
	"memorial",
	"park",
	"garden",
	"viewpoint",
	"observation",
	"gallery",
	"historic",
	"heritage",
	"castle",
	"palace",
	"temple",
	"church",
	"cathedral",
	"mosque",
	"shrine",
	"zoo",
	"aquarium",
	"bridge",
	"tower",
	"plaza",
	"scenic",
}

//nolint:golint,gochecknoglobals
var retailKeywords = []string{
	"convenience",
	"liquor",
	"grocery",
	"supermarket",
	"pharmacy",
	"drugstore",
	"gas station",
	"petrol station",
	"tobacco",
	"vape",
	"bodega",
	"off licence",
}

// Matches generic "<something> store"/"stores" categories, e.g.
// "corner store" or "department stores".
//
//nolint:golint,gochecknoglobals
var storePattern = regexp.MustCompile(`\b\w+ stores?\b`)

const (
	nightlifeGroupID = "nightlife"
	shoppingGroupID  = "shopping"
)

// FilterPointsOfInterest keeps only items that read like sightseeing spots.
// It is applied to the default interest group, where search engines love to
// pad results with whatever ranks well locally.
func FilterPointsOfInterest(items []Item) []Item {
	kept := []Item{}
	for _, item := range items {
		if isPointOfInterest(item) {
			kept = append(kept, item)
		}
	}
	return kept
}

func isPointOfInterest(item Item) bool {
	haystack := strings.ToLower(item.Category + " " + item.Title)
	for _, keyword := range poiKeywords {
		if strings.Contains(haystack, keyword) {
			return true
		}
	}
	return false
}

func isRetail(item Item) bool {
	haystack := strings.ToLower(item.Category + " " + item.Title)
	for _, keyword := range retailKeywords {
		if strings.Contains(haystack, keyword) {
			return true
		}
	}
	return storePattern.MatchString(haystack)
}

func dedupeKey(item Item) string {
	return strings.Join(strings.Fields(strings.ToLower(item.Title)), " ") +
		"|" + strings.Join(strings.Fields(strings.ToLower(item.Address)), " ")
}

// Reclassify moves retail listings that local search files under nightlife
// into the shopping group. Shops routinely rank for "bars and nightlife"
// queries in dense areas. Items are removed from nightlife either way;
// they only land in shopping when a shopping group was requested, and
// never twice.
func Reclassify(groups []Group) {
	var nightlife, shopping *Group
	for i := range groups {
		switch groups[i].ID {
		case nightlifeGroupID:
			nightlife = &groups[i]
		case shoppingGroupID:
			shopping = &groups[i]
		}
	}
	if nightlife == nil {
		return
	}

	seen := map[string]bool{}
	if shopping != nil {
		for _, item := range shopping.Places {
			seen[dedupeKey(item)] = true
		}
	}

	kept := []Item{}
	for _, item := range nightlife.Places {
		if !isRetail(item) {
			kept = append(kept, item)
			continue
		}
		if shopping != nil && !seen[dedupeKey(item)] {
			shopping.Places = append(shopping.Places, item)
			seen[dedupeKey(item)] = true
		}
	}
	nightlife.Places = kept
}
