package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/USA-RedDragon/pinpoint-server/internal/geo"
	"github.com/USA-RedDragon/pinpoint-server/internal/places"
	"github.com/gin-gonic/gin"
)

// interestSpec accepts either a bare interest id string or an
// {id, label, query} object.
type interestSpec struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Query string `json:"query"`
}

func (i *interestSpec) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		i.ID = id
		return nil
	}
	type rawSpec interestSpec
	var raw rawSpec
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*i = interestSpec(raw)
	return nil
}

func (i interestSpec) interest() places.Interest {
	if i.Query == "" && i.Label == "" {
		return places.ResolveInterest(i.ID)
	}
	interest := places.Interest{ID: i.ID, Label: i.Label, Query: i.Query}
	if interest.ID == "" {
		interest.ID = interest.Query
	}
	if interest.Label == "" {
		interest.Label = interest.ID
	}
	if interest.Query == "" {
		interest.Query = places.ResolveInterest(interest.ID).Query
	}
	return interest
}

type placesRequest struct {
	Lat       float64        `json:"lat"`
	Lng       float64        `json:"lng"`
	Zoom      int            `json:"zoom"`
	LL        string         `json:"ll"`
	Interests []interestSpec `json:"interests"`
}

// parseAnchor reads the "@{lat},{lng},{zoom}z" map position format.
func parseAnchor(ll string) (float64, float64, int, bool) {
	if !strings.HasPrefix(ll, "@") {
		return 0, 0, 0, false
	}
	parts := strings.Split(strings.TrimPrefix(ll, "@"), ",")
	if len(parts) != 3 || !strings.HasSuffix(parts[2], "z") {
		return 0, 0, 0, false
	}
	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, 0, false
	}
	lng, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, 0, false
	}
	zoom, err := strconv.Atoi(strings.TrimSuffix(parts[2], "z"))
	if err != nil {
		return 0, 0, 0, false
	}
	return lat, lng, zoom, true
}

func POSTPlaces(c *gin.Context) {
	aggregator, ok := c.MustGet("aggregator").(*places.Aggregator)
	if !ok {
		slog.Error("Failed to get aggregator from context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return
	}

	var req placesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.LL != "" {
		lat, lng, zoom, ok := parseAnchor(req.LL)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ll must look like @lat,lng,zoomz"})
			return
		}
		req.Lat, req.Lng, req.Zoom = lat, lng, zoom
	}

	coord := geo.Coordinate{Lat: req.Lat, Lng: req.Lng}
	if !coord.WithinBounds() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng must be a valid coordinate"})
		return
	}

	interests := make([]places.Interest, 0, len(req.Interests))
	for _, spec := range req.Interests {
		interest := spec.interest()
		if interest.ID == "" {
			continue
		}
		interests = append(interests, interest)
	}
	if len(interests) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "interests are required"})
		return
	}

	result := aggregator.Search(c.Request.Context(), req.Lat, req.Lng, req.Zoom, interests)
	if result.Error != "" {
		c.JSON(http.StatusBadGateway, result)
		return
	}
	c.JSON(http.StatusOK, result)
}
