package controllers

import (
	"log/slog"
	"net/http"

	"github.com/USA-RedDragon/pinpoint-server/internal/apis"
	"github.com/USA-RedDragon/pinpoint-server/internal/geo"
	"github.com/gin-gonic/gin"
)

type aiPointRequest struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	BestLabel string  `json:"bestLabel"`
	Context   string  `json:"context"`
}

type aiCityRequest struct {
	Name        string  `json:"name"`
	CountryCode string  `json:"cc"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

func POSTAIPoint(c *gin.Context) {
	clients, ok := c.MustGet("clients").(*apis.Clients)
	if !ok {
		slog.Error("Failed to get clients from context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return
	}

	var req aiPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.BestLabel == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bestLabel is required"})
		return
	}
	coord := geo.Coordinate{Lat: req.Lat, Lng: req.Lng}
	if !coord.WithinBounds() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng must be a valid coordinate"})
		return
	}

	summary, err := clients.Summarizer.PointSummary(c.Request.Context(), apis.PointRequest{
		Coordinate: coord,
		Label:      req.BestLabel,
		Context:    req.Context,
	})
	if err != nil {
		slog.Error("POSTAIPoint", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Try again later"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func POSTAICity(c *gin.Context) {
	clients, ok := c.MustGet("clients").(*apis.Clients)
	if !ok {
		slog.Error("Failed to get clients from context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return
	}

	var req aiCityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	summary, err := clients.Summarizer.CitySummary(c.Request.Context(), apis.CityRequest{
		Name:        req.Name,
		CountryCode: req.CountryCode,
		Coordinate:  geo.Coordinate{Lat: req.Lat, Lng: req.Lng},
	})
	if err != nil {
		slog.Error("POSTAICity", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Try again later"})
		return
	}

	c.JSON(http.StatusOK, summary)
}
