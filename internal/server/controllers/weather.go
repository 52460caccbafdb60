package controllers

import (
	"log/slog"
	"net/http"

	"github.com/USA-RedDragon/pinpoint-server/internal/apis"
	"github.com/USA-RedDragon/pinpoint-server/internal/geo"
	"github.com/gin-gonic/gin"
)

type weatherRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func POSTWeather(c *gin.Context) {
	clients, ok := c.MustGet("clients").(*apis.Clients)
	if !ok {
		slog.Error("Failed to get clients from context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return
	}

	var req weatherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	coord := geo.Coordinate{Lat: req.Lat, Lng: req.Lng}
	if !coord.WithinBounds() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng must be a valid coordinate"})
		return
	}

	forecast, err := clients.Weather.Forecast(c.Request.Context(), coord)
	if err != nil {
		slog.Error("POSTWeather", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Try again later"})
		return
	}

	c.Data(http.StatusOK, "application/json", forecast)
}
