package controllers

import (
	"log/slog"
	"net/http"

	"github.com/USA-RedDragon/pinpoint-server/internal/events"
	"github.com/USA-RedDragon/pinpoint-server/internal/geo"
	"github.com/USA-RedDragon/pinpoint-server/internal/saved"
	"github.com/gin-gonic/gin"
)

func GETBookmarks(c *gin.Context) {
	store, ok := c.MustGet("store").(*saved.Store)
	if !ok {
		slog.Error("Failed to get store from context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookmarks": store.Bookmarks()})
}

func GETHistory(c *gin.Context) {
	store, ok := c.MustGet("store").(*saved.Store)
	if !ok {
		slog.Error("Failed to get store from context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": store.History()})
}

func POSTBookmarkToggle(c *gin.Context) {
	store, ok := c.MustGet("store").(*saved.Store)
	if !ok {
		slog.Error("Failed to get store from context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return
	}
	bus, ok := c.MustGet("bus").(*events.EventBus)
	if !ok {
		slog.Error("Failed to get event bus from context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return
	}

	var entry saved.Place
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	coord := geo.Coordinate{Lat: entry.Lat, Lng: entry.Lng}
	if !coord.WithinBounds() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng must be a valid coordinate"})
		return
	}
	if entry.ID == "" {
		entry.ID = saved.PlaceID(entry.Lat, entry.Lng)
	}

	bookmarked := store.ToggleBookmark(entry)
	bus.Publish(events.BookmarkToggledEvent{
		PlaceID:    entry.ID,
		Title:      entry.Title,
		Bookmarked: bookmarked,
	})

	c.JSON(http.StatusOK, gin.H{"bookmarked": bookmarked})
}

func DELETESaved(c *gin.Context) {
	store, ok := c.MustGet("store").(*saved.Store)
	if !ok {
		slog.Error("Failed to get store from context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Try again later"})
		return
	}
	store.ClearAll()
	c.Status(http.StatusNoContent)
}
