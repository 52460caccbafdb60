package server

import (
	"log/slog"
	"net/http"

	"github.com/USA-RedDragon/pinpoint-server/internal/config"
	"github.com/USA-RedDragon/pinpoint-server/internal/server/controllers"
	websocketControllers "github.com/USA-RedDragon/pinpoint-server/internal/server/websocket"
	"github.com/USA-RedDragon/pinpoint-server/internal/websocket"
	"github.com/gin-gonic/gin"
)

func applyRoutes(r *gin.Engine, config *config.Config, selectionWebsocket *websocketControllers.SelectionWebsocket) {
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	apiV1 := r.Group("/v1")
	v1(apiV1)

	// Selection Websocket
	wsV1 := r.Group("/ws/v1")
	wsV1.GET("/selection", websocket.CreateHandler(selectionWebsocket, config))

	r.NoRoute(func(c *gin.Context) {
		slog.Warn("Not Found", "path", c.Request.URL.Path)
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
	})
}

func v1(group *gin.RouterGroup) {
	group.POST("/places", controllers.POSTPlaces)
	group.POST("/weather", controllers.POSTWeather)
	group.POST("/ai/point", controllers.POSTAIPoint)
	group.POST("/ai/city", controllers.POSTAICity)
	group.GET("/image", controllers.GETImage)
	group.GET("/saved/bookmarks", controllers.GETBookmarks)
	group.POST("/saved/bookmarks", controllers.POSTBookmarkToggle)
	group.GET("/saved/history", controllers.GETHistory)
	group.DELETE("/saved", controllers.DELETESaved)
}
