package controllers

import (
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/USA-RedDragon/pinpoint-server/internal/utils"
	"github.com/gin-gonic/gin"
)

const maxImageBytes = 10 << 20

// GETImage proxies a remote image so clients never hand third-party hosts
// their own origin. The target host is resolved first and every address must
// be publicly routable.
func GETImage(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url must be http or https"})
		return
	}
	host := parsed.Hostname()
	if host == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url must have a host"})
		return
	}

	addrs, err := net.DefaultResolver.LookupIPAddr(c.Request.Context(), host)
	if err != nil || len(addrs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url host could not be resolved"})
		return
	}
	for _, addr := range addrs {
		if !isPublicIP(addr.IP) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "url resolves to a non-public address"})
			return
		}
	}

	resp, err := utils.HTTPRequest(c.Request.Context(), http.MethodGet, parsed.String(), nil, nil)
	if err != nil {
		slog.Error("GETImage", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Try again later"})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("GETImage", "status_code", resp.StatusCode)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Try again later"})
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "url did not return an image"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		slog.Error("GETImage", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Try again later"})
		return
	}

	c.Data(http.StatusOK, contentType, body)
}

func isPublicIP(ip net.IP) bool {
	return !(ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsMulticast() ||
		ip.IsUnspecified())
}
