package apis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/USA-RedDragon/pinpoint-server/internal/geo"
)

// Nominatim reverse-geocodes coordinates against an OSM Nominatim instance.
type Nominatim struct {
	baseURL string
	client  *http.Client
}

func NewNominatim(baseURL string, client *http.Client) *Nominatim {
	return &Nominatim{baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		County  string `json:"county"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

// ReverseLabel resolves a coordinate to a short human label, typically
// "Locality, Country".
func (n *Nominatim) ReverseLabel(ctx context.Context, coord geo.Coordinate) (string, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(coord.Lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(coord.Lng, 'f', -1, 64))
	query.Set("format", "jsonv2")
	query.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/reverse?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build reverse geocode request: %w", err)
	}
	// Nominatim's usage policy requires an identifying User-Agent.
	req.Header.Set("User-Agent", userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocode returned status %d", resp.StatusCode)
	}

	var response nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode reverse geocode response: %w", err)
	}

	return buildLabel(response), nil
}

func buildLabel(response nominatimResponse) string {
	locality := response.Address.City
	if locality == "" {
		locality = response.Address.Town
	}
	if locality == "" {
		locality = response.Address.Village
	}
	if locality == "" {
		locality = response.Address.County
	}
	if locality == "" {
		locality = response.Address.State
	}

	if locality != "" && response.Address.Country != "" {
		return locality + ", " + response.Address.Country
	}
	if response.Address.Country != "" {
		return response.Address.Country
	}

	// Fall back to the first two segments of the display name.
	parts := strings.SplitN(response.DisplayName, ",", 3)
	if len(parts) >= 2 {
		return strings.TrimSpace(parts[0]) + ", " + strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(response.DisplayName)
}
