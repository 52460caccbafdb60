package apis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/USA-RedDragon/pinpoint-server/internal/geo"
)

// OpenMeteo fetches forecasts. The payload is passed through
// provider-shaped; clients render it directly.
type OpenMeteo struct {
	baseURL string
	client  *http.Client
}

func NewOpenMeteo(baseURL string, client *http.Client) *OpenMeteo {
	return &OpenMeteo{baseURL: baseURL, client: client}
}

func (o *OpenMeteo) Forecast(ctx context.Context, coord geo.Coordinate) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(coord.Lat, 'f', -1, 64))
	query.Set("longitude", strconv.FormatFloat(coord.Lng, 'f', -1, 64))
	query.Set("current", "temperature_2m,relative_humidity_2m,apparent_temperature,precipitation,weather_code,wind_speed_10m")
	query.Set("hourly", "temperature_2m,precipitation_probability,weather_code")
	query.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,weather_code")
	query.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build forecast request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forecast returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read forecast response: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("forecast response is not valid JSON")
	}
	return body, nil
}
