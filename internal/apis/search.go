package apis

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-errors/errors"
)

var ErrSearchKeyMissing = errors.New("local search API key is not configured")

// SerpAPI runs Google Maps local searches through SerpApi. Responses are
// returned raw; shape probing happens in the places package.
type SerpAPI struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewSerpAPI(baseURL, apiKey string, client *http.Client) *SerpAPI {
	return &SerpAPI{baseURL: baseURL, apiKey: apiKey, client: client}
}

// SearchLocal searches for query around the map anchor ll
// ("@{lat},{lng},{zoom}z").
func (s *SerpAPI) SearchLocal(ctx context.Context, query, ll string) ([]byte, error) {
	if s.apiKey == "" {
		return nil, ErrSearchKeyMissing
	}

	params := url.Values{}
	params.Set("engine", "google_maps")
	params.Set("type", "search")
	params.Set("q", query)
	params.Set("ll", ll)
	params.Set("hl", "en")
	params.Set("api_key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}
	return body, nil
}
