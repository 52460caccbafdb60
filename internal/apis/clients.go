// Package apis holds the upstream provider clients: reverse geocoding,
// weather, local search, and AI summaries.
package apis

import (
	"net/http"
	"time"

	"github.com/USA-RedDragon/pinpoint-server/internal/config"
)

const userAgent = "pinpoint-server/1.0"

// Clients bundles one instance of every provider client, sharing a single
// http.Client with the configured timeout.
type Clients struct {
	Geocoder   *Nominatim
	Weather    *OpenMeteo
	Search     *SerpAPI
	Summarizer *Perplexity
}

func NewClients(cfg *config.Config) *Clients {
	httpClient := &http.Client{
		Timeout: time.Duration(cfg.Providers.TimeoutSeconds) * time.Second,
	}
	return &Clients{
		Geocoder:   NewNominatim(cfg.Providers.Nominatim.URL, httpClient),
		Weather:    NewOpenMeteo(cfg.Providers.Weather.URL, httpClient),
		Search:     NewSerpAPI(cfg.Providers.SerpAPI.URL, cfg.Providers.SerpAPI.APIKey, httpClient),
		Summarizer: NewPerplexity(cfg.Providers.Perplexity, httpClient),
	}
}
