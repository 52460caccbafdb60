package apis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/USA-RedDragon/pinpoint-server/internal/config"
	"github.com/USA-RedDragon/pinpoint-server/internal/geo"
	"github.com/go-errors/errors"
)

var ErrSummaryKeyMissing = errors.New("summary API key is not configured")

// Perplexity produces short AI-written place summaries with citations and
// images through an OpenAI-style chat completions endpoint.
type Perplexity struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewPerplexity(cfg config.Perplexity, client *http.Client) *Perplexity {
	return &Perplexity{baseURL: cfg.URL, apiKey: cfg.APIKey, model: cfg.Model, client: client}
}

// Summary is the normalized answer for both point and city prompts.
type Summary struct {
	Summary string   `json:"summary"`
	Images  []string `json:"images"`
	Sources []string `json:"sources"`
}

// PointRequest describes a clicked map location.
type PointRequest struct {
	Coordinate geo.Coordinate
	Label      string
	Context    string
}

// CityRequest describes a named city.
type CityRequest struct {
	Name        string
	CountryCode string
	Coordinate  geo.Coordinate
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model        string        `json:"model"`
	Messages     []chatMessage `json:"messages"`
	ReturnImages bool          `json:"return_images"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Citations []string `json:"citations"`
	Images    []struct {
		ImageURL string `json:"image_url"`
	} `json:"images"`
}

const systemPrompt = "You are a concise travel guide. Answer in two or three short paragraphs of plain prose without markdown headings or lists."

// PointSummary summarizes the surroundings of a clicked coordinate.
func (p *Perplexity) PointSummary(ctx context.Context, req PointRequest) (Summary, error) {
	prompt := "Describe the area around " + req.Label +
		" (latitude " + strconv.FormatFloat(req.Coordinate.Lat, 'f', 4, 64) +
		", longitude " + strconv.FormatFloat(req.Coordinate.Lng, 'f', 4, 64) + ")." +
		" Mention what the place is known for and what a visitor should see or do nearby."
	if req.Context != "" {
		prompt += " Additional context: " + req.Context
	}
	return p.complete(ctx, prompt)
}

// CitySummary summarizes a city by name.
func (p *Perplexity) CitySummary(ctx context.Context, req CityRequest) (Summary, error) {
	prompt := "Give a traveler's overview of " + req.Name
	if req.CountryCode != "" {
		prompt += " (" + req.CountryCode + ")"
	}
	prompt += ". Cover its character, highlights, and the best reasons to visit."
	return p.complete(ctx, prompt)
}

func (p *Perplexity) complete(ctx context.Context, prompt string) (Summary, error) {
	if p.apiKey == "" {
		return Summary{}, ErrSummaryKeyMissing
	}

	payload, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		ReturnImages: true,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("failed to encode summary request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(payload))
	if err != nil {
		return Summary{}, fmt.Errorf("failed to build summary request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Summary{}, fmt.Errorf("summary request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Summary{}, fmt.Errorf("summary returned status %d", resp.StatusCode)
	}

	var response chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return Summary{}, fmt.Errorf("failed to decode summary response: %w", err)
	}
	if len(response.Choices) == 0 || response.Choices[0].Message.Content == "" {
		return Summary{}, fmt.Errorf("summary response contained no content")
	}

	summary := Summary{
		Summary: response.Choices[0].Message.Content,
		Images:  []string{},
		Sources: response.Citations,
	}
	if summary.Sources == nil {
		summary.Sources = []string{}
	}
	for _, image := range response.Images {
		if image.ImageURL != "" {
			summary.Images = append(summary.Images, image.ImageURL)
		}
	}
	return summary, nil
}
