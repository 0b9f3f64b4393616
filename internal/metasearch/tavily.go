package metasearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultTavilyBaseURL = "https://api.tavily.com/search"
	defaultTavilyTimeout = 30 * time.Second
)

// TavilyClient implements Client against the Tavily search API.
type TavilyClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewTavilyClient(apiKey string) *TavilyClient {
	return &TavilyClient{
		apiKey:     apiKey,
		baseURL:    defaultTavilyBaseURL,
		httpClient: &http.Client{Timeout: defaultTavilyTimeout},
	}
}

func NewTavilyClientWithConfig(apiKey, baseURL string, timeout time.Duration) *TavilyClient {
	return &TavilyClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type tavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
	Query   string         `json:"query"`
}

func (c *TavilyClient) Search(ctx context.Context, query string, maxResults int) ([]Link, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	if maxResults > 20 {
		maxResults = 20
	}

	payload, err := json.Marshal(map[string]interface{}{
		"api_key":     c.apiKey,
		"query":       query,
		"max_results": maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("tavily: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("tavily: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tavily: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily: status %d: %s", resp.StatusCode, string(body))
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("tavily: decode response: %w", err)
	}

	links := make([]Link, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		links = append(links, Link{Title: r.Title, URL: r.URL, Snippet: r.Content})
	}
	return links, nil
}
