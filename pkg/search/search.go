// Package search provides the optional web-search capability used by the
// recovery loop. A nil client is valid everywhere: research degrades to a
// stub summary and the workflow proceeds.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Result is one search hit.
type Result struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Client is the search-capability boundary.
type Client interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

const defaultBaseURL = "https://api.tavily.com"

// TavilyClient implements Client against the Tavily search API.
type TavilyClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewTavilyClient creates a Tavily-backed search client. Returns nil when the
// API key is empty, which callers treat as search being unconfigured.
func NewTavilyClient(apiKey string) *TavilyClient {
	if apiKey == "" {
		return nil
	}
	return &TavilyClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Search runs an advanced-depth query and returns the hits in rank order.
func (c *TavilyClient) Search(ctx context.Context, query string) ([]Result, error) {
	payload := map[string]any{
		"api_key":      c.apiKey,
		"query":        query,
		"search_depth": "advanced",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.baseURL, "/")+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("search request failed: %s", resp.Status)
	}

	var parsed struct {
		Results []Result `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	return parsed.Results, nil
}
