// Package search provides the web_search tool backed by the SerpAPI Google
// engine.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/agentoffice/core"
	"github.com/hupe1980/agentoffice/tool"
)

// ToolName is the name the search tool registers under.
const ToolName = "web_search"

// ErrMissingAPIKey is returned when no SerpAPI key is configured.
var ErrMissingAPIKey = errors.New("serpapi api key not provided")

// Options configures the SerpAPI client.
type Options struct {
	APIKey     string
	Endpoint   string
	Engine     string
	NumResults int
	HTTPClient *http.Client
}

// Result is one organic search result.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Client queries SerpAPI.
type Client struct {
	opts Options
}

// NewClient creates a SerpAPI client. The API key is required.
func NewClient(optFns ...func(o *Options)) (*Client, error) {
	opts := Options{
		Endpoint:   "https://serpapi.com/search",
		Engine:     "google",
		NumResults: 5,
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	return &Client{opts: opts}, nil
}

type serpResponse struct {
	Error          string   `json:"error"`
	OrganicResults []Result `json:"organic_results"`
}

// Search runs query and returns at most num results; num <= 0 uses the
// configured default.
func (c *Client) Search(ctx context.Context, query string, num int) ([]Result, error) {
	if num <= 0 {
		num = c.opts.NumResults
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("num", strconv.Itoa(num))
	params.Set("api_key", c.opts.APIKey)
	params.Set("engine", c.opts.Engine)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error during search: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out serpResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	if out.Error != "" {
		return nil, fmt.Errorf("error during search: %s", out.Error)
	}

	results := out.OrganicResults
	if len(results) > num {
		results = results[:num]
	}

	return results, nil
}

// NewTool returns the web_search tool using client.
func NewTool(client *Client) tool.Tool {
	return tool.NewFunctionTool(
		ToolName,
		"Search the web using Google Search. Returns search results (title, link, snippet) for the given query.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query":       map[string]any{"type": "string", "description": "The search query to look up on Google"},
				"num_results": map[string]any{"type": "integer", "description": "Number of search results to return (default: 5)"},
			},
			"required": []string{"query"},
		},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			query, _ := tool.StringArg(args, "query")
			if strings.TrimSpace(query) == "" {
				return nil, tool.NewToolError(ToolName, "field 'query' must be a non-empty string", core.CodeValidation)
			}

			results, err := client.Search(tc.Context(), query, tool.IntArg(args, "num_results", 0))
			if err != nil {
				return nil, err
			}

			tc.LogDebug("search.results", "agent", tc.AgentName(), "query", query, "count", len(results))

			return results, nil
		},
	)
}
