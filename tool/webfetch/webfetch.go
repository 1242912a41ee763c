// Package webfetch provides the web_fetch tool: it downloads a page over
// HTTP(S) and returns its readable text.
package webfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hupe1980/agentoffice/core"
	"github.com/hupe1980/agentoffice/tool"
)

// ToolName is the name the fetch tool registers under.
const ToolName = "web_fetch"

// Options configures the Fetcher.
type Options struct {
	// MaxBytes caps the downloaded body.
	MaxBytes int64
	// MaxChars is the default cap on returned text.
	MaxChars   int
	UserAgent  string
	HTTPClient *http.Client
}

// Page is the outcome of a fetch.
type Page struct {
	URL         string `json:"url"`
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Title       string `json:"title,omitempty"`
	Content     string `json:"content"`
	Truncated   bool   `json:"truncated"`
}

// Fetcher downloads pages.
type Fetcher struct {
	opts Options
}

// NewFetcher creates a Fetcher with sensible defaults.
func NewFetcher(optFns ...func(o *Options)) *Fetcher {
	opts := Options{
		MaxBytes:   1 << 20,
		MaxChars:   8000,
		UserAgent:  "AgentOffice/1.0",
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Fetcher{opts: opts}
}

// Fetch downloads rawURL and converts HTML to text. maxChars <= 0 uses the
// configured default.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, maxChars int) (Page, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Page{}, fmt.Errorf("invalid url %q: only absolute http(s) urls are supported", rawURL)
	}

	if maxChars <= 0 {
		maxChars = f.opts.MaxChars
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.opts.HTTPClient.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBytes+1))
	if err != nil {
		return Page{}, fmt.Errorf("read body: %w", err)
	}

	page := Page{
		URL:         u.String(),
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}

	if int64(len(data)) > f.opts.MaxBytes {
		data = data[:f.opts.MaxBytes]
		page.Truncated = true
	}

	if isHTMLContentType(page.ContentType) {
		page.Title = Title(data)
		page.Content = HTMLToText(data)
	} else {
		page.Content = strings.TrimSpace(string(data))
	}

	if r := []rune(page.Content); len(r) > maxChars {
		page.Content = string(r[:maxChars])
		page.Truncated = true
	}

	return page, nil
}

// NewTool returns the web_fetch tool using f.
func NewTool(f *Fetcher) tool.Tool {
	return tool.NewFunctionTool(
		ToolName,
		"Fetch a web page and return its readable text. Use it to read a search result in full.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url":       map[string]any{"type": "string", "description": "Absolute http(s) URL to fetch"},
				"max_chars": map[string]any{"type": "integer", "description": "Maximum number of characters to return (default: 8000)"},
			},
			"required": []string{"url"},
		},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			rawURL, _ := tool.StringArg(args, "url")

			page, err := f.Fetch(tc.Context(), rawURL, tool.IntArg(args, "max_chars", 0))
			if err != nil {
				return nil, err
			}

			tc.LogDebug("webfetch.fetched", "agent", tc.AgentName(), "url", page.URL, "status", page.Status, "truncated", page.Truncated)

			return page, nil
		},
	)
}
