// Package context7 is a small REST client for a Context7-style documentation
// service. It runs inside the upstream child process, never in the pipeline.
package context7

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://context7.com/api/v1"
	maxBodyBytes   = 8 << 20

	// TruncatedMarker ends a docs body that was cut at the size limit.
	TruncatedMarker = "\n[TRUNCATED]"
)

// Library is one search hit.
type Library struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	TotalSnippets int      `json:"totalSnippets"`
	TrustScore    float64  `json:"trustScore"`
	Versions      []string `json:"versions"`
}

type searchResponse struct {
	Results []Library `json:"results"`
	Error   string    `json:"error,omitempty"`
}

// Client calls the search and docs endpoints.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	maxBody int64
}

// NewClient builds a client. An empty baseURL means DefaultBaseURL.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		maxBody: maxBodyBytes,
	}
}

// Search looks a library up by name.
func (c *Client) Search(ctx context.Context, name string) ([]Library, error) {
	params := url.Values{}
	params.Set("query", name)
	body, truncated, err := c.get(ctx, c.baseURL+"/search?"+params.Encode())
	if err != nil {
		return nil, err
	}
	if truncated {
		return nil, fmt.Errorf("search response exceeds %d bytes", c.maxBody)
	}
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("search failed: %s", resp.Error)
	}
	return resp.Results, nil
}

// Docs returns the plain-text documentation for a canonical id.
func (c *Client) Docs(ctx context.Context, id, topic string, page, tokens int) (string, error) {
	params := url.Values{}
	params.Set("type", "txt")
	if topic != "" {
		params.Set("topic", topic)
	}
	if page > 1 {
		params.Set("page", strconv.Itoa(page))
	}
	if tokens > 0 {
		params.Set("tokens", strconv.Itoa(tokens))
	}
	body, truncated, err := c.get(ctx, c.baseURL+"/"+strings.TrimLeft(id, "/")+"?"+params.Encode())
	if err != nil {
		return "", err
	}
	if truncated {
		return strings.ToValidUTF8(string(body), "") + TruncatedMarker, nil
	}
	return string(body), nil
}

// get reads at most maxBody bytes and reports whether the body was longer.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain;q=0.9, */*;q=0.5")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, false, fmt.Errorf("failed to read response body: %w", err)
	}
	truncated := int64(len(body)) > c.maxBody
	if truncated {
		body = body[:c.maxBody]
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("request failed, status code: %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, truncated, nil
}

// FormatResults renders search hits the way the resolve tool of the MCP server
// does, one block per library with an explicit id line.
func FormatResults(libs []Library) string {
	if len(libs) == 0 {
		return "No matching libraries found."
	}
	var sb strings.Builder
	sb.WriteString("Available Libraries (top matches):\n\n")
	for i, l := range libs {
		if i > 0 {
			sb.WriteString("----------\n")
		}
		fmt.Fprintf(&sb, "- Title: %s\n", l.Title)
		fmt.Fprintf(&sb, "- Context7-compatible library ID: %s\n", l.ID)
		if l.Description != "" {
			fmt.Fprintf(&sb, "- Description: %s\n", l.Description)
		}
		if l.TotalSnippets > 0 {
			fmt.Fprintf(&sb, "- Code Snippets: %d\n", l.TotalSnippets)
		}
		if l.TrustScore > 0 {
			fmt.Fprintf(&sb, "- Trust Score: %.1f\n", l.TrustScore)
		}
		if len(l.Versions) > 0 {
			fmt.Fprintf(&sb, "- Versions: %s\n", strings.Join(l.Versions, ", "))
		}
	}
	return sb.String()
}
