// Package search is a thin client for the semantic search index used by
// search-grounded question answering.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultAPIVersion = "2024-07-01"

// Document is one ranked hit from the index.
type Document struct {
	Title   string
	Content string
}

// Client calls the search index's documents endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	indexName  string
	apiVersion string
	httpClient *http.Client
}

// NewClient builds a client for the index at baseURL (the search service
// root, e.g. https://mysearch.search.windows.net).
func NewClient(apiKey, baseURL, indexName string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		indexName:  strings.TrimSpace(indexName),
		apiVersion: defaultAPIVersion,
		httpClient: httpClient,
	}
}

// Configured reports whether the client has enough settings to make calls.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != "" && c.baseURL != "" && c.indexName != ""
}

// Query runs a semantic search and returns up to top ranked documents.
func (c *Client) Query(ctx context.Context, query string, top int) ([]Document, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("search index is not configured")
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	if top <= 0 {
		top = 3
	}

	body, err := json.Marshal(map[string]any{
		"search":    query,
		"queryType": "semantic",
		"top":       top,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s", c.baseURL, c.indexName, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		return nil, fmt.Errorf("search error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var decoded struct {
		Value []struct {
			Title   string `json:"title"`
			Content string `json:"content"`
			Chunk   string `json:"chunk"`
		} `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	docs := make([]Document, 0, len(decoded.Value))
	for _, v := range decoded.Value {
		content := v.Content
		if content == "" {
			content = v.Chunk
		}
		docs = append(docs, Document{Title: v.Title, Content: content})
	}
	return docs, nil
}
