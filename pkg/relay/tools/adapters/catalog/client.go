// Package catalog is a thin client for the e-commerce catalog service:
// product listing, price-bounded search, and order placement.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Product is one catalog entry.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}

// Order is a placed order acknowledgement.
type Order struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Status    string `json:"status"`
}

// Client calls the catalog REST API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for the catalog service at baseURL.
func NewClient(apiKey, baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Configured reports whether the client has a base URL to call.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// ProductsByCategory lists the products in one category.
func (c *Client) ProductsByCategory(ctx context.Context, category string) ([]Product, error) {
	q := url.Values{"category": {category}}
	var products []Product
	if err := c.get(ctx, "/products?"+q.Encode(), &products); err != nil {
		return nil, err
	}
	return products, nil
}

// SearchProducts lists products in a category at or below maxPrice.
func (c *Client) SearchProducts(ctx context.Context, category string, maxPrice float64) ([]Product, error) {
	q := url.Values{
		"category":  {category},
		"max_price": {strconv.FormatFloat(maxPrice, 'f', -1, 64)},
	}
	var products []Product
	if err := c.get(ctx, "/products/search?"+q.Encode(), &products); err != nil {
		return nil, err
	}
	return products, nil
}

// PlaceOrder orders quantity units of a product.
func (c *Client) PlaceOrder(ctx context.Context, productID string, quantity int) (Order, error) {
	if !c.Configured() {
		return Order{}, fmt.Errorf("catalog service is not configured")
	}
	body, err := json.Marshal(map[string]any{
		"product_id": productID,
		"quantity":   quantity,
	})
	if err != nil {
		return Order{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return Order{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Order{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		return Order{}, fmt.Errorf("catalog error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return Order{}, fmt.Errorf("decode response: %w", err)
	}
	return order, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if !c.Configured() {
		return fmt.Errorf("catalog service is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		return fmt.Errorf("catalog error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}
}
