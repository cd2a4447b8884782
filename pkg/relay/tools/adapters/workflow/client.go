// Package workflow is a thin client for the externally hosted business
// workflows: delivery-order creation and call-log analysis. Each workflow is
// exposed as a single HTTP trigger URL.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client calls the workflow trigger endpoints.
type Client struct {
	deliveryURL string
	analysisURL string
	httpClient  *http.Client
}

// NewClient builds a client from the two trigger URLs. Either may be empty,
// leaving the corresponding workflow unconfigured.
func NewClient(deliveryURL, analysisURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		deliveryURL: strings.TrimSpace(deliveryURL),
		analysisURL: strings.TrimSpace(analysisURL),
		httpClient:  httpClient,
	}
}

// DeliveryConfigured reports whether the delivery-order workflow is reachable.
func (c *Client) DeliveryConfigured() bool {
	return c != nil && c.deliveryURL != ""
}

// AnalysisConfigured reports whether the call-log analysis workflow is
// reachable.
func (c *Client) AnalysisConfigured() bool {
	return c != nil && c.analysisURL != ""
}

// CreateDeliveryOrder triggers the delivery workflow and returns its textual
// response.
func (c *Client) CreateDeliveryOrder(ctx context.Context, orderID, destination string) (string, error) {
	if !c.DeliveryConfigured() {
		return "", fmt.Errorf("delivery workflow is not configured")
	}
	return c.trigger(ctx, c.deliveryURL, map[string]string{
		"order_id":    orderID,
		"destination": destination,
	})
}

// AnalyzeCallLog triggers the analysis workflow with the raw log text and
// returns its textual response.
func (c *Client) AnalyzeCallLog(ctx context.Context, callLog string) (string, error) {
	if !c.AnalysisConfigured() {
		return "", fmt.Errorf("call-log analysis workflow is not configured")
	}
	return c.trigger(ctx, c.analysisURL, map[string]string{
		"call_log": callLog,
	})
}

func (c *Client) trigger(ctx context.Context, url string, payload map[string]string) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(io.LimitReader(resp.Body, 65536))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("workflow error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return strings.TrimSpace(string(b)), nil
}
