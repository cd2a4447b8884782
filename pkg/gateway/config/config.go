// Package config loads gateway settings from the environment with fail-fast
// validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr string

	// Upstream voice-live endpoint.
	UpstreamEndpoint   string
	UpstreamAPIVersion string
	UpstreamModel      string
	// UpstreamAPIKey authenticates with a static key; when empty the gateway
	// mints bearer tokens from the ambient Azure credential chain.
	UpstreamAPIKey string

	// Session persona and media defaults.
	Instructions    string
	VoiceName       string
	AvatarCharacter string
	AvatarStyle     string

	AvatarTimeout time.Duration
	QueueLimit    int

	// Tool capability backends. An empty URL leaves that capability
	// unregistered.
	SearchEndpoint      string
	SearchIndex         string
	SearchAPIKey        string
	DeliveryWorkflowURL string
	AnalysisWorkflowURL string
	CatalogBaseURL      string
	CatalogAPIKey       string

	// CORS allowlist for the browser websocket; empty means same-origin only.
	CORSAllowedOrigins map[string]struct{}

	WSWriteTimeout      time.Duration
	ReadHeaderTimeout   time.Duration
	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                envOr("VOX_GATEWAY_ADDR", ":8080"),
		UpstreamEndpoint:    envOr("VOX_GATEWAY_UPSTREAM_ENDPOINT", ""),
		UpstreamAPIVersion:  envOr("VOX_GATEWAY_UPSTREAM_API_VERSION", "2025-05-01-preview"),
		UpstreamModel:       envOr("VOX_GATEWAY_UPSTREAM_MODEL", "gpt-4o-realtime-preview"),
		UpstreamAPIKey:      envOr("VOX_GATEWAY_UPSTREAM_API_KEY", ""),
		Instructions:        envOr("VOX_GATEWAY_INSTRUCTIONS", ""),
		VoiceName:           envOr("VOX_GATEWAY_VOICE", "en-US-AvaMultilingualNeural"),
		AvatarCharacter:     envOr("VOX_GATEWAY_AVATAR_CHARACTER", ""),
		AvatarStyle:         envOr("VOX_GATEWAY_AVATAR_STYLE", ""),
		AvatarTimeout:       envDurationOr("VOX_GATEWAY_AVATAR_TIMEOUT", 20*time.Second),
		QueueLimit:          envIntOr("VOX_GATEWAY_EVENT_QUEUE_LIMIT", 1024),
		SearchEndpoint:      envOr("VOX_GATEWAY_SEARCH_ENDPOINT", ""),
		SearchIndex:         envOr("VOX_GATEWAY_SEARCH_INDEX", ""),
		SearchAPIKey:        envOr("VOX_GATEWAY_SEARCH_API_KEY", ""),
		DeliveryWorkflowURL: envOr("VOX_GATEWAY_DELIVERY_WORKFLOW_URL", ""),
		AnalysisWorkflowURL: envOr("VOX_GATEWAY_ANALYSIS_WORKFLOW_URL", ""),
		CatalogBaseURL:      envOr("VOX_GATEWAY_CATALOG_BASE_URL", ""),
		CatalogAPIKey:       envOr("VOX_GATEWAY_CATALOG_API_KEY", ""),
		CORSAllowedOrigins:  make(map[string]struct{}),
		WSWriteTimeout:      envDurationOr("VOX_GATEWAY_WS_WRITE_TIMEOUT", 5*time.Second),
		ReadHeaderTimeout:   envDurationOr("VOX_GATEWAY_READ_HEADER_TIMEOUT", 10*time.Second),
		ShutdownGracePeriod: envDurationOr("VOX_GATEWAY_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
	}

	for _, origin := range splitCSV(os.Getenv("VOX_GATEWAY_CORS_ORIGINS")) {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	if cfg.UpstreamEndpoint == "" {
		return Config{}, fmt.Errorf("VOX_GATEWAY_UPSTREAM_ENDPOINT must be set")
	}
	if u, err := url.Parse(cfg.UpstreamEndpoint); err != nil || u.Host == "" {
		return Config{}, fmt.Errorf("VOX_GATEWAY_UPSTREAM_ENDPOINT must be a valid URL")
	}
	if cfg.UpstreamAPIVersion == "" {
		return Config{}, fmt.Errorf("VOX_GATEWAY_UPSTREAM_API_VERSION must not be empty")
	}
	if cfg.UpstreamModel == "" {
		return Config{}, fmt.Errorf("VOX_GATEWAY_UPSTREAM_MODEL must not be empty")
	}
	if cfg.AvatarTimeout <= 0 {
		return Config{}, fmt.Errorf("VOX_GATEWAY_AVATAR_TIMEOUT must be > 0")
	}
	if cfg.QueueLimit <= 0 {
		return Config{}, fmt.Errorf("VOX_GATEWAY_EVENT_QUEUE_LIMIT must be > 0")
	}
	if cfg.SearchEndpoint != "" && cfg.SearchIndex == "" {
		return Config{}, fmt.Errorf("VOX_GATEWAY_SEARCH_INDEX must be set when VOX_GATEWAY_SEARCH_ENDPOINT is set")
	}
	if cfg.WSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("VOX_GATEWAY_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("VOX_GATEWAY_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("VOX_GATEWAY_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
