package config

import (
	"testing"
	"time"
)

func TestLoadFromEnvRequiresEndpoint(t *testing.T) {
	t.Setenv("VOX_GATEWAY_UPSTREAM_ENDPOINT", "")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error when upstream endpoint is unset")
	}
}

func TestLoadFromEnvDefaults(t *testing.T) {
	t.Setenv("VOX_GATEWAY_UPSTREAM_ENDPOINT", "https://myresource.cognitiveservices.azure.com")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Addr)
	}
	if cfg.AvatarTimeout != 20*time.Second {
		t.Fatalf("unexpected avatar timeout %v", cfg.AvatarTimeout)
	}
	if cfg.QueueLimit != 1024 {
		t.Fatalf("unexpected queue limit %d", cfg.QueueLimit)
	}
	if cfg.UpstreamModel == "" || cfg.UpstreamAPIVersion == "" {
		t.Fatal("model and api version must default to non-empty values")
	}
}

func TestLoadFromEnvRejectsBadEndpoint(t *testing.T) {
	t.Setenv("VOX_GATEWAY_UPSTREAM_ENDPOINT", "not a url")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error for invalid endpoint URL")
	}
}

func TestLoadFromEnvSearchIndexRequiredWithEndpoint(t *testing.T) {
	t.Setenv("VOX_GATEWAY_UPSTREAM_ENDPOINT", "https://myresource.cognitiveservices.azure.com")
	t.Setenv("VOX_GATEWAY_SEARCH_ENDPOINT", "https://mysearch.search.windows.net")
	t.Setenv("VOX_GATEWAY_SEARCH_INDEX", "")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error when search endpoint is set without an index")
	}
}

func TestLoadFromEnvParsesCORSOrigins(t *testing.T) {
	t.Setenv("VOX_GATEWAY_UPSTREAM_ENDPOINT", "https://myresource.cognitiveservices.azure.com")
	t.Setenv("VOX_GATEWAY_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}
	if _, ok := cfg.CORSAllowedOrigins["https://b.example"]; !ok {
		t.Fatal("missing trimmed origin")
	}
}
