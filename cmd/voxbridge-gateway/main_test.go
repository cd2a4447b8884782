package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/voxbridge-ai/voxbridge/pkg/gateway/config"
	gatewayserver "github.com/voxbridge-ai/voxbridge/pkg/gateway/server"
)

func testGatewayConfig() config.Config {
	return config.Config{
		Addr:                "127.0.0.1:0",
		UpstreamEndpoint:    "https://voice.example.com",
		UpstreamAPIVersion:  "2025-05-01-preview",
		UpstreamModel:       "gpt-4o-realtime-preview",
		UpstreamAPIKey:      "test-key",
		VoiceName:           "en-US-AvaMultilingualNeural",
		AvatarTimeout:       time.Second,
		WSWriteTimeout:      time.Second,
		ReadHeaderTimeout:   time.Second,
		ShutdownGracePeriod: 2 * time.Second,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunGateway_RejectsMissingDependencies(t *testing.T) {
	t.Parallel()

	base := func() gatewayDeps {
		return gatewayDeps{
			loadConfig:   func() (config.Config, error) { return testGatewayConfig(), nil },
			newGateway:   gatewayserver.New,
			signalNotify: func(chan<- os.Signal, ...os.Signal) {},
			signalStop:   func(chan<- os.Signal) {},
		}
	}

	cases := []struct {
		name   string
		mutate func(*gatewayDeps)
	}{
		{"loadConfig", func(d *gatewayDeps) { d.loadConfig = nil }},
		{"newGateway", func(d *gatewayDeps) { d.newGateway = nil }},
		{"signalNotify", func(d *gatewayDeps) { d.signalNotify = nil }},
		{"signalStop", func(d *gatewayDeps) { d.signalStop = nil }},
	}
	for _, tc := range cases {
		deps := base()
		tc.mutate(&deps)
		if err := runGateway(context.Background(), discardLogger(), deps); err == nil {
			t.Fatalf("%s: expected error for missing dependency", tc.name)
		}
	}
}

func TestRunGateway_PropagatesConfigLoadError(t *testing.T) {
	t.Parallel()

	err := runGateway(context.Background(), discardLogger(), gatewayDeps{
		loadConfig: func() (config.Config, error) {
			return config.Config{}, errors.New("boom")
		},
		newGateway: func(cfg config.Config, logger *slog.Logger) (*gatewayserver.Server, error) {
			t.Fatalf("newGateway should not be called when config load fails")
			return nil, nil
		},
		signalNotify: func(chan<- os.Signal, ...os.Signal) {},
		signalStop:   func(chan<- os.Signal) {},
	})
	if err == nil || err.Error() != "load config: boom" {
		t.Fatalf("err=%v, want load config: boom", err)
	}
}

func TestRunGateway_ShutsDownOnSignal(t *testing.T) {
	t.Parallel()

	deps := gatewayDeps{
		loadConfig: func() (config.Config, error) { return testGatewayConfig(), nil },
		newGateway: gatewayserver.New,
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {
			go func() {
				time.Sleep(50 * time.Millisecond)
				c <- os.Interrupt
			}()
		},
		signalStop: func(chan<- os.Signal) {},
	}

	done := make(chan error, 1)
	go func() {
		done <- runGateway(context.Background(), discardLogger(), deps)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runGateway returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("gateway did not shut down after signal")
	}
}

func TestRunMain_ReturnsNonZeroWhenConfigLoadFails(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	exitCode := runMain(context.Background(), &stderr, gatewayDeps{
		loadConfig: func() (config.Config, error) {
			return config.Config{}, errors.New("boom")
		},
		newGateway: func(cfg config.Config, logger *slog.Logger) (*gatewayserver.Server, error) {
			t.Fatalf("newGateway should not be called when config load fails")
			return nil, nil
		},
		signalNotify: func(chan<- os.Signal, ...os.Signal) {},
		signalStop:   func(chan<- os.Signal) {},
	})

	if exitCode != 1 {
		t.Fatalf("exitCode=%d, want 1", exitCode)
	}
	if got := stderr.String(); got == "" {
		t.Fatalf("expected stderr output for startup error")
	}
}

func TestBuildHTTPServer_UsesConfiguredAddress(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		Addr:              "127.0.0.1:9999",
		ReadHeaderTimeout: 2 * time.Second,
	}

	srv := buildHTTPServer(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	if srv.Addr != cfg.Addr {
		t.Fatalf("Addr=%q, want %q", srv.Addr, cfg.Addr)
	}
	if srv.ReadHeaderTimeout != cfg.ReadHeaderTimeout {
		t.Fatalf("ReadHeaderTimeout=%v, want %v", srv.ReadHeaderTimeout, cfg.ReadHeaderTimeout)
	}
}

func TestGatewayHandlerStack_Smoke(t *testing.T) {
	t.Parallel()

	gw, err := gatewayserver.New(testGatewayConfig(), discardLogger())
	if err != nil {
		t.Fatalf("build gateway: %v", err)
	}

	ts := httptest.NewServer(gw.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d, want %d", resp.StatusCode, http.StatusOK)
	}
}
