// Package server wires the gateway: tool capability clients, upstream
// credentials, the session registry, and the HTTP routes.
package server

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/voxbridge-ai/voxbridge/pkg/gateway/config"
	"github.com/voxbridge-ai/voxbridge/pkg/gateway/handlers"
	"github.com/voxbridge-ai/voxbridge/pkg/relay/protocol"
	"github.com/voxbridge-ai/voxbridge/pkg/relay/session"
	"github.com/voxbridge-ai/voxbridge/pkg/relay/tools"
	"github.com/voxbridge-ai/voxbridge/pkg/relay/tools/adapters/catalog"
	"github.com/voxbridge-ai/voxbridge/pkg/relay/tools/adapters/search"
	"github.com/voxbridge-ai/voxbridge/pkg/relay/tools/adapters/workflow"
)

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux

	sessions *session.Registry
}

func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: 10 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	credentials, err := buildCredentials(cfg)
	if err != nil {
		return nil, err
	}

	sessionCfg := session.Config{
		Endpoint:      cfg.UpstreamEndpoint,
		APIVersion:    cfg.UpstreamAPIVersion,
		Model:         cfg.UpstreamModel,
		Credentials:   credentials,
		Session:       buildSessionConfig(cfg),
		Tools:         buildToolRegistry(cfg, httpClient, logger),
		Logger:        logger,
		AvatarTimeout: cfg.AvatarTimeout,
		QueueLimit:    cfg.QueueLimit,
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		mux:      http.NewServeMux(),
		sessions: session.NewRegistry(sessionCfg, logger),
	}
	s.routes()
	return s, nil
}

func buildCredentials(cfg config.Config) (session.Credentials, error) {
	if cfg.UpstreamAPIKey != "" {
		return session.Credentials{APIKey: cfg.UpstreamAPIKey}, nil
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return session.Credentials{}, fmt.Errorf("build azure credential: %w", err)
	}
	return session.Credentials{Tokens: session.NewAzureTokenProvider(cred)}, nil
}

func buildSessionConfig(cfg config.Config) protocol.SessionConfig {
	sc := protocol.SessionConfig{
		Instructions: cfg.Instructions,
		Modalities:   []string{"text", "audio"},
		Voice: &protocol.VoiceConfig{
			Name: cfg.VoiceName,
			Type: "azure-standard",
		},
		InputAudioTranscription: &protocol.AudioTranscription{Model: "whisper-1"},
		TurnDetection: &protocol.TurnDetection{
			Type:              "server_vad",
			Threshold:         0.5,
			PrefixPaddingMS:   300,
			SilenceDurationMS: 500,
		},
	}
	if cfg.AvatarCharacter != "" {
		sc.Avatar = &protocol.AvatarConfig{
			Character: cfg.AvatarCharacter,
			Style:     cfg.AvatarStyle,
		}
	}
	return sc
}

// buildToolRegistry registers every capability that has a configured backend.
func buildToolRegistry(cfg config.Config, httpClient *http.Client, logger *slog.Logger) *tools.Registry {
	var executors []tools.Executor

	if cfg.SearchEndpoint != "" {
		index := search.NewClient(cfg.SearchAPIKey, cfg.SearchEndpoint, cfg.SearchIndex, httpClient)
		executors = append(executors, tools.NewSearchQnAExecutor(index, logger))
	}

	workflows := workflow.NewClient(cfg.DeliveryWorkflowURL, cfg.AnalysisWorkflowURL, httpClient)
	if workflows.DeliveryConfigured() {
		executors = append(executors, tools.NewDeliveryOrderExecutor(workflows))
	}
	if workflows.AnalysisConfigured() {
		executors = append(executors, tools.NewCallLogExecutor(workflows))
	}

	if cfg.CatalogBaseURL != "" {
		shop := catalog.NewClient(cfg.CatalogAPIKey, cfg.CatalogBaseURL, httpClient)
		executors = append(executors,
			tools.NewProductsByCategoryExecutor(shop),
			tools.NewProductSearchExecutor(shop),
			tools.NewPlaceOrderExecutor(shop),
		)
	}

	return tools.NewRegistry(executors...)
}

func (s *Server) routes() {
	s.mux.Handle("/healthz", handlers.HealthHandler{})
	s.mux.Handle("/v1/live", handlers.LiveHandler{
		Config:   s.cfg,
		Registry: s.sessions,
		Logger:   s.logger,
	})
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Sessions exposes the registry for shutdown sweeps.
func (s *Server) Sessions() *session.Registry {
	return s.sessions
}

// CloseSessions tears down every live session.
func (s *Server) CloseSessions() {
	s.sessions.CloseAll()
}
