package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/geminichat/ai/chat"
	"github.com/hrygo/geminichat/ai/core/llm"
	"github.com/hrygo/geminichat/ai/metrics"
	"github.com/hrygo/geminichat/ai/session"
	"github.com/hrygo/geminichat/internal/profile"
	"github.com/hrygo/geminichat/internal/util"
	"github.com/hrygo/geminichat/server/middleware"
	apiv1 "github.com/hrygo/geminichat/server/router/api/v1"
	"github.com/hrygo/geminichat/server/router/frontend"
)

const janitorInterval = time.Minute

type Server struct {
	Profile *profile.Profile

	echoServer *echo.Echo
	apiService *apiv1.APIV1Service
	sessions   *session.Store
	metrics    *metrics.PrometheusExporter
	cancel     context.CancelFunc
}

// NewServer wires the provider, the chat pipeline and the HTTP routes.
// A provider that cannot be built (e.g. no API key) does not stop startup;
// every turn then answers with the fallback reply.
func NewServer(ctx context.Context, profile *profile.Profile) (*Server, error) {
	provider, err := llm.NewProvider(LLMConfig(profile))
	if err != nil {
		slog.Warn("Failed to initialize LLM provider, chat will answer with the fallback",
			"provider", profile.LLMProvider,
			"error", err,
		)
		provider = llm.Unavailable(profile.LLMProvider, err)
	} else {
		slog.Info("LLM provider initialized",
			"provider", provider.Name(),
			"model", profile.LLMModel,
		)
	}
	return newServer(ctx, profile, provider), nil
}

func newServer(_ context.Context, profile *profile.Profile, provider llm.Provider) *Server {
	exporter := metrics.NewPrometheusExporter(metrics.DefaultConfig())
	sessions := session.NewStore(profile.SessionCapacity, profile.SessionTTL)
	dispatcher := chat.NewDispatcher(provider,
		chat.WithMetrics(exporter),
		chat.WithDefaultModel(profile.LLMModel),
		chat.WithIntentHints(profile.IntentHints),
	)

	s := &Server{
		Profile:  profile,
		sessions: sessions,
		metrics:  exporter,
	}

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(echomw.Recover())
	echoServer.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: shortuuid.New}))
	echoServer.Use(middleware.RequestLogger(slog.Default(), func(c echo.Context) bool {
		return !util.HasPrefixes(c.Request().URL.Path, "/api")
	}))
	s.echoServer = echoServer

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	echoServer.GET("/metrics", echo.WrapHandler(exporter.Handler()))

	s.apiService = apiv1.NewAPIV1Service(profile, sessions, dispatcher, exporter)
	s.apiService.RegisterRoutes(echoServer)

	// Register the UI last so its static fallback never shadows API routes.
	frontend.NewFrontendService(profile).Serve(context.Background(), echoServer)

	return s
}

// LLMConfig maps the profile onto the provider configuration.
func LLMConfig(p *profile.Profile) *llm.Config {
	return &llm.Config{
		Provider:    p.LLMProvider,
		Model:       p.LLMModel,
		APIKey:      p.LLMAPIKey,
		BaseURL:     p.LLMBaseURL,
		MaxTokens:   p.LLMMaxTokens,
		Temperature: p.LLMTemperature,
		Timeout:     p.LLMTimeout,
	}
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	var address, network string
	if len(s.Profile.UNIXSock) == 0 {
		address = fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
		network = "tcp"
	} else {
		address = s.Profile.UNIXSock
		network = "unix"
	}
	listener, err := net.Listen(network, address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s %s: %w", network, address, err)
	}
	s.echoServer.Listener = listener

	bgCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.sessions.RunJanitor(bgCtx, janitorInterval)
	if s.apiService.ChatLimiter != nil {
		go s.runLimiterCleanup(bgCtx)
	}

	go func() {
		if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	return nil
}

func (s *Server) runLimiterCleanup(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.apiService.ChatLimiter.Cleanup()
		}
	}
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")

	if s.cancel != nil {
		s.cancel()
	}
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	slog.Info("server stopped properly")
}

// GetEcho returns the echo server instance.
func (s *Server) GetEcho() *echo.Echo {
	return s.echoServer
}
