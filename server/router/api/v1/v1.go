package v1

import (
	"github.com/labstack/echo/v4"

	"github.com/hrygo/geminichat/ai/chat"
	"github.com/hrygo/geminichat/ai/core/llm"
	"github.com/hrygo/geminichat/ai/metrics"
	"github.com/hrygo/geminichat/ai/session"
	"github.com/hrygo/geminichat/internal/profile"
	"github.com/hrygo/geminichat/server/middleware"
)

type APIV1Service struct {
	Profile  *profile.Profile
	Sessions *session.Store
	Sender   chat.Sender
	Metrics  *metrics.PrometheusExporter

	// ChatLimiter throttles POST /chat per client IP. Nil disables it.
	ChatLimiter *middleware.RateLimiter
}

func NewAPIV1Service(profile *profile.Profile, sessions *session.Store, sender chat.Sender, m *metrics.PrometheusExporter) *APIV1Service {
	service := &APIV1Service{
		Profile:  profile,
		Sessions: sessions,
		Sender:   sender,
		Metrics:  m,
	}
	if profile.RateLimit > 0 {
		service.ChatLimiter = middleware.NewRateLimiter(profile.RateLimit, profile.RateBurst, profile.SessionTTL)
	}
	return service
}

// RegisterRoutes mounts the JSON API under /api/v1.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/status", s.GetStatus)
	g.GET("/models", s.ListModels)
	g.POST("/sessions", s.CreateSession)
	g.GET("/sessions/:id/turns", s.ListTurns)

	var chatMiddleware []echo.MiddlewareFunc
	if s.ChatLimiter != nil {
		chatMiddleware = append(chatMiddleware, s.ChatLimiter.Middleware())
	}
	g.POST("/chat", s.Chat, chatMiddleware...)
}

// defaultModel is the model used when a chat request names none.
func (s *APIV1Service) defaultModel() string {
	if s.Profile != nil && s.Profile.LLMModel != "" {
		return s.Profile.LLMModel
	}
	return llm.DefaultModel
}
