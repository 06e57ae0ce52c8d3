package v1

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/geminichat/ai/chat"
	"github.com/hrygo/geminichat/ai/format"
	"github.com/hrygo/geminichat/ai/observability/logging"
	"github.com/hrygo/geminichat/ai/render"
	"github.com/hrygo/geminichat/ai/session"
)

type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Model     string `json:"model"`
}

// TurnView is a turn as returned to clients, optionally with rendered HTML.
type TurnView struct {
	session.Turn
	HTML string `json:"html,omitempty"`
}

type ChatResponse struct {
	SessionID string   `json:"session_id"`
	Model     string   `json:"model"`
	Turn      TurnView `json:"turn"`
	// Error is set when the turn holds the fallback reply.
	Error     bool   `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

type CreateSessionResponse struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

type ListTurnsResponse struct {
	SessionID string     `json:"session_id"`
	Turns     []TurnView `json:"turns"`
}

func (s *APIV1Service) CreateSession(c echo.Context) error {
	sess := s.Sessions.Create()
	return c.JSON(http.StatusCreated, CreateSessionResponse{SessionID: sess.ID, CreatedAt: sess.CreatedAt})
}

func (s *APIV1Service) ListTurns(c echo.Context) error {
	sess, ok := s.Sessions.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	withHTML := c.QueryParam("render") == "html"

	turns := sess.Turns()
	views := make([]TurnView, 0, len(turns))
	for _, t := range turns {
		views = append(views, viewOf(t, withHTML))
	}
	return c.JSON(http.StatusOK, ListTurnsResponse{SessionID: sess.ID, Turns: views})
}

// Chat runs one turn. Pipeline failures still answer 200 with the fallback
// reply; only request-level problems produce error statuses.
func (s *APIV1Service) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message must not be empty")
	}

	sess, ok := s.Sessions.GetOrCreate(req.SessionID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	if !sess.TryBegin() {
		return echo.NewHTTPError(http.StatusConflict, "a request is already in flight for this session")
	}
	defer sess.End()

	model := req.Model
	if model == "" {
		model = s.defaultModel()
	}

	sess.Append(session.NewUserTurn(req.Message))

	s.Metrics.ChatStarted()
	defer s.Metrics.ChatFinished()
	start := time.Now()

	// The turn completes even if the client goes away.
	ctx := context.WithoutCancel(logging.With(c.Request().Context(),
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		"session", sess.ID,
	))
	decision, err := chat.SendMessageResult(ctx, s.Sender, req.Message, model)

	resp := ChatResponse{SessionID: sess.ID, Model: model}
	if err != nil {
		resp.Error = true
		resp.ErrorKind = string(chat.KindOf(err))
	}
	s.Metrics.RecordChatRequest(model, string(decision.Format), time.Since(start), err == nil)

	turn := session.NewAssistantTurn(decision)
	sess.Append(turn)

	resp.Turn = viewOf(turn, c.QueryParam("render") == "html")
	return c.JSON(http.StatusOK, resp)
}

func viewOf(t session.Turn, withHTML bool) TurnView {
	v := TurnView{Turn: t}
	if !withHTML {
		return v
	}
	html, err := render.HTML(t.Decision())
	if err != nil {
		slog.Warn("render: falling back to text", "turn", t.ID, "error", err)
		html, _ = render.HTML(format.Decision{Content: t.Content, Format: format.FormatText})
	}
	v.HTML = html
	return v
}
