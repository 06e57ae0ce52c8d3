package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/geminichat/ai/chat"
	"github.com/hrygo/geminichat/ai/core/llm"
	"github.com/hrygo/geminichat/ai/format"
	"github.com/hrygo/geminichat/ai/metrics"
	"github.com/hrygo/geminichat/ai/session"
	"github.com/hrygo/geminichat/internal/profile"
)

type fakeSender struct {
	mu       sync.Mutex
	decision format.Decision
	err      error
	calls    []string
	models   []string
	entered  chan struct{}
	release  chan struct{}
	panicMsg string
}

func (f *fakeSender) Dispatch(_ context.Context, message, modelID string) (format.Decision, error) {
	f.mu.Lock()
	f.calls = append(f.calls, message)
	f.models = append(f.models, modelID)
	f.mu.Unlock()
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	return f.decision, f.err
}

func testProfile() *profile.Profile {
	return &profile.Profile{
		Mode:        "dev",
		Version:     "0.1.0-dev",
		LLMProvider: "gemini",
		LLMAPIKey:   "k",
		LLMModel:    llm.DefaultModel,
		SessionTTL:  time.Minute,
	}
}

func newTestServer(t *testing.T, p *profile.Profile, sender chat.Sender) (*echo.Echo, *APIV1Service) {
	t.Helper()
	svc := NewAPIV1Service(p, session.NewStore(10, time.Minute), sender, metrics.NewPrometheusExporter(metrics.DefaultConfig()))
	e := echo.New()
	svc.RegisterRoutes(e)
	return e, svc
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestChat_CodeReply(t *testing.T) {
	sender := &fakeSender{decision: format.Decision{Content: "def add(a,b): return a+b", Format: format.FormatCode, Language: "python"}}
	e, svc := newTestServer(t, testProfile(), sender)

	rec := do(e, http.MethodPost, "/api/v1/chat?render=html", `{"message":"write a function to add two numbers"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[ChatResponse](t, rec)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, llm.DefaultModel, resp.Model)
	assert.False(t, resp.Error)
	assert.Equal(t, session.RoleAssistant, resp.Turn.Role)
	assert.Equal(t, format.FormatCode, resp.Turn.Format)
	assert.Equal(t, "python", resp.Turn.Language)
	assert.Equal(t, "def add(a,b): return a+b", resp.Turn.Content)
	assert.Contains(t, resp.Turn.HTML, `data-language="python"`)

	sess, ok := svc.Sessions.Get(resp.SessionID)
	require.True(t, ok)
	turns := sess.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, session.RoleUser, turns[0].Role)
	assert.Equal(t, format.FormatText, turns[0].Format)
	assert.Equal(t, "write a function to add two numbers", turns[0].Content)
	assert.Equal(t, []string{llm.DefaultModel}, sender.models)
}

func TestChat_ProviderFailure(t *testing.T) {
	sender := &fakeSender{err: &chat.RequestFailedError{Kind: chat.KindProvider, Err: errors.New("quota")}}
	e, _ := newTestServer(t, testProfile(), sender)

	rec := do(e, http.MethodPost, "/api/v1/chat", `{"message":"hi","model":"gemini-1.5-flash"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[ChatResponse](t, rec)
	assert.True(t, resp.Error)
	assert.Equal(t, "provider", resp.ErrorKind)
	assert.Equal(t, chat.FallbackContent, resp.Turn.Content)
	assert.Equal(t, format.FormatText, resp.Turn.Format)
	assert.Empty(t, resp.Turn.Language)
	assert.Empty(t, resp.Turn.HTML)
	assert.Equal(t, "gemini-1.5-flash", resp.Model)
}

func TestChat_PanicFailsClosed(t *testing.T) {
	e, svc := newTestServer(t, testProfile(), &fakeSender{panicMsg: "nil pointer in client"})

	rec := do(e, http.MethodPost, "/api/v1/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[ChatResponse](t, rec)
	assert.True(t, resp.Error)
	assert.Equal(t, "internal", resp.ErrorKind)
	assert.Equal(t, chat.FallbackContent, resp.Turn.Content)
	assert.Equal(t, format.FormatText, resp.Turn.Format)

	sess, ok := svc.Sessions.Get(resp.SessionID)
	require.True(t, ok)
	assert.Equal(t, 2, sess.Len(), "fallback turn is recorded")
	assert.True(t, sess.TryBegin(), "in-flight claim released after the panic")
	sess.End()
}

func TestChat_RejectsBadRequests(t *testing.T) {
	sender := &fakeSender{decision: format.Decision{Content: "x", Format: format.FormatText}}
	e, _ := newTestServer(t, testProfile(), sender)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"blank message", `{"message":"   \n"}`, http.StatusBadRequest},
		{"missing message", `{}`, http.StatusBadRequest},
		{"malformed json", `{"message":`, http.StatusBadRequest},
		{"unknown session", `{"session_id":"nope","message":"hi"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodPost, "/api/v1/chat", tt.body)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
	assert.Empty(t, sender.calls, "rejected requests never reach the provider")
}

func TestChat_OneRequestInFlightPerSession(t *testing.T) {
	sender := &fakeSender{
		decision: format.Decision{Content: "done", Format: format.FormatText},
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	e, svc := newTestServer(t, testProfile(), sender)
	sess := svc.Sessions.Create()
	body := `{"session_id":"` + sess.ID + `","message":"first"}`

	first := make(chan int, 1)
	go func() { first <- do(e, http.MethodPost, "/api/v1/chat", body).Code }()
	<-sender.entered

	rec := do(e, http.MethodPost, "/api/v1/chat", `{"session_id":"`+sess.ID+`","message":"second"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(sender.release)
	assert.Equal(t, http.StatusOK, <-first)

	turns := sess.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "first", turns[0].Content)
	assert.Equal(t, "done", turns[1].Content)
}

func TestChat_RateLimited(t *testing.T) {
	p := testProfile()
	p.RateLimit = 0.001
	p.RateBurst = 1
	sender := &fakeSender{decision: format.Decision{Content: "x", Format: format.FormatText}}
	e, _ := newTestServer(t, p, sender)

	assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/api/v1/chat", `{"message":"one"}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(e, http.MethodPost, "/api/v1/chat", `{"message":"two"}`).Code)
}

func TestSessionsAndTurns(t *testing.T) {
	sender := &fakeSender{decision: format.Decision{Content: "# Hello", Format: format.FormatMarkdown}}
	e, _ := newTestServer(t, testProfile(), sender)

	rec := do(e, http.MethodPost, "/api/v1/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[CreateSessionResponse](t, rec)
	require.NotEmpty(t, created.SessionID)

	rec = do(e, http.MethodPost, "/api/v1/chat", `{"session_id":"`+created.SessionID+`","message":"greet me"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/sessions/"+created.SessionID+"/turns?render=html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[ListTurnsResponse](t, rec)
	require.Len(t, list.Turns, 2)
	assert.Contains(t, list.Turns[0].HTML, "greet me")
	assert.Contains(t, list.Turns[1].HTML, "<h1>Hello</h1>")

	rec = do(e, http.MethodGet, "/api/v1/sessions/"+created.SessionID+"/turns", "")
	list = decode[ListTurnsResponse](t, rec)
	assert.Empty(t, list.Turns[1].HTML)

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/api/v1/sessions/missing/turns", "").Code)
}

func TestListModels(t *testing.T) {
	e, _ := newTestServer(t, testProfile(), &fakeSender{})

	resp := decode[ModelsResponse](t, do(e, http.MethodGet, "/api/v1/models", ""))
	assert.Equal(t, llm.DefaultModel, resp.Default)
	assert.Equal(t, llm.SupportedModels, resp.Models)

	p := testProfile()
	p.LLMModel = "deepseek-chat"
	e, _ = newTestServer(t, p, &fakeSender{})
	resp = decode[ModelsResponse](t, do(e, http.MethodGet, "/api/v1/models", ""))
	assert.Equal(t, "deepseek-chat", resp.Default)
	require.Len(t, resp.Models, len(llm.SupportedModels)+1)
	assert.Equal(t, "deepseek-chat", resp.Models[0].ID)
}

func TestGetStatus(t *testing.T) {
	e, _ := newTestServer(t, testProfile(), &fakeSender{})

	rec := do(e, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[StatusResponse](t, rec)
	assert.Equal(t, "0.1.0-dev", resp.Version)
	assert.True(t, resp.Prerelease)
	assert.Equal(t, "gemini", resp.Provider)
	assert.Equal(t, llm.DefaultModel, resp.DefaultModel)
	assert.True(t, resp.AIEnabled)
}
