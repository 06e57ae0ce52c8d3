package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/geminichat/ai/core/llm"
	"github.com/hrygo/geminichat/internal/version"
)

type StatusResponse struct {
	Version      string `json:"version"`
	Prerelease   bool   `json:"prerelease"`
	Mode         string `json:"mode"`
	Provider     string `json:"provider"`
	DefaultModel string `json:"default_model"`
	AIEnabled    bool   `json:"ai_enabled"`
	Sessions     int    `json:"sessions"`
}

func (s *APIV1Service) GetStatus(c echo.Context) error {
	v := s.Profile.Version
	if v == "" {
		v = version.Version
	}
	return c.JSON(http.StatusOK, StatusResponse{
		Version:      v,
		Prerelease:   version.IsPrerelease(v),
		Mode:         s.Profile.Mode,
		Provider:     s.Profile.LLMProvider,
		DefaultModel: s.defaultModel(),
		AIEnabled:    s.Profile.IsAIEnabled(),
		Sessions:     s.Sessions.Len(),
	})
}

type ModelsResponse struct {
	Models  []llm.Model `json:"models"`
	Default string      `json:"default"`
}

// ListModels returns the selectable model catalogue. A configured default that
// is not in the catalogue is listed first so the picker can show it.
func (s *APIV1Service) ListModels(c echo.Context) error {
	def := s.defaultModel()
	models := make([]llm.Model, 0, len(llm.SupportedModels)+1)
	if !llm.IsSupportedModel(def) {
		models = append(models, llm.Model{ID: def, Label: def})
	}
	models = append(models, llm.SupportedModels...)
	return c.JSON(http.StatusOK, ModelsResponse{Models: models, Default: def})
}
