package llm

// ProviderGemini is the Google Gemini API provider.
const ProviderGemini = "gemini"

// DefaultModel is used when a request names no model.
const DefaultModel = "gemini-2.0-flash-lite"

// Model is an entry of the model picker.
type Model struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// SupportedModels lists the models offered to users, in display order.
var SupportedModels = []Model{
	{ID: "gemini-2.0-flash", Label: "Gemini 2.0 Flash"},
	{ID: "gemini-2.0-flash-lite", Label: "Gemini 2.0 Flash Lite"},
	{ID: "gemini-1.5-flash", Label: "Gemini 1.5 Flash"},
	{ID: "gemini-1.5-flash-8b", Label: "Gemini 1.5 Flash 8B"},
}

// IsSupportedModel reports whether id is in SupportedModels.
func IsSupportedModel(id string) bool {
	for _, m := range SupportedModels {
		if m.ID == id {
			return true
		}
	}
	return false
}
