package handle

import (
	"net/http"
	"strings"

	"skin-analyzer/api/internal/analysis"
)

type modelOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// modelLabel делает читаемое имя из идентификатора модели.
func modelLabel(model string) string {
	label := model
	label = strings.TrimPrefix(label, "x-ai/")
	label = strings.TrimPrefix(label, "google/")
	label = strings.ReplaceAll(label, ":free", " (бесплатно)")
	return label
}

// ModelsAvailable отдаёт список моделей для каждого провайдера.
func (h *Handle) ModelsAvailable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}

	var openrouter []modelOption
	for _, fb := range analysis.DetectionFallbacks {
		if fb.Provider != "openrouter" {
			continue
		}
		openrouter = append(openrouter, modelOption{Value: fb.Model, Label: modelLabel(fb.Model)})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"models": map[string]any{
			"openrouter": map[string]any{
				"vision": openrouter,
				"text":   openrouter,
			},
		},
		"detection_fallbacks": analysis.DetectionFallbacks,
	})
}
