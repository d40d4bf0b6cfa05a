package handle

import (
	"net/http"
	"time"
)

var startedAt = time.Now()

// Health — базовый liveness-эндпоинт.
func (h *Handle) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if h.cfg.OpenRouterAPIKey == "" {
		// без ключа детекции сервис работает только на эвристиках
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  status,
		"service": "skin-analyzer",
	})
}

// HealthDetailed — статус по компонентам.
func (h *Handle) HealthDetailed(w http.ResponseWriter, r *http.Request) {
	components := map[string]any{
		"openrouter": map[string]any{"configured": h.cfg.OpenRouterAPIKey != ""},
		"pixelbin":   map[string]any{"configured": h.pixelbin.Enabled()},
		"sam":        map[string]any{"configured": h.sam.Enabled()},
		"gemini":     map[string]any{"configured": h.cfg.GeminiAPIKey != ""},
		"store":      map[string]any{"enabled": h.repo != nil},
		"redis":      map[string]any{"enabled": h.images.Enabled()},
	}
	status := "healthy"
	if h.cfg.OpenRouterAPIKey == "" {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         status,
		"service":        "skin-analyzer",
		"uptime_seconds": int(time.Since(startedAt).Seconds()),
		"components":     components,
	})
}
