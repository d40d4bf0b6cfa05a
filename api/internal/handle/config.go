package handle

import (
	"encoding/json"
	"net/http"
)

// configPatch — частичное обновление runtime-конфигурации: трогаем
// только присланные поля.
type configPatch struct {
	DetectionProvider *string  `json:"detection_provider"`
	LLMProvider       *string  `json:"llm_provider"`
	VisionModel       *string  `json:"vision_model"`
	TextModel         *string  `json:"text_model"`
	Temperature       *float64 `json:"temperature"`
	MaxTokens         *int     `json:"max_tokens"`
	Language          *string  `json:"language"`
}

func (h *Handle) applyPatch(p configPatch) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if p.DetectionProvider != nil {
		h.runtime.DetectionProvider = *p.DetectionProvider
	}
	if p.LLMProvider != nil {
		h.runtime.LLMProvider = *p.LLMProvider
	}
	if p.VisionModel != nil {
		h.runtime.VisionModel = *p.VisionModel
	}
	if p.TextModel != nil {
		h.runtime.TextModel = *p.TextModel
	}
	if p.Temperature != nil {
		h.runtime.Temperature = *p.Temperature
	}
	if p.MaxTokens != nil {
		h.runtime.MaxTokens = *p.MaxTokens
	}
	if p.Language != nil {
		h.runtime.Language = *p.Language
	}
}

// Config обслуживает GET (чтение) и POST (частичное обновление) /api/config.
func (h *Handle) Config(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "config": h.Runtime()})
	case http.MethodPost:
		var patch configPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
			return
		}
		h.applyPatch(patch)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "config": h.Runtime()})
	default:
		http.Error(w, "GET or POST only", http.StatusMethodNotAllowed)
	}
}

type keyStatus struct {
	Available bool `json:"available"`
	Length    int  `json:"length"`
}

// EnvCheck — диагностика ключей: только наличие и длина, значения не светим.
func (h *Handle) EnvCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}
	vars := map[string]keyStatus{
		"OPENROUTER_API_KEY":    {Available: h.cfg.OpenRouterAPIKey != "", Length: len(h.cfg.OpenRouterAPIKey)},
		"PIXELBIN_ACCESS_TOKEN": {Available: h.cfg.PixelbinAccessToken != "", Length: len(h.cfg.PixelbinAccessToken)},
		"FAL_KEY":               {Available: h.cfg.FALKey != "", Length: len(h.cfg.FALKey)},
		"GEMINI_API_KEY":        {Available: h.cfg.GeminiAPIKey != "", Length: len(h.cfg.GeminiAPIKey)},
		"TELEGRAM_BOT_TOKEN":    {Available: h.cfg.TelegramBotToken != "", Length: len(h.cfg.TelegramBotToken)},
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"variables": vars,
		"host":      h.cfg.Host,
		"port":      h.cfg.Port,
	})
}
