// Package handle — HTTP-ручки сервиса анализа кожи.
package handle

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"skin-analyzer/api/internal/analysis"
	"skin-analyzer/api/internal/analysis/pixelbin"
	"skin-analyzer/api/internal/analysis/sam"
	"skin-analyzer/api/internal/cache"
	"skin-analyzer/api/internal/config"
	"skin-analyzer/api/internal/store"
)

// Свежесть кэша результатов анализа.
const cacheMaxAge = 24 * time.Hour

// ReportGenerator — генератор текстового отчёта по оценкам.
type ReportGenerator interface {
	GenerateReport(ctx context.Context, data analysis.SkinData, opt analysis.Options, language string) string
}

type Handle struct {
	engs     *analysis.Engines
	reporter ReportGenerator
	pixelbin *pixelbin.Client
	sam      *sam.Client
	repo     *store.AnalysisRepo // nil — кэш выключен
	images   *cache.ImageCache
	cfg      *config.Config
	log      *zap.SugaredLogger

	mu      sync.RWMutex
	runtime analysis.RuntimeConfig
}

func New(engs *analysis.Engines, reporter ReportGenerator, pb *pixelbin.Client, sm *sam.Client, repo *store.AnalysisRepo, images *cache.ImageCache, cfg *config.Config, log *zap.SugaredLogger) *Handle {
	return &Handle{
		engs:     engs,
		reporter: reporter,
		pixelbin: pb,
		sam:      sm,
		repo:     repo,
		images:   images,
		cfg:      cfg,
		log:      log,
		runtime:  analysis.DefaultRuntimeConfig(),
	}
}

// Runtime возвращает снимок текущей конфигурации анализа.
func (h *Handle) Runtime() analysis.RuntimeConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.runtime
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"success": false, "error": msg})
}
