package handle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"skin-analyzer/api/internal/analysis"
	"skin-analyzer/api/internal/analysis/heuristic"
	"skin-analyzer/api/internal/analysis/pixelbin"
	"skin-analyzer/api/internal/util"
)

type analyzeRequest struct {
	Image  string       `json:"image"`
	Mode   string       `json:"mode"` // openrouter | gemini | pixelbin | sam
	Config *configPatch `json:"config"`

	SAMTimeout            int      `json:"sam_timeout"`
	SAMDiseases           []string `json:"sam_diseases"`
	SAMMaxCoveragePercent float64  `json:"sam_max_coverage_percent"`
}

type analyzeResponse struct {
	Success        bool                   `json:"success"`
	Data           analysis.SkinData      `json:"data"`
	Statistics     analysis.Statistics    `json:"statistics"`
	Report         string                 `json:"report"`
	Images         []analysis.ResultImage `json:"images"`
	Provider       string                 `json:"provider"`
	Model          string                 `json:"model"`
	Config         analysis.RuntimeConfig `json:"config"`
	UseHeuristics  bool                   `json:"use_heuristics"`
	AnalysisMethod string                 `json:"analysis_method"`
	Attempts       []string               `json:"attempts"`
	Warning        string                 `json:"warning,omitempty"`
}

// Analyze — основной эндпоинт: детекция оценок, провайдерские изображения
// по выбранному режиму, статистика и текстовый отчёт.
func (h *Handle) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Image) == "" {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}
	img, _, err := util.DecodeBase64MaybeDataURL(req.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad image: "+err.Error())
		return
	}

	rc := h.Runtime()
	if req.Config != nil {
		rc = patchedConfig(rc, *req.Config)
	}

	mode := req.Mode
	if mode == "" {
		mode = "pixelbin"
	}
	// режимы детекции переопределяют провайдера оценок
	if mode == "openrouter" || mode == "gemini" || mode == "heuristic" {
		rc.DetectionProvider = mode
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	requestID := uuid.NewString()
	hash := util.SHA256Hex(img)
	h.log.Infow("analyze request", "id", requestID, "mode", mode, "bytes", len(img))
	attempts := []string{}

	data, provider, model, warning := h.detect(ctx, img, hash, rc, &attempts)

	var images []analysis.ResultImage
	useHeuristics := false
	analysisMethod := mode

	switch mode {
	case "sam":
		images = h.runSAM(ctx, img, &req)
		attempts = append(attempts, "sam")
		if len(images) > 0 && len(images[0].SAMResults) > 0 {
			data = analysis.CombineSources([]analysis.Source{
				{Name: baseProvider(provider), Data: data},
				{Name: "sam", Data: analysis.SkinDataFromMasks(images[0].SAMResults)},
			})
		}
	case "pixelbin":
		images = h.runPixelbin(ctx, img, &attempts)
		if len(images) == 0 {
			useHeuristics = true
			analysisMethod = "heuristics"
		} else {
			var concerns []analysis.PixelbinConcern
			for _, im := range images {
				concerns = append(concerns, im.Concerns...)
			}
			if len(concerns) > 0 {
				data = analysis.CombineSources([]analysis.Source{
					{Name: baseProvider(provider), Data: data},
					{Name: "pixelbin", Data: analysis.SkinDataFromConcerns(concerns)},
				})
			}
		}
	default:
		// режимы детекции: изображений от провайдеров нет
		analysisMethod = provider
	}

	report := h.reporter.GenerateReport(ctx, data, analysis.Options{
		Model:       rc.TextModel,
		Temperature: rc.Temperature,
		MaxTokens:   rc.MaxTokens,
	}, rc.Language)

	// суффикс "+fallback" срезаем: FindByHash ищет по имени движка
	if h.repo != nil && provider != "" && provider != "none" {
		if err := h.repo.Upsert(ctx, hash, baseProvider(provider), model, data, report); err != nil {
			h.log.Warnw("cache upsert failed", "err", err)
		}
	}

	if useHeuristics {
		ha := heuristic.GenerateAnalysis(data, report)
		msg := "Использован эвристический анализ"
		if len(ha.MethodsUsed) > 0 {
			msg = "Использован эвристический анализ: " + strings.Join(ha.MethodsUsed, ", ")
		}
		images = []analysis.ResultImage{{
			Type:          "heuristic",
			Heuristic:     &ha,
			Message:       msg,
			PrimaryMethod: ha.PrimaryMethod,
			MethodsUsed:   ha.MethodsUsed,
		}}
		analysisMethod = fmt.Sprintf("heuristics (%s)", ha.PrimaryMethod)
	}

	h.log.Infow("analyze done", "id", requestID, "provider", provider, "method", analysisMethod)

	writeJSON(w, http.StatusOK, analyzeResponse{
		Success:        true,
		Data:           data,
		Statistics:     analysis.FormatStatisticsDetailed(data, images),
		Report:         report,
		Images:         images,
		Provider:       provider,
		Model:          model,
		Config:         rc,
		UseHeuristics:  useHeuristics,
		AnalysisMethod: analysisMethod,
		Attempts:       attempts,
		Warning:        warning,
	})
}

func patchedConfig(rc analysis.RuntimeConfig, p configPatch) analysis.RuntimeConfig {
	if p.DetectionProvider != nil {
		rc.DetectionProvider = *p.DetectionProvider
	}
	if p.LLMProvider != nil {
		rc.LLMProvider = *p.LLMProvider
	}
	if p.VisionModel != nil {
		rc.VisionModel = *p.VisionModel
	}
	if p.TextModel != nil {
		rc.TextModel = *p.TextModel
	}
	if p.Temperature != nil {
		rc.Temperature = *p.Temperature
	}
	if p.MaxTokens != nil {
		rc.MaxTokens = *p.MaxTokens
	}
	if p.Language != nil {
		rc.Language = *p.Language
	}
	return rc
}

// detect прогоняет цепочку детекции: выбранный провайдер, затем
// fallback-модели OpenRouter, в конце локальная эвристика. Нулевой ответ
// провайдера считается промахом. Частично нулевой успешный ответ добивается
// эвристикой, провайдер помечается суффиксом "+fallback". Каждая попытка
// записывается в attempts.
func (h *Handle) detect(ctx context.Context, img []byte, hash string, rc analysis.RuntimeConfig, attempts *[]string) (analysis.SkinData, string, string, string) {
	opt := analysis.Options{Temperature: rc.Temperature, MaxTokens: rc.MaxTokens}

	try := func(eng analysis.Engine, model string) (analysis.SkinData, bool) {
		if h.repo != nil {
			if row, err := h.repo.FindByHash(ctx, hash, eng.Name(), model, cacheMaxAge); err == nil {
				h.log.Infow("cache hit", "engine", eng.Name(), "model", model)
				return row.Data, true
			}
		}
		o := opt
		o.Model = model
		data, err := eng.Analyze(ctx, img, o)
		if err != nil {
			h.log.Warnw("detection failed", "engine", eng.Name(), "model", model, "err", err)
			return analysis.SkinData{}, false
		}
		if !data.HasSignal() {
			h.log.Warnw("detection returned all zeros", "engine", eng.Name(), "model", model)
			return analysis.SkinData{}, false
		}
		if h.repo != nil {
			_ = h.repo.Upsert(ctx, hash, eng.Name(), model, data, "")
		}
		return data, true
	}

	type step struct {
		eng   analysis.Engine
		model string
	}
	var chain []step
	switch rc.DetectionProvider {
	case "gemini":
		chain = append(chain, step{h.engs.Gemini, h.engs.Gemini.GetModel()})
		for _, m := range analysis.DetectionModels(rc.VisionModel) {
			chain = append(chain, step{h.engs.OpenRouter, m})
		}
	case "heuristic", "fallback":
		// сразу к эвристике
	default:
		for _, m := range analysis.DetectionModels(rc.VisionModel) {
			chain = append(chain, step{h.engs.OpenRouter, m})
		}
	}

	for _, s := range chain {
		*attempts = append(*attempts, s.eng.Name()+"/"+s.model)
		data, ok := try(s.eng, s.model)
		if !ok {
			continue
		}
		provider := s.eng.Name()
		if hasZeroScore(data) {
			if heur, err := h.engs.Heuristic.Analyze(ctx, img, opt); err == nil {
				filled := analysis.BackfillZeros(data, heur)
				if !sameScores(filled, data) {
					provider += "+fallback"
				}
				data = filled
			}
		}
		return data, provider, s.model, ""
	}

	warning := ""
	if len(chain) > 0 {
		warning = "все внешние провайдеры недоступны, использована локальная эвристика"
	}
	*attempts = append(*attempts, h.engs.Heuristic.Name())
	heur, err := h.engs.Heuristic.Analyze(ctx, img, opt)
	if err != nil {
		h.log.Errorw("heuristic analysis failed", "err", err)
		return analysis.SkinData{}, "none", "", "анализ не выполнен: " + err.Error()
	}
	return heur, h.engs.Heuristic.Name(), h.engs.Heuristic.GetModel(), warning
}

// baseProvider срезает суффикс "+fallback" для приоритета слияния.
func baseProvider(p string) string {
	return strings.TrimSuffix(p, "+fallback")
}

func hasZeroScore(d analysis.SkinData) bool {
	for _, v := range d.Scores() {
		if v == 0 {
			return true
		}
	}
	return false
}

// sameScores сравнивает схему поле за полем, без карты координат:
// struct с map нельзя сравнивать оператором.
func sameScores(a, b analysis.SkinData) bool {
	bs := b.Scores()
	for k, v := range a.Scores() {
		if bs[k] != v {
			return false
		}
	}
	return a.Gender == b.Gender && a.EstimatedAge == b.EstimatedAge
}

// runPixelbin пробует варианты изображения (оригинал, препроцесс) и опрашивает
// задачу. Пустой результат означает переход на эвристики. При лимите
// использования следующий вариант не пробуется.
func (h *Handle) runPixelbin(ctx context.Context, img []byte, attempts *[]string) []analysis.ResultImage {
	if !h.pixelbin.Enabled() {
		return nil
	}

	type variant struct {
		name     string
		data     []byte
		filename string
	}
	variants := []variant{{"pixelbin-original", img, "image.jpg"}}
	if pre, err := pixelbin.Preprocess(img); err == nil {
		variants = append(variants, variant{"pixelbin-preprocessed", pre, "image-preprocessed.jpg"})
	} else {
		h.log.Debugw("pixelbin preprocess skipped", "err", err)
	}

	abortKind := func(err error) bool {
		var apiErr *pixelbin.APIError
		if errors.As(err, &apiErr) {
			return apiErr.Kind == pixelbin.KindUsageLimit || apiErr.Kind == pixelbin.KindRateLimit
		}
		return false
	}

	for _, v := range variants {
		*attempts = append(*attempts, v.name)

		job, err := h.pixelbin.Upload(ctx, v.data, v.filename)
		if err != nil {
			if abortKind(err) {
				h.log.Warnw("pixelbin limit reached, falling back to heuristics", "err", err)
				return nil
			}
			h.log.Warnw("pixelbin upload failed", "variant", v.name, "err", err)
			continue
		}

		final, err := h.pixelbin.CheckStatus(ctx, job.ID)
		if err != nil {
			if abortKind(err) {
				h.log.Warnw("pixelbin limit reached while polling", "err", err)
				return nil
			}
			h.log.Warnw("pixelbin poll failed", "variant", v.name, "err", err)
			continue
		}
		if final == nil || final.Status != "SUCCESS" {
			h.log.Warnw("pixelbin job not successful", "variant", v.name)
			continue
		}

		images := pixelbin.ExtractImages(final)
		if len(images) > 0 {
			return images
		}
	}
	return nil
}

// runSAM сегментирует выбранные заболевания и собирает единый элемент ответа
// со статусами, масками и готовым overlay.
func (h *Handle) runSAM(ctx context.Context, img []byte, req *analyzeRequest) []analysis.ResultImage {
	timeout := req.SAMTimeout
	if timeout < 3 || timeout > 20 {
		timeout = 5
	}
	diseases := selectDiseases(req.SAMDiseases)

	statuses := []string{"🔧 ПРЕДОБРАБОТКА"}
	segInput := img
	if pre, err := pixelbin.Preprocess(img); err == nil {
		segInput = pre
		statuses = append(statuses, "✅ Предобработка выполнена")
	} else {
		statuses = append(statuses, "ℹ️ Предобработка пропущена")
	}
	statuses = append(statuses, fmt.Sprintf("🔬 ДИАГНОСТИКА С ТАЙМАУТОМ %d СЕКУНД", timeout))

	res := h.sam.RunPipeline(ctx, segInput, diseases, time.Duration(timeout)*time.Second, req.SAMMaxCoveragePercent)
	statuses = append(statuses, res.Statuses...)

	overlay := ""
	if len(res.Masks) > 0 {
		// маски накладываются на оригинал, не на препроцессированную копию
		var err error
		overlay, err = h.sam.CreateOverlay(ctx, img, res.Masks)
		if err != nil {
			h.log.Warnw("sam overlay failed", "err", err)
		}
	}

	return []analysis.ResultImage{{
		Type:         "sam",
		SAMResults:   res.Masks,
		Statuses:     statuses,
		TimeoutSec:   timeout,
		OverlayImage: overlay,
		Message:      "SAM анализ с масками",
	}}
}

func selectDiseases(keys []string) map[string]string {
	if len(keys) == 0 {
		return analysis.SAMDiseases
	}
	out := map[string]string{}
	for _, k := range keys {
		if name, ok := analysis.SAMDiseases[k]; ok {
			out[k] = name
		}
	}
	if len(out) == 0 {
		return analysis.SAMDiseases
	}
	return out
}
