// Package sam — сегментация кожных дефектов через SAM 3 (fal.ai).
// Каждое заболевание сегментируется отдельным запросом со своим промптом,
// маски складываются в общий результат и накладываются на фото.
package sam

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"skin-analyzer/api/internal/analysis"
	"skin-analyzer/api/internal/util"
)

const endpoint = "https://fal.run/fal-ai/sam-3/image"

// Маски, покрывающие больше этой доли изображения, считаются ложными
// (модель выделила всё лицо вместо дефекта).
const DefaultMaxCoveragePercent = 25.0

type Client struct {
	APIKey string
	httpc  *http.Client
}

func New(key string) *Client {
	return &Client{
		APIKey: strings.TrimSpace(key),
		httpc:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *Client) Enabled() bool { return c.APIKey != "" }

// Segment запрашивает маски для одного промпта с собственным таймаутом.
func (c *Client) Segment(ctx context.Context, img []byte, prompt string, timeout time.Duration) (analysis.SAMResult, error) {
	if !c.Enabled() {
		return analysis.SAMResult{}, fmt.Errorf("sam: FAL_KEY is empty")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	mime := util.SniffMimeHTTP(img)
	body := map[string]any{
		"image_url":   util.MakeDataURL(mime, base64.StdEncoding.EncodeToString(img)),
		"text_prompt": prompt,
	}
	payload, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		return analysis.SAMResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+c.APIKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return analysis.SAMResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return analysis.SAMResult{}, fmt.Errorf("sam %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var out analysis.SAMResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return analysis.SAMResult{}, fmt.Errorf("sam: bad response: %w", err)
	}
	return out, nil
}

// PipelineResult — итог прогона по всем заболеваниям.
type PipelineResult struct {
	Statuses []string
	Masks    map[string]analysis.SAMResult
}

// RunPipeline последовательно сегментирует все заболевания.
// Классам с многочисленными образованиями таймаут поднимается до минимум
// 10 секунд, остальным действует базовый.
func (c *Client) RunPipeline(ctx context.Context, img []byte, diseases map[string]string, baseTimeout time.Duration, maxCoverage float64) PipelineResult {
	if maxCoverage <= 0 {
		maxCoverage = DefaultMaxCoveragePercent
	}
	res := PipelineResult{Masks: map[string]analysis.SAMResult{}}
	if !c.Enabled() {
		res.Statuses = append(res.Statuses, "❌ SAM недоступен (нет FAL_KEY)")
		return res
	}

	width, height := imageSize(img)

	keys := make([]string, 0, len(diseases))
	for k := range diseases {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	total := len(keys)
	for idx, key := range keys {
		if ctx.Err() != nil {
			res.Statuses = append(res.Statuses, "⏹️ Прервано")
			break
		}
		name := diseases[key]
		res.Statuses = append(res.Statuses, fmt.Sprintf("🔍 [%d/%d] %s", idx+1, total, strings.ToUpper(name)))

		prompt := analysis.SAMEnhancedPrompts[key]
		if prompt == "" {
			prompt = key
		}
		timeout := baseTimeout
		if analysis.SlowSAMDiseases[key] && timeout < 10*time.Second {
			timeout = 10 * time.Second
		}

		started := time.Now()
		result, err := c.Segment(ctx, img, prompt, timeout)
		elapsed := time.Since(started).Seconds()
		if err != nil {
			if strings.Contains(err.Error(), context.DeadlineExceeded.Error()) {
				res.Statuses = append(res.Statuses, fmt.Sprintf("⏱️ ПРОПУЩЕНО (таймаут %.0fс) для %s", timeout.Seconds(), key))
			} else {
				res.Statuses = append(res.Statuses, fmt.Sprintf("⚠️ Ошибка SAM для %s: %v", key, err))
			}
			continue
		}

		masks := result.Masks
		original := len(masks)
		if width > 0 && height > 0 {
			masks = c.filterByCoverage(ctx, masks, width, height, maxCoverage)
		}
		switch {
		case len(masks) == 0 && original > 0:
			res.Statuses = append(res.Statuses, fmt.Sprintf("⚪ %s: все маски отфильтрованы (слишком большие) (%.1fс)", name, elapsed))
		case len(masks) == 0:
			res.Statuses = append(res.Statuses, fmt.Sprintf("⚪ %s: нет масок (%.1fс)", name, elapsed))
		case len(masks) < original:
			res.Masks[key] = analysis.SAMResult{Masks: masks}
			res.Statuses = append(res.Statuses, fmt.Sprintf("✅ %s: %d маск (отфильтровано %d больших масок) (%.1fс)", name, len(masks), original-len(masks), elapsed))
		default:
			res.Masks[key] = analysis.SAMResult{Masks: masks}
			res.Statuses = append(res.Statuses, fmt.Sprintf("✅ %s: %d маск (%.1fс)", name, len(masks), elapsed))
		}
	}
	return res
}

// filterByCoverage отбрасывает маски, закрывающие слишком большую площадь.
// Маска, которую не удалось скачать, проходит без проверки.
func (c *Client) filterByCoverage(ctx context.Context, masks []analysis.SAMMask, width, height int, maxCoverage float64) []analysis.SAMMask {
	var kept []analysis.SAMMask
	for _, m := range masks {
		if m.URL == "" {
			kept = append(kept, m)
			continue
		}
		coverage, err := c.maskCoverage(ctx, m.URL, width, height)
		if err != nil || coverage <= maxCoverage {
			kept = append(kept, m)
		}
	}
	return kept
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sam: fetch mask %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 16<<20))
}
