// Package gemini — детекция состояния кожи через Gemini SDK.
// Резервный движок: тот же формат ответа, что и у openrouter.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"skin-analyzer/api/internal/analysis"
	"skin-analyzer/api/internal/util"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type Engine struct {
	APIKey string
	Model  string
}

func New(apiKey, model string) *Engine {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

const system = `Ты специалист по заболеваниям и дефектам кожи. Проанализируй фото лица и верни СТРОГО JSON:
{
  "acne_score": number,          // 0-100, уровень акне
  "pigmentation_score": number,  // 0-100, пигментация (плоские пятна, не путать с папилломами)
  "pores_size": number,          // 0-100, размер пор
  "wrinkles_grade": number,      // 0-100, морщины
  "skin_tone": number,           // 0-100, тон кожи
  "texture_score": number,       // 0-100, текстура
  "moisture_level": number,      // 0-100, увлажнённость
  "oiliness": number,            // 0-100, жирность
  "gender": "мужчина" | "женщина",
  "estimated_age": number        // возраст в годах
}
Любой текст вне JSON — ошибка.`

func (e *Engine) Analyze(ctx context.Context, img []byte, opt analysis.Options) (analysis.SkinData, error) {
	if e.APIKey == "" {
		return analysis.SkinData{}, errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return analysis.SkinData{}, err
	}
	defer cl.Close()

	model := e.Model
	if opt.Model != "" {
		model = opt.Model
	}
	m := cl.GenerativeModel(strings.TrimSpace(model))
	if m == nil {
		return analysis.SkinData{}, fmt.Errorf("gemini: model is nil")
	}
	temp := float32(opt.Temperature)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}

	parts := []genai.Part{
		genai.Text("Проанализируй фото и верни только JSON."),
		&genai.Blob{MIMEType: util.SniffMimeHTTP(img), Data: img},
	}

	// Ретраи на случай транзиентных сбоев
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = err
			t := time.NewTimer(time.Duration(attempt) * 300 * time.Millisecond)
			select {
			case <-ctx.Done():
				t.Stop()
				return analysis.SkinData{}, ctx.Err()
			case <-t.C:
			}
			continue
		}
		txt := util.StripCodeFences(strings.TrimSpace(firstText(resp)))
		if txt == "" {
			return analysis.SkinData{}, fmt.Errorf("gemini: empty response")
		}
		var out analysis.SkinData
		if err := json.Unmarshal([]byte(txt), &out); err != nil {
			return analysis.SkinData{}, fmt.Errorf("gemini: bad JSON: %w", err)
		}
		return analysis.Sanitize(out), nil
	}
	return analysis.SkinData{}, lastErr
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}
