// Package openrouter — vision-детекция и генерация отчётов через OpenRouter API.
package openrouter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"skin-analyzer/api/internal/analysis"
	"skin-analyzer/api/internal/util"
)

// Модели, которым можно просить координаты дефектов.
var bboxModels = map[string]bool{
	"google/gemini-2.5-flash": true,
	"openai/gpt-4o":           true,
}

type Engine struct {
	APIKey string
	APIURL string
	Model  string
	httpc  *http.Client
}

func New(key, apiURL, model string) *Engine {
	if apiURL == "" {
		apiURL = "https://openrouter.ai/api/v1/chat/completions"
	}
	return &Engine{
		APIKey: key,
		APIURL: apiURL,
		Model:  model,
		httpc:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *Engine) Name() string { return "openrouter" }

func (e *Engine) GetModel() string { return e.Model }

const basePrompt = `Ты специалист по заболеваниям и дефектам кожи. Проанализируй это изображение лица и определи следующие параметры состояния кожи:

1. acne_score (0-100) - уровень акне
2. pigmentation_score (0-100) - уровень пигментации (ВАЖНО: пигментные пятна - это плоские участки изменённого цвета кожи, НЕ путай их с папилломами - выпуклыми образованиями)
3. pores_size (0-100) - размер пор
4. wrinkles_grade (0-100) - уровень морщин
5. skin_tone (0-100) - тон кожи
6. texture_score (0-100) - текстура кожи
7. moisture_level (0-100) - уровень увлажненности
8. oiliness (0-100) - жирность кожи

ДОПОЛНИТЕЛЬНО определи:
9. gender - пол человека на фото: "мужчина" или "женщина"
10. estimated_age - предположительный возраст в годах (целое число)

Верни результат в формате JSON с этими полями.`

const bboxSuffix = ` Для каждого обнаруженного дефекта (акне, пигментация, морщины) укажи координаты bounding box в формате [y_min, x_min, y_max, x_max], нормализованные к 0-1000, в поле "bounding_boxes": {"acne": [...], "pigmentation": [...], "wrinkles": [...]}.`

const plainSuffix = ` Кратко и лаконично опиши проблемы, укажи в каких местах на лице они находятся и сколько их.`

// visionPayload — сырой JSON от модели; возраст числом с плавающей точкой,
// модели не всегда отдают целое.
type visionPayload struct {
	AcneScore         float64 `json:"acne_score"`
	PigmentationScore float64 `json:"pigmentation_score"`
	PoresSize         float64 `json:"pores_size"`
	WrinklesGrade     float64 `json:"wrinkles_grade"`
	SkinTone          float64 `json:"skin_tone"`
	TextureScore      float64 `json:"texture_score"`
	MoistureLevel     float64 `json:"moisture_level"`
	Oiliness          float64 `json:"oiliness"`

	Gender        string                 `json:"gender"`
	EstimatedAge  float64                `json:"estimated_age"`
	BoundingBoxes map[string][][]float64 `json:"bounding_boxes"`
}

func (p visionPayload) toSkinData() analysis.SkinData {
	return analysis.Sanitize(analysis.SkinData{
		AcneScore:         p.AcneScore,
		PigmentationScore: p.PigmentationScore,
		PoresSize:         p.PoresSize,
		WrinklesGrade:     p.WrinklesGrade,
		SkinTone:          p.SkinTone,
		TextureScore:      p.TextureScore,
		MoistureLevel:     p.MoistureLevel,
		Oiliness:          p.Oiliness,
		Gender:            strings.TrimSpace(p.Gender),
		EstimatedAge:      int(p.EstimatedAge),
		BoundingBoxes:     p.BoundingBoxes,
	})
}

func (e *Engine) Analyze(ctx context.Context, img []byte, opt analysis.Options) (analysis.SkinData, error) {
	if e.APIKey == "" {
		return analysis.SkinData{}, fmt.Errorf("OPENROUTER_API_KEY is empty")
	}
	model := e.Model
	if opt.Model != "" {
		model = opt.Model
	}
	maxTokens := opt.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 300
	}

	prompt := basePrompt
	if bboxModels[model] {
		prompt += bboxSuffix
		maxTokens *= 2 // координаты съедают токены
	} else {
		prompt += plainSuffix
	}

	mime := util.SniffMimeHTTP(img)
	dataURL := util.MakeDataURL(mime, base64.StdEncoding.EncodeToString(img))

	body := map[string]any{
		"model": model,
		"messages": []any{
			map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{"type": "text", "text": prompt},
					map[string]any{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
				},
			},
		},
		"temperature": opt.Temperature,
		"max_tokens":  maxTokens,
	}
	if model == "google/gemini-2.5-flash" {
		body["response_format"] = map[string]any{"type": "json_object"}
	}

	content, err := e.chat(ctx, body)
	if err != nil {
		return analysis.SkinData{}, err
	}

	if js, ok := util.ExtractJSONObject(content); ok {
		var p visionPayload
		if err := json.Unmarshal([]byte(js), &p); err == nil {
			return p.toSkinData(), nil
		}
	}
	// модель прислала прозу вместо JSON — мягкий фоллбэк на регулярки
	return analysis.Sanitize(analysis.ParseScoresFromText(content)), nil
}

// chat выполняет chat-completions запрос и возвращает content первого choice.
func (e *Engine) chat(ctx context.Context, body map[string]any) (string, error) {
	payload, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, "POST", e.APIURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)
	req.Header.Set("HTTP-Referer", "http://localhost:8000")
	req.Header.Set("X-Title", "Skin Analyzer")

	resp, err := e.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return "", fmt.Errorf("openrouter %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", err
	}
	if len(raw.Choices) == 0 {
		return "", fmt.Errorf("openrouter: empty response")
	}
	return strings.TrimSpace(raw.Choices[0].Message.Content), nil
}
