package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"skin-analyzer/api/internal/analysis"
	"skin-analyzer/api/internal/util"
)

const reportPromptRU = `Ты врач-дерматолог. На основе этих показателей состояния кожи (0-100, больше = хуже, кроме skin_tone и moisture_level):

%s

Составь короткий отчёт о состоянии кожи на русском языке: 3-5 предложений, основные проблемы и 2-3 практические рекомендации по уходу. Без приветствий и дисклеймеров.`

const reportPromptEN = `You are a dermatologist. Based on these skin condition scores (0-100, higher = worse, except skin_tone and moisture_level):

%s

Write a short skin condition report in English: 3-5 sentences, main concerns and 2-3 practical care recommendations. No greetings or disclaimers.`

// GenerateReport запрашивает у текстовой модели отчёт по показателям.
// При любой ошибке возвращает простой отчёт без LLM.
func (e *Engine) GenerateReport(ctx context.Context, data analysis.SkinData, opt analysis.Options, language string) string {
	scores, _ := json.MarshalIndent(data.Scores(), "", "  ")

	tmpl := reportPromptRU
	if strings.HasPrefix(strings.ToLower(language), "en") {
		tmpl = reportPromptEN
	}

	model := opt.Model
	if model == "" {
		model = analysis.DefaultTextModel
	}
	maxTokens := opt.MaxTokens
	if maxTokens < 500 {
		maxTokens = 500
	}

	body := map[string]any{
		"model": model,
		"messages": []any{
			map[string]any{"role": "user", "content": fmt.Sprintf(tmpl, scores)},
		},
		"temperature": opt.Temperature,
		"max_tokens":  maxTokens,
	}

	content, err := e.chat(ctx, body)
	if err != nil || strings.TrimSpace(content) == "" {
		return FallbackReport(data, language)
	}
	return util.StripCodeFences(content)
}

// FallbackReport — простой отчёт без LLM, когда текстовая модель недоступна.
func FallbackReport(data analysis.SkinData, language string) string {
	if strings.HasPrefix(strings.ToLower(language), "en") {
		var b strings.Builder
		b.WriteString("SKIN CONDITION REPORT\n\n")
		for _, row := range reportRows {
			fmt.Fprintf(&b, "%s: %.0f/100\n", row.en, row.value(data))
		}
		b.WriteString("\nFor an accurate diagnosis, consult a dermatologist.")
		return b.String()
	}

	var b strings.Builder
	b.WriteString("ОТЧЁТ О СОСТОЯНИИ КОЖИ\n\n")
	for _, row := range reportRows {
		fmt.Fprintf(&b, "%s: %.0f/100\n", row.ru, row.value(data))
	}
	b.WriteString("\nДля точной диагностики обратитесь к дерматологу.")
	return b.String()
}

var reportRows = []struct {
	ru, en string
	value  func(analysis.SkinData) float64
}{
	{"Акне", "Acne", func(d analysis.SkinData) float64 { return d.AcneScore }},
	{"Пигментация", "Pigmentation", func(d analysis.SkinData) float64 { return d.PigmentationScore }},
	{"Поры", "Pores", func(d analysis.SkinData) float64 { return d.PoresSize }},
	{"Морщины", "Wrinkles", func(d analysis.SkinData) float64 { return d.WrinklesGrade }},
	{"Тон кожи", "Skin tone", func(d analysis.SkinData) float64 { return d.SkinTone }},
	{"Текстура", "Texture", func(d analysis.SkinData) float64 { return d.TextureScore }},
	{"Увлажнённость", "Moisture", func(d analysis.SkinData) float64 { return d.MoistureLevel }},
	{"Жирность", "Oiliness", func(d analysis.SkinData) float64 { return d.Oiliness }},
}
