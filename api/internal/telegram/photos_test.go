package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"skin-analyzer/api/internal/analysis"
)

func TestFormatSummary(t *testing.T) {
	data := analysis.SkinData{
		AcneScore: 35, PigmentationScore: 20, PoresSize: 44, WrinklesGrade: 12,
		SkinTone: 61, TextureScore: 18, MoistureLevel: 50, Oiliness: 47,
		Gender: "женщина", EstimatedAge: 29,
	}

	s := formatSummary(data, "openrouter")
	assert.Contains(t, s, "Анализ готов (openrouter)")
	assert.Contains(t, s, "Акне: 35/100")
	assert.Contains(t, s, "Жирность: 47/100")
	assert.Contains(t, s, "Пол: женщина")
	assert.Contains(t, s, "Возраст: ~29")

	// без пола и возраста дополнительных строк нет
	plain := formatSummary(analysis.SkinData{AcneScore: 10}, "heuristic")
	assert.NotContains(t, plain, "Пол")
	assert.NotContains(t, plain, "Возраст")
}
