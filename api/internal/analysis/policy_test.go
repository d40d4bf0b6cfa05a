package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackfillZeros(t *testing.T) {
	primary := SkinData{AcneScore: 40, SkinTone: 60}
	backup := SkinData{
		AcneScore: 10, PigmentationScore: 20, PoresSize: 30, WrinklesGrade: 15,
		SkinTone: 50, TextureScore: 25, MoistureLevel: 50, Oiliness: 50,
		Gender: "женщина", EstimatedAge: 31,
	}

	out := BackfillZeros(primary, backup)

	// ненулевые поля провайдера не трогаем
	assert.Equal(t, 40.0, out.AcneScore)
	assert.Equal(t, 60.0, out.SkinTone)
	// дыры добиты из запасного источника
	assert.Equal(t, 20.0, out.PigmentationScore)
	assert.Equal(t, 30.0, out.PoresSize)
	assert.Equal(t, 50.0, out.MoistureLevel)
	assert.Equal(t, "женщина", out.Gender)
	assert.Equal(t, 31, out.EstimatedAge)
}

func TestDetectionModels(t *testing.T) {
	t.Run("selected model goes first without duplicates", func(t *testing.T) {
		models := DetectionModels("openai/gpt-4o")
		assert.Equal(t, "openai/gpt-4o", models[0])
		count := 0
		for _, m := range models {
			if m == "openai/gpt-4o" {
				count++
			}
		}
		assert.Equal(t, 1, count)
		assert.Len(t, models, len(DetectionFallbacks))
	})

	t.Run("unknown model prepended to full fallback list", func(t *testing.T) {
		models := DetectionModels("custom/vision")
		assert.Equal(t, "custom/vision", models[0])
		assert.Len(t, models, len(DetectionFallbacks)+1)
	})

	t.Run("empty model yields fallbacks only", func(t *testing.T) {
		models := DetectionModels("")
		assert.Len(t, models, len(DetectionFallbacks))
		assert.Equal(t, DetectionFallbacks[0].Model, models[0])
	})
}

func TestSanitize(t *testing.T) {
	out := Sanitize(SkinData{
		AcneScore:         140,
		PigmentationScore: -5,
		SkinTone:          55,
		EstimatedAge:      -3,
	})
	assert.Equal(t, 100.0, out.AcneScore)
	assert.Equal(t, 0.0, out.PigmentationScore)
	assert.Equal(t, 55.0, out.SkinTone)
	assert.Equal(t, 0, out.EstimatedAge)
}

func TestHasSignal(t *testing.T) {
	assert.False(t, SkinData{}.HasSignal())
	assert.False(t, SkinData{Gender: "мужчина", EstimatedAge: 40}.HasSignal())
	assert.True(t, SkinData{Oiliness: 1}.HasSignal())
}
