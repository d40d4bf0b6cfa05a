package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombineSources(t *testing.T) {
	t.Run("higher value wins regardless of order", func(t *testing.T) {
		out := CombineSources([]Source{
			{Name: "heuristic", Data: SkinData{AcneScore: 70, SkinTone: 40}},
			{Name: "pixelbin", Data: SkinData{AcneScore: 30, PoresSize: 55}},
		})
		assert.Equal(t, 70.0, out.AcneScore)
		assert.Equal(t, 55.0, out.PoresSize)
		assert.Equal(t, 40.0, out.SkinTone)
	})

	t.Run("bounding boxes union keeps first per key", func(t *testing.T) {
		out := CombineSources([]Source{
			{Name: "openrouter", Data: SkinData{
				AcneScore:     10,
				BoundingBoxes: map[string][][]float64{"acne": {{100, 100, 200, 200}}},
			}},
			{Name: "heuristic", Data: SkinData{
				BoundingBoxes: map[string][][]float64{
					"acne":     {{1, 1, 2, 2}},
					"wrinkles": {{300, 300, 400, 400}},
				},
			}},
		})
		assert.Equal(t, [][]float64{{100, 100, 200, 200}}, out.BoundingBoxes["acne"])
		assert.Len(t, out.BoundingBoxes["wrinkles"], 1)
	})

	t.Run("gender and age come from highest priority source", func(t *testing.T) {
		out := CombineSources([]Source{
			{Name: "heuristic", Data: SkinData{Gender: "мужчина", EstimatedAge: 60}},
			{Name: "openrouter", Data: SkinData{AcneScore: 5, Gender: "женщина", EstimatedAge: 25}},
		})
		assert.Equal(t, "женщина", out.Gender)
		assert.Equal(t, 25, out.EstimatedAge)
	})
}

func TestSkinDataFromConcerns(t *testing.T) {
	out := SkinDataFromConcerns([]PixelbinConcern{
		{TechName: "acne", Value: 35},
		{TechName: "pimples", Value: 60}, // тоже акне, берём максимум
		{TechName: "large_pores_t_zone", Value: 45},
		{TechName: "excess_oil", Value: 70},
		{TechName: "unknown_thing", Value: 99},
	})
	assert.Equal(t, 60.0, out.AcneScore)
	assert.Equal(t, 45.0, out.PoresSize)
	assert.Equal(t, 70.0, out.Oiliness)
	assert.Equal(t, 0.0, out.WrinklesGrade)
}

func TestSkinDataFromMasks(t *testing.T) {
	masks := func(n int) SAMResult {
		out := SAMResult{}
		for i := 0; i < n; i++ {
			out.Masks = append(out.Masks, SAMMask{URL: "https://fal.media/m"})
		}
		return out
	}
	out := SkinDataFromMasks(map[string]SAMResult{
		"acne":         masks(1),  // 20
		"pimples":      masks(4),  // 60, тоже акне
		"pigmentation": masks(12), // 100
		"wrinkles":     masks(0),  // пусто — не учитывается
	})
	assert.Equal(t, 60.0, out.AcneScore)
	assert.Equal(t, 100.0, out.PigmentationScore)
	assert.Equal(t, 0.0, out.WrinklesGrade)
}
