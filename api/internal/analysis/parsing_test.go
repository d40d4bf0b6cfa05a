package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseScoresFromText(t *testing.T) {
	text := `По фото видно следующее:
acne_score: 35
pigmentation score: 20.5
pores_size: 44
wrinkles_grade: 12
skin tone: 61
texture_score: 18
moisture_level: 50
oiliness: 47`

	out := ParseScoresFromText(text)
	assert.Equal(t, 35.0, out.AcneScore)
	assert.Equal(t, 20.5, out.PigmentationScore)
	assert.Equal(t, 44.0, out.PoresSize)
	assert.Equal(t, 12.0, out.WrinklesGrade)
	assert.Equal(t, 61.0, out.SkinTone)
	assert.Equal(t, 18.0, out.TextureScore)
	assert.Equal(t, 50.0, out.MoistureLevel)
	assert.Equal(t, 47.0, out.Oiliness)
}

func TestParseScoresFromTextMissingFields(t *testing.T) {
	out := ParseScoresFromText("ничего полезного модель не сказала")
	assert.False(t, out.HasSignal())
}

func TestParseReportLocations(t *testing.T) {
	report := "Пигментация заметна на щеках. Морщины вокруг глаз. Поры расширены на носу."
	locations := ParseReportLocations(report)

	assert.Contains(t, locations, "pigmentation")
	assert.Contains(t, locations, "wrinkles")
	assert.Contains(t, locations, "pores")
	assert.NotContains(t, locations, "acne")

	assert.Empty(t, ParseReportLocations(""))
}

func TestConvertBBoxToPosition(t *testing.T) {
	t.Run("center and size in percent", func(t *testing.T) {
		pos := ConvertBBoxToPosition([]float64{100, 200, 300, 400})
		assert.NotNil(t, pos)
		assert.Equal(t, 30.0, pos.X) // (200+400)/2/10
		assert.Equal(t, 20.0, pos.Y) // (100+300)/2/10
		assert.Equal(t, 20.0, pos.Width)
		assert.Equal(t, 20.0, pos.Height)
	})

	t.Run("short slice rejected", func(t *testing.T) {
		assert.Nil(t, ConvertBBoxToPosition([]float64{1, 2, 3}))
	})
}
