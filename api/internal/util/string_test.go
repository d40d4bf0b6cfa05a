package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences(`{"a":1}`))
	assert.Equal(t, "", StripCodeFences("  \n"))
}

func TestExtractJSONObject(t *testing.T) {
	t.Run("object inside prose", func(t *testing.T) {
		js, ok := ExtractJSONObject(`Вот результат анализа: {"acne_score": 40, "nested": {"x": 1}} надеюсь, помог`)
		assert.True(t, ok)
		assert.Equal(t, `{"acne_score": 40, "nested": {"x": 1}}`, js)
	})

	t.Run("fenced object", func(t *testing.T) {
		js, ok := ExtractJSONObject("```json\n{\"oiliness\": 55}\n```")
		assert.True(t, ok)
		assert.Equal(t, `{"oiliness": 55}`, js)
	})

	t.Run("no object", func(t *testing.T) {
		_, ok := ExtractJSONObject("модель отказалась отвечать")
		assert.False(t, ok)
	})
}
