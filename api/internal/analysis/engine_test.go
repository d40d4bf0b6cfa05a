package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeEngine struct{ name string }

func (f *fakeEngine) Name() string     { return f.name }
func (f *fakeEngine) GetModel() string { return "m" }
func (f *fakeEngine) Analyze(context.Context, []byte, Options) (SkinData, error) {
	return SkinData{}, nil
}

func TestGetEngine(t *testing.T) {
	engs := &Engines{
		OpenRouter: &fakeEngine{name: "openrouter"},
		Gemini:     &fakeEngine{name: "gemini"},
		Heuristic:  &fakeEngine{name: "heuristic"},
	}

	for name, want := range map[string]string{
		"":           "openrouter",
		"openrouter": "openrouter",
		"gemini":     "gemini",
		"heuristic":  "heuristic",
		"fallback":   "heuristic",
	} {
		e, err := engs.GetEngine(name)
		assert.NoError(t, err, name)
		assert.Equal(t, want, e.Name())
	}

	_, err := engs.GetEngine("gpt5")
	assert.Error(t, err)
}

func TestManager(t *testing.T) {
	def := &fakeEngine{name: "openrouter"}
	m := NewManager(def)

	assert.Equal(t, "openrouter", m.Get(1).Name())

	m.Set(1, &fakeEngine{name: "gemini"})
	assert.Equal(t, "gemini", m.Get(1).Name())
	// другие чаты остаются на движке по умолчанию
	assert.Equal(t, "openrouter", m.Get(2).Name())
}
