package gemini

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"skin-analyzer/api/internal/analysis"
)

func TestNewDefaults(t *testing.T) {
	e := New(" key ", "")
	assert.Equal(t, "gemini", e.Name())
	assert.Equal(t, "gemini-2.5-flash", e.GetModel())
	assert.Equal(t, "key", e.APIKey)
}

func TestAnalyzeWithoutKey(t *testing.T) {
	e := New("", "")
	_, err := e.Analyze(context.Background(), []byte{0xFF, 0xD8}, analysis.Options{})
	assert.ErrorContains(t, err, "GEMINI_API_KEY")
}

func TestAnalyzeCancelledContext(t *testing.T) {
	e := New("key", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	started := time.Now()
	_, err := e.Analyze(ctx, []byte{0xFF, 0xD8}, analysis.Options{})
	assert.Error(t, err)
	// отменённый контекст обрывает паузы между ретраями сразу,
	// без отсиживания полного back-off (300+600+900 мс)
	assert.Less(t, time.Since(started), time.Second)
}
