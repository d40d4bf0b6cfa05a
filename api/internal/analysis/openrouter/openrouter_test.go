package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"skin-analyzer/api/internal/analysis"
)

func chatResponse(content string) string {
	msg, _ := json.Marshal(content)
	return fmt.Sprintf(`{"choices":[{"message":{"content":%s}}]}`, msg)
}

func TestAnalyze(t *testing.T) {
	t.Run("json content with bounding boxes", func(t *testing.T) {
		var gotBody map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.Write([]byte(chatResponse("```json\n" + `{
				"acne_score": 45, "pigmentation_score": 20, "pores_size": 30,
				"wrinkles_grade": 10, "skin_tone": 60, "texture_score": 25,
				"moisture_level": 55, "oiliness": 40,
				"gender": "женщина", "estimated_age": 29.0,
				"bounding_boxes": {"acne": [[100, 200, 300, 400]]}
			}` + "\n```")))
		}))
		defer srv.Close()

		e := New("key", srv.URL, "google/gemini-2.5-flash")
		data, err := e.Analyze(context.Background(), []byte("img"), analysis.Options{MaxTokens: 300})
		assert.NoError(t, err)
		assert.Equal(t, 45.0, data.AcneScore)
		assert.Equal(t, "женщина", data.Gender)
		assert.Equal(t, 29, data.EstimatedAge)
		assert.Len(t, data.BoundingBoxes["acne"], 1)

		// bbox-модель: удвоенные токены и строгий JSON-режим
		assert.Equal(t, 600.0, gotBody["max_tokens"])
		assert.NotNil(t, gotBody["response_format"])
	})

	t.Run("prose content falls back to regex parsing", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(chatResponse("На фото видно: acne_score: 35, oiliness: 60, остальное в норме")))
		}))
		defer srv.Close()

		e := New("key", srv.URL, "some/prose-model")
		data, err := e.Analyze(context.Background(), []byte("img"), analysis.Options{})
		assert.NoError(t, err)
		assert.Equal(t, 35.0, data.AcneScore)
		assert.Equal(t, 60.0, data.Oiliness)
	})

	t.Run("api error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"error":"upstream down"}`))
		}))
		defer srv.Close()

		e := New("key", srv.URL, "openai/gpt-4o")
		_, err := e.Analyze(context.Background(), []byte("img"), analysis.Options{})
		assert.ErrorContains(t, err, "502")
	})

	t.Run("empty api key", func(t *testing.T) {
		e := New("", "", "openai/gpt-4o")
		_, err := e.Analyze(context.Background(), []byte("img"), analysis.Options{})
		assert.Error(t, err)
	})

	t.Run("empty choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		e := New("key", srv.URL, "openai/gpt-4o")
		_, err := e.Analyze(context.Background(), []byte("img"), analysis.Options{})
		assert.ErrorContains(t, err, "empty response")
	})
}

func TestGenerateReport(t *testing.T) {
	data := analysis.SkinData{AcneScore: 70, MoistureLevel: 40}

	t.Run("returns model text", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, analysis.DefaultTextModel, body["model"])
			assert.Equal(t, 500.0, body["max_tokens"])
			w.Write([]byte(chatResponse("Выраженное акне, рекомендуется уход.")))
		}))
		defer srv.Close()

		e := New("key", srv.URL, "")
		report := e.GenerateReport(context.Background(), data, analysis.Options{}, "ru")
		assert.Equal(t, "Выраженное акне, рекомендуется уход.", report)
	})

	t.Run("falls back on error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		e := New("key", srv.URL, "")
		report := e.GenerateReport(context.Background(), data, analysis.Options{}, "ru")
		assert.Contains(t, report, "ОТЧЁТ О СОСТОЯНИИ КОЖИ")
		assert.Contains(t, report, "Акне: 70/100")
	})
}

func TestFallbackReport(t *testing.T) {
	data := analysis.SkinData{AcneScore: 25, SkinTone: 60}

	ru := FallbackReport(data, "ru")
	assert.Contains(t, ru, "ОТЧЁТ О СОСТОЯНИИ КОЖИ")
	assert.Contains(t, ru, "Акне: 25/100")
	assert.Contains(t, ru, "дерматологу")

	en := FallbackReport(data, "en-US")
	assert.Contains(t, en, "SKIN CONDITION REPORT")
	assert.Contains(t, en, "Acne: 25/100")
	assert.Contains(t, en, "dermatologist")
}
