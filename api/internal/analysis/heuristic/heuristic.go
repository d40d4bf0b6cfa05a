// Package heuristic — локальный анализ изображения без LLM.
// Используется, когда внешние провайдеры недоступны или вернули нули.
package heuristic

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"skin-analyzer/api/internal/analysis"
)

type Engine struct{}

func New() *Engine { return &Engine{} }

func (e *Engine) Name() string { return "heuristic" }

func (e *Engine) GetModel() string { return "image_analysis" }

// Analyze оценивает базовые параметры кожи по статистике пикселей.
// Консервативно: не выдумывает акне и морщины, которых не видит.
func (e *Engine) Analyze(_ context.Context, img []byte, _ analysis.Options) (analysis.SkinData, error) {
	decoded, _, err := image.Decode(bytes.NewReader(img))
	if err != nil {
		return analysis.SkinData{}, fmt.Errorf("heuristic: decode image: %w", err)
	}

	st := measure(decoded)

	result := analysis.SkinData{
		// средние значения для показателей, которые по пикселям не оценить
		MoistureLevel: 50,
		Oiliness:      50,
	}

	// Тон кожи — средняя яркость
	result.SkinTone = st.meanLuma / 255.0 * 100

	// Текстура — вариация яркости
	if st.lumaVariance > 500 {
		result.TextureScore = math.Min(100, st.lumaVariance/10)
	} else {
		result.TextureScore = math.Max(0, st.lumaVariance/5)
	}

	// Поры — плотность перепадов яркости
	result.PoresSize = math.Min(100, st.edgeDensity*1000)

	// Пигментация — вариация насыщенности
	result.PigmentationScore = math.Min(100, st.satVariance/2)

	return analysis.Sanitize(result), nil
}

type pixelStats struct {
	meanLuma     float64
	lumaVariance float64
	satVariance  float64
	edgeDensity  float64
}

func measure(img image.Image) pixelStats {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return pixelStats{}
	}

	luma := make([]float64, w*h)
	sat := make([]float64, w*h)

	var lumaSum, satSum float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			rf, gf, bf := float64(r>>8), float64(g>>8), float64(bl>>8)

			l := 0.299*rf + 0.587*gf + 0.114*bf
			luma[y*w+x] = l
			lumaSum += l

			maxC := math.Max(rf, math.Max(gf, bf))
			minC := math.Min(rf, math.Min(gf, bf))
			s := 0.0
			if maxC > 0 {
				s = (maxC - minC) / maxC * 255
			}
			sat[y*w+x] = s
			satSum += s
		}
	}

	n := float64(w * h)
	meanLuma := lumaSum / n
	meanSat := satSum / n

	var lumaVar, satVar float64
	for i := range luma {
		dl := luma[i] - meanLuma
		lumaVar += dl * dl
		ds := sat[i] - meanSat
		satVar += ds * ds
	}
	lumaVar /= n
	satVar /= n

	// Грубая оценка границ: градиент яркости по соседям
	edges := 0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			dx := luma[y*w+x+1] - luma[y*w+x-1]
			dy := luma[(y+1)*w+x] - luma[(y-1)*w+x]
			if math.Abs(dx)+math.Abs(dy) > 60 {
				edges++
			}
		}
	}

	return pixelStats{
		meanLuma:     meanLuma,
		lumaVariance: lumaVar,
		satVariance:  satVar,
		edgeDensity:  float64(edges) / n,
	}
}
