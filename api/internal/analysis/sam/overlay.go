package sam

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"sort"

	"github.com/disintegration/imaging"

	"skin-analyzer/api/internal/analysis"
)

// Цвета подсветки по заболеваниям. Неизвестным — белый.
var maskColors = map[string]color.NRGBA{
	"acne":            {R: 255, A: 255},
	"pimples":         {R: 255, G: 50, B: 50, A: 255},
	"pustules":        {R: 255, G: 20, B: 20, A: 255},
	"papules":         {R: 255, G: 100, B: 100, A: 255},
	"blackheads":      {R: 100, B: 255, A: 255},
	"whiteheads":      {R: 255, G: 255, A: 255},
	"comedones":       {R: 80, B: 200, A: 255},
	"rosacea":         {R: 255, G: 60, B: 100, A: 255},
	"irritation":      {R: 255, G: 120, B: 80, A: 255},
	"pigmentation":    {R: 200, B: 255, A: 255},
	"freckles":        {R: 120, G: 50, B: 200, A: 255},
	"papillomas":      {G: 255, A: 255},
	"warts":           {R: 50, G: 255, B: 50, A: 255},
	"moles":           {R: 255, G: 200, A: 255},
	"skin tags":       {R: 100, G: 255, B: 100, A: 255},
	"wrinkles":        {G: 200, B: 255, A: 255},
	"fine lines":      {R: 100, G: 200, B: 255, A: 255},
	"skin lesion":     {G: 255, B: 255, A: 255},
	"scars":           {R: 255, G: 150, B: 255, A: 255},
	"post acne marks": {R: 255, G: 100, B: 200, A: 255},
	"acne scars":      {R: 200, G: 100, B: 255, A: 255},
}

func imageSize(img []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

// maskCoverage скачивает маску и считает долю непрозрачных пикселей
// относительно площади исходного изображения, в процентах.
func (c *Client) maskCoverage(ctx context.Context, url string, width, height int) (float64, error) {
	raw, err := c.fetch(ctx, url)
	if err != nil {
		return 0, err
	}
	gray, err := decodeMask(raw, width, height)
	if err != nil {
		return 0, err
	}
	covered := 0
	for _, px := range gray.Pix {
		if px > 127 {
			covered++
		}
	}
	return float64(covered) / float64(width*height) * 100, nil
}

func decodeMask(raw []byte, width, height int) (*image.Gray, error) {
	decoded, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("sam: decode mask: %w", err)
	}
	resized := imaging.Resize(decoded, width, height, imaging.Lanczos)
	gray := image.NewGray(resized.Bounds())
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gray.Set(x, y, resized.At(x, y))
		}
	}
	return gray, nil
}

// CreateOverlay накладывает все маски на затемнённую копию фото
// и возвращает результат как base64 JPEG. Пустой результат без ошибки
// означает, что ни одной маски наложить не удалось.
func (c *Client) CreateOverlay(ctx context.Context, img []byte, results map[string]analysis.SAMResult) (string, error) {
	decoded, err := imaging.Decode(bytes.NewReader(img), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("sam: decode original: %w", err)
	}
	base := imaging.Clone(decoded)
	width := base.Bounds().Dx()
	height := base.Bounds().Dy()

	// Затемняем копию, чтобы подсветка контрастировала
	for i := 0; i < len(base.Pix); i += 4 {
		base.Pix[i] = base.Pix[i] / 4
		base.Pix[i+1] = base.Pix[i+1] / 4
		base.Pix[i+2] = base.Pix[i+2] / 4
	}

	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	total := 0
	for _, disease := range keys {
		fill, ok := maskColors[disease]
		if !ok {
			fill = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
		}
		for _, m := range results[disease].Masks {
			if m.URL == "" {
				continue
			}
			raw, err := c.fetch(ctx, m.URL)
			if err != nil {
				continue
			}
			gray, err := decodeMask(raw, width, height)
			if err != nil {
				continue
			}
			applied := false
			for y := 0; y < height; y++ {
				for x := 0; x < width; x++ {
					if gray.GrayAt(x, y).Y > 127 {
						base.SetNRGBA(x, y, fill)
						applied = true
					}
				}
			}
			if applied {
				total++
			}
		}
	}
	if total == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, base, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return "", fmt.Errorf("sam: encode overlay: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
