package analysis

import (
	"regexp"
	"strconv"
	"strings"
)

var scorePatterns = map[string]*regexp.Regexp{
	"acne_score":         regexp.MustCompile(`acne[_\s]?score[:\s]+(\d+\.?\d*)`),
	"pigmentation_score": regexp.MustCompile(`pigmentation[_\s]?score[:\s]+(\d+\.?\d*)`),
	"pores_size":         regexp.MustCompile(`pores[_\s]?size[:\s]+(\d+\.?\d*)`),
	"wrinkles_grade":     regexp.MustCompile(`wrinkles[_\s]?grade[:\s]+(\d+\.?\d*)`),
	"skin_tone":          regexp.MustCompile(`skin[_\s]?tone[:\s]+(\d+\.?\d*)`),
	"texture_score":      regexp.MustCompile(`texture[_\s]?score[:\s]+(\d+\.?\d*)`),
	"moisture_level":     regexp.MustCompile(`moisture[_\s]?level[:\s]+(\d+\.?\d*)`),
	"oiliness":           regexp.MustCompile(`oiliness[:\s]+(\d+\.?\d*)`),
}

// ParseScoresFromText — мягкий фоллбэк: модель прислала прозу вместо JSON,
// вытаскиваем показатели регулярками.
func ParseScoresFromText(text string) SkinData {
	lower := strings.ToLower(text)
	get := func(key string) float64 {
		m := scorePatterns[key].FindStringSubmatch(lower)
		if len(m) < 2 {
			return 0
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0
		}
		return v
	}
	return SkinData{
		AcneScore:         get("acne_score"),
		PigmentationScore: get("pigmentation_score"),
		PoresSize:         get("pores_size"),
		WrinklesGrade:     get("wrinkles_grade"),
		SkinTone:          get("skin_tone"),
		TextureScore:      get("texture_score"),
		MoistureLevel:     get("moisture_level"),
		Oiliness:          get("oiliness"),
	}
}

// Ключевые слова зон лица для разбора локализации из текстового отчёта.
var reportZoneKeywords = map[string][]string{
	"pigmentation": {"щёки", "щеки", "cheeks", "пигмент", "пятна"},
	"wrinkles":     {"периорбитальная", "периоральная", "вокруг глаз", "вокруг рта", "лоб", "forehead"},
	"pores":        {"т-зона", "t-zone", "нос", "nose", "щёки", "щеки"},
	"acne":         {"т-зона", "t-zone", "щёки", "щеки", "подбородок", "chin"},
}

// ParseReportLocations извлекает упоминания зон лица из текстового отчёта.
func ParseReportLocations(report string) map[string][]string {
	locations := map[string][]string{}
	lower := strings.ToLower(report)
	if lower == "" {
		return locations
	}
	for concern, keywords := range reportZoneKeywords {
		var found []string
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				found = append(found, kw)
			}
		}
		if len(found) > 0 {
			locations[concern] = found
		}
	}
	return locations
}

// ConvertBBoxToPosition переводит [y_min, x_min, y_max, x_max] (0-1000)
// в позицию маркера в процентах (0-100).
func ConvertBBoxToPosition(bbox []float64) *Position {
	if len(bbox) < 4 {
		return nil
	}
	yMin, xMin, yMax, xMax := bbox[0], bbox[1], bbox[2], bbox[3]
	return &Position{
		X:      (xMin + xMax) / 2 / 10,
		Y:      (yMin + yMax) / 2 / 10,
		Width:  (xMax - xMin) / 10,
		Height: (yMax - yMin) / 10,
	}
}
