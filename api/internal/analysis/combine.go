package analysis

import "sort"

// Приоритет источников при комбинировании (чем выше, тем важнее).
var sourcePriority = map[string]int{
	"pixelbin":   3,
	"sam":        2,
	"openrouter": 1,
	"gemini":     1,
	"heuristic":  0,
}

// CombineSources объединяет данные из разных источников анализа.
// Источники обходятся по убыванию приоритета; нулевое поле заполняется первым
// встретившимся значением, ненулевое перекрывается только большим значением.
// Bounding boxes объединяются по ключам.
func CombineSources(sources []Source) SkinData {
	sorted := make([]Source, len(sources))
	copy(sorted, sources)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, ok := sourcePriority[sorted[i].Name]
		if !ok {
			pi = -1
		}
		pj, ok := sourcePriority[sorted[j].Name]
		if !ok {
			pj = -1
		}
		return pi > pj
	})

	var combined SkinData
	for _, src := range sorted {
		combined = mergeGreater(combined, src.Data)

		if len(src.Data.BoundingBoxes) > 0 {
			if combined.BoundingBoxes == nil {
				combined.BoundingBoxes = map[string][][]float64{}
			}
			for k, v := range src.Data.BoundingBoxes {
				if _, ok := combined.BoundingBoxes[k]; !ok {
					combined.BoundingBoxes[k] = v
				}
			}
		}
	}
	return combined
}

// SkinDataFromConcerns переводит concerns Pixelbin в поля схемы оценок.
// Несколько concern'ов одного показателя — берём максимум.
func SkinDataFromConcerns(concerns []PixelbinConcern) SkinData {
	var d SkinData
	set := func(field *float64, v float64) {
		if v > *field {
			*field = v
		}
	}
	for _, c := range concerns {
		switch mapConcernName(c.TechName, c.Name) {
		case "acne":
			set(&d.AcneScore, c.Value)
		case "pigmentation":
			set(&d.PigmentationScore, c.Value)
		case "pores":
			set(&d.PoresSize, c.Value)
		case "wrinkles":
			set(&d.WrinklesGrade, c.Value)
		case "skin_tone":
			set(&d.SkinTone, c.Value)
		case "texture":
			set(&d.TextureScore, c.Value)
		case "hydration":
			set(&d.MoistureLevel, c.Value)
		case "oiliness":
			set(&d.Oiliness, c.Value)
		}
	}
	return Sanitize(d)
}

// SkinDataFromMasks переводит число масок SAM в условные значения шкалы.
func SkinDataFromMasks(results map[string]SAMResult) SkinData {
	var d SkinData
	set := func(field *float64, v float64) {
		if v > *field {
			*field = v
		}
	}
	for disease, res := range results {
		if len(res.Masks) == 0 {
			continue
		}
		v := float64(maskCountToValue(len(res.Masks)))
		switch mapDiseaseKey(disease) {
		case "acne":
			set(&d.AcneScore, v)
		case "pigmentation", "freckles":
			set(&d.PigmentationScore, v)
		case "wrinkles":
			set(&d.WrinklesGrade, v)
		}
	}
	return d
}

func mergeGreater(cur, next SkinData) SkinData {
	pick := func(a, b float64) float64 {
		if a == 0 || b > a {
			if b != 0 {
				return b
			}
		}
		return a
	}
	cur.AcneScore = pick(cur.AcneScore, next.AcneScore)
	cur.PigmentationScore = pick(cur.PigmentationScore, next.PigmentationScore)
	cur.PoresSize = pick(cur.PoresSize, next.PoresSize)
	cur.WrinklesGrade = pick(cur.WrinklesGrade, next.WrinklesGrade)
	cur.SkinTone = pick(cur.SkinTone, next.SkinTone)
	cur.TextureScore = pick(cur.TextureScore, next.TextureScore)
	cur.MoistureLevel = pick(cur.MoistureLevel, next.MoistureLevel)
	cur.Oiliness = pick(cur.Oiliness, next.Oiliness)
	if cur.Gender == "" {
		cur.Gender = next.Gender
	}
	if cur.EstimatedAge == 0 {
		cur.EstimatedAge = next.EstimatedAge
	}
	return cur
}
