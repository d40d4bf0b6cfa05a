package analysis

// BackfillZeros подставляет значения из запасного источника в нулевые поля.
// Провайдер мог вернуть частично нулевой ответ — эвристика добивает дыры,
// но никогда не перекрывает ненулевые значения провайдера.
func BackfillZeros(primary, backup SkinData) SkinData {
	out := primary
	if out.AcneScore == 0 {
		out.AcneScore = backup.AcneScore
	}
	if out.PigmentationScore == 0 {
		out.PigmentationScore = backup.PigmentationScore
	}
	if out.PoresSize == 0 {
		out.PoresSize = backup.PoresSize
	}
	if out.WrinklesGrade == 0 {
		out.WrinklesGrade = backup.WrinklesGrade
	}
	if out.SkinTone == 0 {
		out.SkinTone = backup.SkinTone
	}
	if out.TextureScore == 0 {
		out.TextureScore = backup.TextureScore
	}
	if out.MoistureLevel == 0 {
		out.MoistureLevel = backup.MoistureLevel
	}
	if out.Oiliness == 0 {
		out.Oiliness = backup.Oiliness
	}
	if out.Gender == "" {
		out.Gender = backup.Gender
	}
	if out.EstimatedAge == 0 {
		out.EstimatedAge = backup.EstimatedAge
	}
	return out
}

// DetectionModels строит порядок моделей для цепочки детекции:
// выбранная модель первой, затем fallback-модели без дублей.
func DetectionModels(visionModel string) []string {
	models := make([]string, 0, len(DetectionFallbacks)+1)
	if visionModel != "" {
		models = append(models, visionModel)
	}
	for _, fb := range DetectionFallbacks {
		if fb.Provider != "openrouter" {
			continue
		}
		if fb.Model == visionModel {
			continue
		}
		models = append(models, fb.Model)
	}
	return models
}

// Clamp01to100 обрезает значение в диапазон шкалы оценок.
func Clamp01to100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Sanitize приводит все score-поля к диапазону 0-100.
// Модели периодически возвращают доли (0.35) или проценты с хвостом (104).
func Sanitize(d SkinData) SkinData {
	d.AcneScore = Clamp01to100(d.AcneScore)
	d.PigmentationScore = Clamp01to100(d.PigmentationScore)
	d.PoresSize = Clamp01to100(d.PoresSize)
	d.WrinklesGrade = Clamp01to100(d.WrinklesGrade)
	d.SkinTone = Clamp01to100(d.SkinTone)
	d.TextureScore = Clamp01to100(d.TextureScore)
	d.MoistureLevel = Clamp01to100(d.MoistureLevel)
	d.Oiliness = Clamp01to100(d.Oiliness)
	if d.EstimatedAge < 0 {
		d.EstimatedAge = 0
	}
	return d
}
