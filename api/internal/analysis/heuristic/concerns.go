package heuristic

import (
	"skin-analyzer/api/internal/analysis"
)

// GenerateAnalysis строит эвристический результат с маркерами проблемных зон.
// Приоритет источников координат: bounding boxes от vision-модели, затем
// зоны лица по таблице. Текстовый отчёт, если уже есть, уточняет локализацию.
func GenerateAnalysis(data analysis.SkinData, report string) analysis.HeuristicAnalysis {
	var concerns []analysis.Concern
	var methods []string

	bboxes := data.BoundingBoxes
	if len(bboxes) > 0 {
		methods = append(methods, "Bounding boxes (LLM)")
	}

	// Локализация из отчёта пока только логируется в методах —
	// сами зоны берём из таблицы, отчёт не даёт координат.
	if len(analysis.ParseReportLocations(report)) > 0 {
		methods = append(methods, "Разбор текстового отчёта")
	}

	addSimple := func() {
		if len(methods) == 0 {
			methods = append(methods, "Простые эвристики")
		}
	}

	// Акне
	if v := data.AcneScore; v > 30 {
		severity := "Average"
		if v > 60 {
			severity = "Needs Attention"
		}
		desc := "Обнаружены признаки акне. Рекомендуется консультация дерматолога."
		if boxes := bboxes["acne"]; len(boxes) > 0 {
			for _, bbox := range boxes {
				pos := analysis.ConvertBBoxToPosition(bbox)
				if pos == nil {
					continue
				}
				pos.Type = "point"
				concerns = append(concerns, analysis.Concern{
					Name: "Акне", TechName: "acne", Value: v,
					Severity: severity, Description: desc, Area: "face", Position: pos,
				})
			}
		} else {
			addSimple()
			concerns = append(concerns, analysis.Concern{
				Name: "Акне", TechName: "acne", Value: v,
				Severity: severity, Description: desc, Area: "face",
				Position: analysis.SegmentFaceArea("acne", v),
			})
		}
	}

	// Пигментация
	if v := data.PigmentationScore; v > 40 {
		severity := "Average"
		if v > 70 {
			severity = "Needs Attention"
		}
		desc := "Замечены участки пигментации. Используйте солнцезащитный крем."
		if boxes := bboxes["pigmentation"]; len(boxes) > 0 {
			for _, bbox := range boxes {
				pos := analysis.ConvertBBoxToPosition(bbox)
				if pos == nil {
					continue
				}
				pos.Type = "point"
				pos.MarkerType = "dot"
				concerns = append(concerns, analysis.Concern{
					Name: "Пигментация", TechName: "pigmentation", Value: v,
					Severity: severity, Description: desc, Area: "face",
					Position: pos, IsDot: true,
				})
			}
		} else {
			addSimple()
			pos := analysis.SegmentFaceArea("pigmentation", v)
			pos.Type = "point"
			pos.MarkerType = "dot"
			concerns = append(concerns, analysis.Concern{
				Name: "Пигментация", TechName: "pigmentation", Value: v,
				Severity: severity, Description: desc, Area: "face",
				Position: pos, IsDot: true,
			})
		}
	}

	// Морщины
	if v := data.WrinklesGrade; v > 40 {
		severity := "Average"
		if v > 60 {
			severity = "Needs Attention"
		}
		desc := "Замечены морщины. Увлажнение и защита от солнца помогут."
		if boxes := bboxes["wrinkles"]; len(boxes) > 0 {
			for _, bbox := range boxes {
				pos := analysis.ConvertBBoxToPosition(bbox)
				if pos == nil {
					continue
				}
				pos.Type = "area"
				pos.Shape = "wrinkle"
				pos.IsWrinkle = true
				concerns = append(concerns, analysis.Concern{
					Name: "Морщины", TechName: "wrinkles", Value: v,
					Severity: severity, Description: desc, Area: "face",
					Position: pos, IsArea: true,
				})
			}
		} else {
			addSimple()
			pos := analysis.SegmentFaceArea("wrinkles", v)
			pos.Type = "area"
			concerns = append(concerns, analysis.Concern{
				Name: "Морщины", TechName: "wrinkles", Value: v,
				Severity: severity, Description: desc, Area: "face",
				Position: pos, IsArea: true,
			})
		}
	}

	totalScore := (data.AcneScore + data.PigmentationScore + data.PoresSize + data.WrinklesGrade) / 4

	var summary, health string
	switch {
	case totalScore < 40:
		summary = "Состояние кожи хорошее. Рекомендуется поддерживать текущий уход."
		health = "Good"
	case totalScore < 60:
		summary = "Состояние кожи удовлетворительное. Некоторые области требуют внимания."
		health = "Average"
	default:
		summary = "Обнаружены проблемы, требующие внимания. Рекомендуется консультация специалиста."
		health = "Needs Attention"
	}

	if len(methods) == 0 {
		methods = append(methods, "Простые эвристики")
	}

	return analysis.HeuristicAnalysis{
		Concerns:       concerns,
		Summary:        summary,
		TotalSkinScore: analysis.Clamp01to100(100 - totalScore),
		SkinHealth:     health,
		MethodsUsed:    methods,
		PrimaryMethod:  methods[0],
	}
}
