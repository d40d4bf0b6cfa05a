package analysis

import (
	"math"
	"sort"
	"strings"
)

// Маппинг полей SkinData в имена показателей статистики.
var scoreToIndicator = []struct {
	field string
	stat  string
}{
	{"acne_score", "acne"},
	{"pigmentation_score", "pigmentation"},
	{"pores_size", "pores"},
	{"wrinkles_grade", "wrinkles"},
	{"skin_tone", "skin_tone"},
	{"texture_score", "texture"},
	{"moisture_level", "hydration"},
	{"oiliness", "oiliness"},
}

var baseIndicators = []string{
	"acne", "pigmentation", "pores", "wrinkles",
	"skin_tone", "texture", "hydration", "oiliness",
}

// Маппинг concern'ов провайдеров на стандартные названия показателей.
// Порядок важен: совпадение по подстроке, выигрывает первый ключ
// ("acne_scars" попадает в acne, а не в scars).
var concernMapping = []struct {
	key    string
	mapped string
}{
	{"acne", "acne"},
	{"pimples", "acne"},
	{"pustules", "acne"},
	{"papules", "acne"},
	{"whiteheads", "whiteheads"},
	{"blackheads", "blackheads"},
	{"comedones", "comedones"},
	{"pigmentation", "pigmentation"},
	{"freckles", "freckles"},
	{"wrinkles", "wrinkles"},
	{"fine_lines", "wrinkles"},
	{"pores", "pores"},
	{"large_pores", "pores"},
	{"hydration", "hydration"},
	{"moisture", "hydration"},
	{"dark_circles", "dark_circles"},
	{"eye_bags", "eye_bags"},
	{"post_acne_scars", "post_acne_scars"},
	{"acne_scars", "post_acne_scars"},
	{"scars", "scars"},
	{"skin_tone", "skin_tone"},
	{"texture", "texture"},
	{"excess_oil", "oiliness"},
	{"oiliness", "oiliness"},
	{"sensitivity", "sensitivity"},
	{"edema", "edema"},
	{"rosacea", "rosacea"},
	{"irritation", "irritation"},
	{"skin_lesion", "skin_lesion"},
	{"post_acne_marks", "post_acne_scars"},
	{"moles", "moles"},
	{"warts", "warts"},
	{"papillomas", "papillomas"},
	{"skin_tags", "skin_tags"},
}

var problemNames = map[string]string{
	"acne":            "Acne",
	"pigmentation":    "Pigmentation",
	"pores":           "Pores",
	"wrinkles":        "Wrinkles",
	"whiteheads":      "Whiteheads",
	"blackheads":      "Blackheads",
	"comedones":       "Comedones",
	"freckles":        "Freckles",
	"dark_circles":    "Dark circles",
	"eye_bags":        "Eye bags",
	"post_acne_scars": "Post Acne Scars",
	"scars":           "Scars",
	"sensitivity":     "Sensitivity",
	"edema":           "Edema",
}

// mapConcernName ищет стандартное имя показателя по tech_name/name concern'а.
// Совпадение по подстроке, как отдают провайдеры ("large_pores_t_zone" → pores).
func mapConcernName(techName, name string) string {
	tech := strings.ToLower(techName)
	disp := strings.ToLower(name)
	for _, m := range concernMapping {
		if strings.Contains(tech, m.key) || strings.Contains(disp, m.key) {
			return m.mapped
		}
	}
	return ""
}

// mapDiseaseKey — точное соответствие для ключей SAM-заболеваний.
// Неизвестный ключ возвращается как есть.
func mapDiseaseKey(disease string) string {
	key := normalizeDiseaseKey(disease)
	for _, m := range concernMapping {
		if m.key == key {
			return m.mapped
		}
	}
	return key
}

// FormatStatistics собирает показатели (проценты) из оценок и провайдерских изображений.
func FormatStatistics(data SkinData, images []ResultImage) map[string]int {
	stats := map[string]int{}

	scores := data.Scores()
	for _, m := range scoreToIndicator {
		stats[m.stat] = int(math.Round(scores[m.field]))
	}

	for _, img := range images {
		// concerns из ответа Pixelbin
		for _, c := range img.Concerns {
			mapped := mapConcernName(c.TechName, c.Name)
			if mapped == "" {
				key := strings.ReplaceAll(strings.ReplaceAll(strings.ToLower(c.TechName), " ", "_"), "-", "_")
				if key != "" {
					stats[key] = int(math.Round(c.Value))
				}
				continue
			}
			if v := int(math.Round(c.Value)); v > stats[mapped] {
				stats[mapped] = v
			}
		}

		// SAM не отдаёт проценты — наличие масок переводим в базовые значения
		for disease, res := range img.SAMResults {
			if len(res.Masks) == 0 {
				continue
			}
			mapped := mapDiseaseKey(disease)
			if stats[mapped] == 0 {
				stats[mapped] = maskCountToValue(len(res.Masks))
			}
		}
	}

	for _, f := range baseIndicators {
		if _, ok := stats[f]; !ok {
			stats[f] = 0
		}
	}
	return stats
}

// maskCountToValue переводит число найденных масок в условный процент выраженности.
func maskCountToValue(count int) int {
	switch {
	case count <= 0:
		return 0
	case count == 1:
		return 20
	case count <= 3:
		return 40
	case count <= 5:
		return 60
	case count <= 10:
		return 80
	default:
		return 100
	}
}

func normalizeDiseaseKey(k string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(k)), " ", "_")
}

// FormatStatisticsDetailed — показатели плюс список проблем, отсортированный по убыванию.
func FormatStatisticsDetailed(data SkinData, images []ResultImage) Statistics {
	stats := FormatStatistics(data, images)

	indicators := make(map[string]int, len(baseIndicators))
	for _, f := range baseIndicators {
		indicators[f] = stats[f]
	}

	problems := make([]Problem, 0, len(stats))
	for key, value := range stats {
		if value <= 0 {
			continue
		}
		name, ok := problemNames[key]
		if !ok {
			continue
		}
		problems = append(problems, Problem{Name: name, Value: value})
	}
	sort.SliceStable(problems, func(i, j int) bool {
		if problems[i].Value != problems[j].Value {
			return problems[i].Value > problems[j].Value
		}
		return problems[i].Name < problems[j].Name
	})

	return Statistics{Indicators: indicators, Problems: problems}
}
