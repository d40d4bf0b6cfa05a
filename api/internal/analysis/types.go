package analysis

import "encoding/json"

// SkinData — нормализованная схема оценок состояния кожи.
// Все score-поля в диапазоне 0-100, независимо от провайдера.
type SkinData struct {
	AcneScore         float64 `json:"acne_score"`
	PigmentationScore float64 `json:"pigmentation_score"`
	PoresSize         float64 `json:"pores_size"`
	WrinklesGrade     float64 `json:"wrinkles_grade"`
	SkinTone          float64 `json:"skin_tone"`
	TextureScore      float64 `json:"texture_score"`
	MoistureLevel     float64 `json:"moisture_level"`
	Oiliness          float64 `json:"oiliness"`

	Gender       string `json:"gender,omitempty"`
	EstimatedAge int    `json:"estimated_age,omitempty"`

	// Координаты дефектов от vision-моделей: [y_min, x_min, y_max, x_max], 0-1000.
	BoundingBoxes map[string][][]float64 `json:"_bounding_boxes,omitempty"`
}

// Scores возвращает 8 базовых показателей в стабильном порядке.
func (d SkinData) Scores() map[string]float64 {
	return map[string]float64{
		"acne_score":         d.AcneScore,
		"pigmentation_score": d.PigmentationScore,
		"pores_size":         d.PoresSize,
		"wrinkles_grade":     d.WrinklesGrade,
		"skin_tone":          d.SkinTone,
		"texture_score":      d.TextureScore,
		"moisture_level":     d.MoistureLevel,
		"oiliness":           d.Oiliness,
	}
}

// HasSignal — true, если хоть один показатель ненулевой.
// Нулевой ответ означает, что модель не разобрала фото.
func (d SkinData) HasSignal() bool {
	for _, v := range d.Scores() {
		if v != 0 {
			return true
		}
	}
	return false
}

// Options — параметры одного вызова детекции.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Position — позиция маркера проблемы на лице, проценты от размера изображения.
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Shape      string `json:"shape,omitempty"` // ellipse | polygon | dot | wrinkle
	Type       string `json:"type,omitempty"`  // point | area
	MarkerType string `json:"marker_type,omitempty"`
	Zone       string `json:"zone,omitempty"`
	IsWrinkle  bool   `json:"is_wrinkle,omitempty"`
}

// Concern — одна обнаруженная проблема с локализацией.
type Concern struct {
	Name        string    `json:"name"`
	TechName    string    `json:"tech_name"`
	Value       float64   `json:"value"`
	Severity    string    `json:"severity,omitempty"`
	Description string    `json:"description,omitempty"`
	Area        string    `json:"area,omitempty"`
	Position    *Position `json:"position,omitempty"`
	IsArea      bool      `json:"is_area,omitempty"`
	IsDot       bool      `json:"is_dot,omitempty"`
}

// HeuristicAnalysis — результат локального эвристического анализа.
type HeuristicAnalysis struct {
	Concerns       []Concern `json:"concerns"`
	Summary        string    `json:"summary"`
	TotalSkinScore float64   `json:"total_skin_score"`
	SkinHealth     string    `json:"skin_health"` // Good | Average | Needs Attention
	MethodsUsed    []string  `json:"methods_used"`
	PrimaryMethod  string    `json:"primary_method"`
}

// SAMMask — одна маска сегментации.
type SAMMask struct {
	URL string `json:"url"`
}

// SAMResult — маски по одному заболеванию.
type SAMResult struct {
	Masks []SAMMask `json:"masks"`
}

// PixelbinConcern — элемент output.skinData.concerns ответа Pixelbin.
type PixelbinConcern struct {
	Name     string  `json:"name"`
	TechName string  `json:"tech_name"`
	Value    float64 `json:"value"`
}

// ResultImage — один элемент списка images в ответе /api/analyze.
// Форма зависит от источника: URL от Pixelbin, эвристические данные,
// либо маски и overlay от SAM.
type ResultImage struct {
	Type  string `json:"type"` // input | processed | facial_hair | zone | mask | heuristic | sam
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`

	// pixelbin: сырые concerns для статистики
	Concerns []PixelbinConcern `json:"concerns,omitempty"`

	// heuristic
	Heuristic     *HeuristicAnalysis `json:"heuristic_data,omitempty"`
	Message       string             `json:"message,omitempty"`
	PrimaryMethod string             `json:"primary_method,omitempty"`
	MethodsUsed   []string           `json:"methods_used,omitempty"`

	// sam
	SAMResults   map[string]SAMResult `json:"sam_results,omitempty"`
	Statuses     []string             `json:"statuses,omitempty"`
	OverlayImage string               `json:"overlay_image,omitempty"` // base64 JPEG
	TimeoutSec   int                  `json:"timeout,omitempty"`
	Error        string               `json:"error,omitempty"`
}

// Statistics — детальная статистика для фронтенда.
type Statistics struct {
	Indicators map[string]int `json:"indicators"`
	Problems   []Problem      `json:"problems"`
}

type Problem struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Source — вклад одного провайдера при комбинировании.
type Source struct {
	Name string
	Data SkinData
}

// RawJSON помогает логировать провайдерские ответы без паник на кривых данных.
func RawJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "<marshal error>"
	}
	return string(b)
}
