package analysis

// Настройки моделей по умолчанию
const (
	DefaultVisionModel = "google/gemini-2.5-flash"      // детекция (поддерживает bounding boxes)
	DefaultTextModel   = "anthropic/claude-3.5-sonnet"  // генерация отчёта
)

// Fallback — один шаг цепочки детекции.
type Fallback struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// DetectionFallbacks — порядок попыток моделей при детекции.
var DetectionFallbacks = []Fallback{
	{Provider: "openrouter", Model: "google/gemini-2.5-flash"},
	{Provider: "openrouter", Model: "openai/gpt-4o"},
	{Provider: "openrouter", Model: "anthropic/claude-3.5-sonnet"},
	{Provider: "openrouter", Model: "google/gemini-1.5-pro"},
	// бесплатные и бюджетные варианты
	{Provider: "openrouter", Model: "google/gemini-2.0-flash-exp"},
	{Provider: "openrouter", Model: "qwen/qwen-2-vl-72b-instruct"},
	{Provider: "openrouter", Model: "mistralai/pixtral-large"},
	{Provider: "openrouter", Model: "x-ai/grok-4.1-fast:free"},
	{Provider: "openrouter", Model: "google/gemini-2.0-flash-001"},
}

// RuntimeConfig — изменяемая через /api/config конфигурация анализа.
type RuntimeConfig struct {
	DetectionProvider string  `json:"detection_provider"`
	LLMProvider       string  `json:"llm_provider"`
	VisionModel       string  `json:"vision_model"`
	TextModel         string  `json:"text_model"`
	Temperature       float64 `json:"temperature"`
	MaxTokens         int     `json:"max_tokens"`
	Language          string  `json:"language"`
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		DetectionProvider: "openrouter",
		LLMProvider:       "openrouter",
		VisionModel:       DefaultVisionModel,
		TextModel:         DefaultTextModel,
		Temperature:       0, // точность важнее креативности
		MaxTokens:         300,
		Language:          "ru",
	}
}

// SAMDiseases — заболевания для SAM-режима: ключ = prompt, значение = отображаемое имя.
var SAMDiseases = map[string]string{
	"acne":            "Акне",
	"pimples":         "Прыщи",
	"pustules":        "Пустулы",
	"papules":         "Папулы",
	"blackheads":      "Черные точки",
	"whiteheads":      "Белые угри",
	"comedones":       "Комедоны",
	"rosacea":         "Розацеа",
	"irritation":      "Раздражение",
	"pigmentation":    "Пигментация",
	"freckles":        "Веснушки",
	"papillomas":      "Папилломы",
	"warts":           "Бородавки",
	"moles":           "Родинки",
	"skin tags":       "Кожные выросты",
	"wrinkles":        "Морщины",
	"fine lines":      "Мелкие морщины",
	"skin lesion":     "Повреждения",
	"scars":           "Шрамы",
	"post acne marks": "Следы постакне",
	"acne scars":      "Шрамы от акне",
}

// SAMEnhancedPrompts — детальные промпты для SAM (few-shot через описания).
var SAMEnhancedPrompts = map[string]string{
	"acne":            "acne, pimples, inflamed red bumps on skin, raised red spots, pustules with white or yellow centers",
	"pimples":         "pimples, small raised red bumps on skin, inflamed spots, zits, blemishes",
	"pustules":        "pustules, pus-filled bumps, white or yellow-headed pimples, infected acne lesions",
	"papules":         "papules, small raised solid bumps on skin, red or pink bumps without pus",
	"blackheads":      "blackheads, open comedones, dark spots in pores, clogged pores with dark centers",
	"whiteheads":      "whiteheads, closed comedones, small white bumps under skin, milia",
	"comedones":       "comedones, clogged pores, blackheads and whiteheads, blocked hair follicles",
	"rosacea":         "rosacea, facial redness, red patches on face, visible blood vessels, flushed skin",
	"irritation":      "skin irritation, red inflamed areas, rash, sensitive skin patches, redness",
	"pigmentation":    "pigmentation, dark spots, hyperpigmentation, brown spots, age spots, melasma, uneven skin tone",
	"freckles":        "freckles, small brown spots, ephelides, sun spots, light brown dots on skin",
	"papillomas":      "papillomas, small skin growths, raised bumps, benign tumors, warty growths",
	"warts":           "warts, rough skin growths, raised bumps with rough texture, viral warts, verruca",
	"moles":           "moles, nevi, dark brown or black spots, raised or flat pigmented lesions",
	"skin tags":       "skin tags, acrochordons, small fleshy growths hanging from skin, pedunculated skin growths, soft tissue tags, flesh-colored or slightly darker growths, multiple small tags clustered together, tags on neck, chest, or body folds, every single skin tag visible on the image",
	"wrinkles":        "wrinkles, fine lines, creases in skin, age lines, expression lines, deep folds",
	"fine lines":      "fine lines, small wrinkles, subtle creases, early signs of aging, delicate lines",
	"skin lesion":     "skin lesions, abnormal skin areas, damaged skin, skin abnormalities, skin changes",
	"scars":           "scars, healed wound marks, raised or depressed scar tissue, post-surgical scars, injury marks",
	"post acne marks": "post-acne marks, dark spots after acne, hyperpigmentation from acne, acne scars, PIH (post-inflammatory hyperpigmentation)",
	"acne scars":      "acne scars, pitted scars, atrophic scars, depressed scars from acne, ice pick scars, boxcar scars",
}

// SlowSAMDiseases — классы с многочисленными образованиями, которым нужен
// увеличенный таймаут сегментации.
var SlowSAMDiseases = map[string]bool{
	"skin tags":    true,
	"papillomas":   true,
	"moles":        true,
	"freckles":     true,
	"pigmentation": true,
}
