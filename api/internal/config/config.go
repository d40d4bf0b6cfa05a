package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Host string
	Port string

	// OpenRouter — основной канал детекции и генерации отчётов
	OpenRouterAPIKey string
	OpenRouterAPIURL string

	// Pixelbin skin analysis
	PixelbinAccessToken  string
	PixelbinBaseURL      string
	PixelbinPollTries    int
	PixelbinPollDelaySec int

	// FAL (SAM-сегментация)
	FALKey string

	// Прямой Gemini (минуя OpenRouter)
	GeminiAPIKey string
	GeminiModel  string

	// Postgres-кэш результатов (пустой DSN — кэш выключен)
	DatabaseURL string

	// Redis-кэш для proxy-image (опционально)
	RedisActive   bool
	RedisAddr     string
	RedisPassword string

	// Telegram bot
	TelegramBotToken string
	WebhookURL       string
}

func Load() *Config {
	viper.SetDefault("HOST", "0.0.0.0")
	viper.SetDefault("PORT", "8000")
	viper.SetDefault("OPENROUTER_API_URL", "https://openrouter.ai/api/v1/chat/completions")
	viper.SetDefault("PIXELBIN_BASE_URL", "https://api.pixelbin.io/service/platform/transformation/v1.0/predictions")
	viper.SetDefault("PIXELBIN_POLL_TRIES", 10)
	viper.SetDefault("PIXELBIN_POLL_DELAY_SEC", 3)
	viper.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")

	viper.AutomaticEnv()

	return &Config{
		Host: viper.GetString("HOST"),
		Port: viper.GetString("PORT"),

		OpenRouterAPIKey: strings.TrimSpace(viper.GetString("OPENROUTER_API_KEY")),
		OpenRouterAPIURL: viper.GetString("OPENROUTER_API_URL"),

		PixelbinAccessToken:  strings.TrimSpace(viper.GetString("PIXELBIN_ACCESS_TOKEN")),
		PixelbinBaseURL:      viper.GetString("PIXELBIN_BASE_URL"),
		PixelbinPollTries:    viper.GetInt("PIXELBIN_POLL_TRIES"),
		PixelbinPollDelaySec: viper.GetInt("PIXELBIN_POLL_DELAY_SEC"),

		FALKey: strings.TrimSpace(viper.GetString("FAL_KEY")),

		GeminiAPIKey: strings.TrimSpace(viper.GetString("GEMINI_API_KEY")),
		GeminiModel:  viper.GetString("GEMINI_MODEL"),

		DatabaseURL: strings.TrimSpace(viper.GetString("DATABASE_URL")),

		RedisActive:   viper.GetBool("REDIS_ACTIVE"),
		RedisAddr:     viper.GetString("REDIS_ADDR"),
		RedisPassword: viper.GetString("REDIS_PASSWORD"),

		TelegramBotToken: strings.TrimSpace(viper.GetString("TELEGRAM_BOT_TOKEN")),
		WebhookURL:       strings.TrimRight(viper.GetString("WEBHOOK_URL"), "/"),
	}
}
