package main

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"skin-analyzer/api/internal/analysis"
	"skin-analyzer/api/internal/analysis/gemini"
	"skin-analyzer/api/internal/analysis/heuristic"
	"skin-analyzer/api/internal/analysis/openrouter"
	"skin-analyzer/api/internal/config"
	"skin-analyzer/api/internal/store"
	"skin-analyzer/api/internal/telegram"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	cfg := config.Load()

	// --- Postgres-кэш (опционально) ---
	var (
		repo *store.AnalysisRepo
		db   *sql.DB
	)
	if dsn := resolveDSN(cfg.DatabaseURL); dsn != "" {
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			log.Fatalw("sql.Open", "err", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(1 * time.Hour)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := db.PingContext(ctx); err != nil {
			cancel()
			log.Fatalw("db.Ping", "err", err)
		}
		cancel()
		repo = store.NewAnalysisRepo(db)
		log.Infow("db connected")
	} else {
		log.Infow("DSN is empty, analysis cache disabled")
	}

	// --- Telegram bot ---
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatalw("tgbotapi.NewBotAPI", "err", err)
	}
	bot.Debug = false

	reporter := openrouter.New(cfg.OpenRouterAPIKey, cfg.OpenRouterAPIURL, analysis.DefaultVisionModel)
	engines := &analysis.Engines{
		OpenRouter: reporter,
		Gemini:     gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel),
		Heuristic:  heuristic.New(),
	}

	r := &telegram.Router{
		Bot:      bot,
		Engines:  engines,
		Manager:  analysis.NewManager(engines.OpenRouter),
		Reporter: reporter,
		Repo:     repo,
		Log:      log,
		Config:   analysis.DefaultRuntimeConfig(),
	}

	// healthz на DefaultServeMux: ListenForWebhook регистрируется там же
	http.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if db != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("db: not ok\n" + err.Error()))
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	})

	addr := "0.0.0.0:" + cfg.Port
	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		startWebhookMode(addr, bot, r, webhookURL, log)
	} else {
		startPollingMode(addr, bot, r, log)
	}
}

func startWebhookMode(addr string, bot *tgbotapi.BotAPI, r *telegram.Router, baseURL string, log *zap.SugaredLogger) {
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		log.Fatalw("NewWebhook", "err", err)
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		log.Fatalw("set webhook", "err", err)
	}

	updates := bot.ListenForWebhook(path)
	go func() {
		for upd := range updates {
			r.HandleUpdate(upd)
		}
		log.Infow("webhook updates channel closed")
	}()

	log.Infow("webhook listening", "addr", addr, "path", path)
	if err := http.ListenAndServe(addr, nil); err != nil { // DefaultServeMux
		log.Fatalw("ListenAndServe", "err", err)
	}
}

func startPollingMode(addr string, bot *tgbotapi.BotAPI, r *telegram.Router, log *zap.SugaredLogger) {
	go func() {
		log.Infow("health server listening", "addr", addr)
		if err := http.ListenAndServe(addr, nil); err != nil { // DefaultServeMux
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)

	log.Infow("polling started", "bot", bot.Self.UserName)
	for upd := range updates {
		r.HandleUpdate(upd)
	}
}

// resolveDSN: DATABASE_URL приоритетен, иначе собираем из POSTGRES_*/PG*.
// Пустой результат выключает кэш.
func resolveDSN(databaseURL string) string {
	if databaseURL != "" {
		return databaseURL
	}
	host := strings.TrimSpace(os.Getenv("PGHOST"))
	if host == "" {
		return ""
	}
	user := getenvDefault("POSTGRES_USER", "skinanalyzer")
	pass := os.Getenv("POSTGRES_PASSWORD")
	port := getenvDefault("PGPORT", "5432")
	name := getenvDefault("POSTGRES_DB", "skinanalyzer")

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func getenvDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// shortHash — стабильный некриптографический хэш для пути вебхука.
func shortHash(s string) string {
	h := uint64(1469598103934665603)
	const prime = 1099511628211
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		out[i] = hexdigits[h&0xF]
		h >>= 4
	}
	return string(out)
}
