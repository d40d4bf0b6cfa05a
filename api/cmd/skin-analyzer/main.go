package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"skin-analyzer/api/internal/analysis"
	"skin-analyzer/api/internal/analysis/gemini"
	"skin-analyzer/api/internal/analysis/heuristic"
	"skin-analyzer/api/internal/analysis/openrouter"
	"skin-analyzer/api/internal/analysis/pixelbin"
	"skin-analyzer/api/internal/analysis/sam"
	"skin-analyzer/api/internal/cache"
	"skin-analyzer/api/internal/config"
	"skin-analyzer/api/internal/handle"
	"skin-analyzer/api/internal/store"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Postgres-кэш результатов (опционально) ---
	var repo *store.AnalysisRepo
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Fatalw("sql.Open", "err", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(1 * time.Hour)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := db.PingContext(pingCtx); err != nil {
			cancel()
			log.Fatalw("db.Ping", "err", err)
		}
		cancel()
		defer db.Close()
		repo = store.NewAnalysisRepo(db)
		log.Infow("analysis cache enabled")
	} else {
		log.Infow("DATABASE_URL is empty, analysis cache disabled")
	}

	// --- Redis-кэш для proxy-image (опционально) ---
	redisAddr := ""
	if cfg.RedisActive {
		redisAddr = cfg.RedisAddr
	}
	images, err := cache.New(ctx, redisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalw("redis connect", "err", err)
	}
	defer images.Close()

	// --- Движки и провайдерские клиенты ---
	router := openrouter.New(cfg.OpenRouterAPIKey, cfg.OpenRouterAPIURL, analysis.DefaultVisionModel)
	engines := &analysis.Engines{
		OpenRouter: router,
		Gemini:     gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel),
		Heuristic:  heuristic.New(),
	}
	pb := pixelbin.New(cfg.PixelbinAccessToken, cfg.PixelbinBaseURL,
		cfg.PixelbinPollTries, time.Duration(cfg.PixelbinPollDelaySec)*time.Second)
	sm := sam.New(cfg.FALKey)

	h := handle.New(engines, router, pb, sm, repo, images, cfg, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze", h.Analyze)
	mux.HandleFunc("/api/config", h.Config)
	mux.HandleFunc("/api/config/env-check", h.EnvCheck)
	mux.HandleFunc("/api/models/available", h.ModelsAvailable)
	mux.HandleFunc("/api/proxy-image", h.ProxyImage)
	mux.HandleFunc("/api/health", h.Health)
	mux.HandleFunc("/api/health/detailed", h.HealthDetailed)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	addr := cfg.Host + ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infow("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	<-ctx.Done()
	log.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("shutdown", "err", err)
	}
}
