package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"skin-analyzer/api/internal/analysis"
	"skin-analyzer/api/internal/util"
)

const analyzeTimeout = 2 * time.Minute

func (r *Router) acceptPhoto(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	ph := msg.Photo[len(msg.Photo)-1] // самое большое превью последним

	file, err := r.Bot.GetFile(tgbotapi.FileConfig{FileID: ph.FileID})
	if err != nil {
		r.sendError(cid, err)
		return
	}
	url := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", r.Bot.Token, file.FilePath)
	img, err := download(url)
	if err != nil {
		r.sendError(cid, err)
		return
	}

	r.send(cid, "📷 Фото получено, анализирую…")
	go r.analyzePhoto(cid, img)
}

func (r *Router) analyzePhoto(cid int64, img []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	eng := r.Manager.Get(cid)
	opt := analysis.Options{
		Temperature: r.Config.Temperature,
		MaxTokens:   r.Config.MaxTokens,
	}
	hash := util.SHA256Hex(img)

	var (
		data   analysis.SkinData
		report string
		cached bool
	)
	if r.Repo != nil {
		if row, err := r.Repo.FindByHash(ctx, hash, eng.Name(), eng.GetModel(), 24*time.Hour); err == nil {
			data, report, cached = row.Data, row.Report, true
		}
	}

	if !cached {
		var err error
		data, err = eng.Analyze(ctx, img, opt)
		if err != nil || !data.HasSignal() {
			if err != nil {
				r.Log.Warnw("bot detection failed", "engine", eng.Name(), "err", err)
			}
			// локальная эвристика вместо отказа
			data, err = r.Engines.Heuristic.Analyze(ctx, img, opt)
			if err != nil {
				r.sendError(cid, err)
				return
			}
			eng = r.Engines.Heuristic
		}
	}

	if report == "" {
		report = r.Reporter.GenerateReport(ctx, data, analysis.Options{
			Model:       r.Config.TextModel,
			Temperature: r.Config.Temperature,
			MaxTokens:   r.Config.MaxTokens,
		}, r.Config.Language)
	}

	if r.Repo != nil && !cached {
		if err := r.Repo.Upsert(ctx, hash, eng.Name(), eng.GetModel(), data, report); err != nil {
			r.Log.Warnw("bot cache upsert failed", "err", err)
		}
	}

	r.lastData.Store(cid, data)
	r.send(cid, formatSummary(data, eng.Name())+"\n\n"+report)
}

// formatSummary — короткая сводка оценок для чата.
func formatSummary(d analysis.SkinData, engine string) string {
	s := fmt.Sprintf(
		"🔬 Анализ готов (%s)\n"+
			"Акне: %.0f/100\n"+
			"Пигментация: %.0f/100\n"+
			"Поры: %.0f/100\n"+
			"Морщины: %.0f/100\n"+
			"Тон кожи: %.0f/100\n"+
			"Текстура: %.0f/100\n"+
			"Увлажнённость: %.0f/100\n"+
			"Жирность: %.0f/100",
		engine,
		d.AcneScore, d.PigmentationScore, d.PoresSize, d.WrinklesGrade,
		d.SkinTone, d.TextureScore, d.MoistureLevel, d.Oiliness,
	)
	if d.Gender != "" {
		s += "\nПол: " + d.Gender
	}
	if d.EstimatedAge > 0 {
		s += fmt.Sprintf("\nВозраст: ~%d", d.EstimatedAge)
	}
	return s
}

func download(url string) ([]byte, error) {
	cl := &http.Client{Timeout: 30 * time.Second}
	resp, err := cl.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 32<<20))
}
