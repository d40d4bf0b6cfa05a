// Package telegram — бот: фото лица в чат, оценки и отчёт в ответ.
package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"skin-analyzer/api/internal/analysis"
	"skin-analyzer/api/internal/store"
)

// Reporter — генератор текстового отчёта (обычно openrouter).
type Reporter interface {
	GenerateReport(ctx context.Context, data analysis.SkinData, opt analysis.Options, language string) string
}

type Router struct {
	Bot      *tgbotapi.BotAPI
	Engines  *analysis.Engines
	Manager  *analysis.Manager
	Reporter Reporter
	Repo     *store.AnalysisRepo // может быть nil
	Log      *zap.SugaredLogger
	Config   analysis.RuntimeConfig

	// последний результат по чату — для /report
	lastData sync.Map // chatID -> analysis.SkinData
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	if upd.Message.IsCommand() {
		r.HandleCommand(upd)
		return
	}
	if len(upd.Message.Photo) > 0 {
		r.acceptPhoto(*upd.Message)
		return
	}
	if upd.Message.Text != "" {
		r.send(upd.Message.Chat.ID, "Пришли фото лица — верну оценку состояния кожи. Команды: /start, /engine, /report, /health")
	}
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	_, _ = r.Bot.Send(msg)
}

func (r *Router) sendError(chatID int64, err error) {
	r.Log.Warnw("bot error", "chat", chatID, "err", err)
	r.send(chatID, "⚠️ Не получилось: "+err.Error())
}
