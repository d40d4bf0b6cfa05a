package telegram

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"skin-analyzer/api/internal/analysis"
)

func (r *Router) HandleCommand(upd tgbotapi.Update) {
	cid := upd.Message.Chat.ID
	switch upd.Message.Command() {
	case "start":
		r.send(cid, "Пришли фото лица — верну оценку состояния кожи и отчёт.\n"+
			"Команды:\n/engine — выбор движка анализа\n/report — повторить текстовый отчёт\n/health — статус")
	case "health":
		r.send(cid, "✅ OK")
	case "engine":
		r.handleEngine(cid, upd.Message.Text)
	case "report":
		r.handleReport(cid)
	default:
		r.send(cid, "Неизвестная команда")
	}
}

func (r *Router) handleEngine(cid int64, text string) {
	args := strings.Fields(strings.TrimSpace(strings.TrimPrefix(text, "/engine")))
	if len(args) == 0 {
		cur := r.Manager.Get(cid).Name()
		r.send(cid, "Текущий движок: "+cur+
			"\nИспользование:\n/engine openrouter\n/engine gemini\n/engine heuristic")
		return
	}
	name := strings.ToLower(args[0])
	eng, err := r.Engines.GetEngine(name)
	if err != nil {
		r.send(cid, "Неизвестный движок. Доступны: openrouter | gemini | heuristic")
		return
	}
	r.Manager.Set(cid, eng)
	r.send(cid, "Ок, переключаю на: "+eng.Name())
}

func (r *Router) handleReport(cid int64) {
	v, ok := r.lastData.Load(cid)
	if !ok {
		r.send(cid, "Сначала пришли фото — отчёт строится по последнему анализу.")
		return
	}
	data := v.(analysis.SkinData)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	report := r.Reporter.GenerateReport(ctx, data, analysis.Options{
		Model:       r.Config.TextModel,
		Temperature: r.Config.Temperature,
		MaxTokens:   r.Config.MaxTokens,
	}, r.Config.Language)
	r.send(cid, report)
}
