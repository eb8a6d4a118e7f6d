package reporter

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Reporter sends short operational alerts to a Telegram admin chat.
// It is nil-safe: if adminID is 0 or the receiver is nil, Notify only logs.
type Reporter struct {
	bot     *tgbotapi.BotAPI
	adminID int64
	log     *zap.Logger
}

func New(bot *tgbotapi.BotAPI, adminID int64, log *zap.Logger) *Reporter {
	return &Reporter{bot: bot, adminID: adminID, log: log.Named("reporter")}
}

func (r *Reporter) Notify(msg string) {
	if r == nil || r.bot == nil || r.adminID == 0 {
		return
	}
	if _, err := r.bot.Send(tgbotapi.NewMessage(r.adminID, msg)); err != nil {
		r.log.Error("failed to send alert", zap.Error(err))
	}
}
