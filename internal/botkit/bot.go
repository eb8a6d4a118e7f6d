package botkit

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const updateTimeout = 5 * time.Minute

type ViewFunc func(ctx context.Context, bot *tgbotapi.BotAPI, update tgbotapi.Update) error

type Bot struct {
	api      *tgbotapi.BotAPI
	cmdViews map[string]ViewFunc
	log      *zap.Logger
}

func New(api *tgbotapi.BotAPI, log *zap.Logger) *Bot {
	return &Bot{api: api, log: log.Named("bot")}
}

func (b *Bot) RegisterCmdView(cmd string, view ViewFunc) {
	if b.cmdViews == nil {
		b.cmdViews = make(map[string]ViewFunc)
	}

	b.cmdViews[cmd] = view
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case update := <-updates:
			updateCtx, cancel := context.WithTimeout(ctx, updateTimeout)
			b.handleUpdate(updateCtx, update)
			cancel()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if p := recover(); p != nil {
			b.log.Error("panic recovered", zap.Any("panic", p), zap.ByteString("stack", debug.Stack()))
		}
	}()

	if update.Message == nil || !update.Message.IsCommand() {
		return
	}

	cmd := update.Message.Command()
	view, ok := b.cmdViews[cmd]
	if !ok {
		return
	}

	if err := view(ctx, b.api, update); err != nil {
		b.log.Error("failed to handle command", zap.String("cmd", cmd), zap.Error(err))

		reply := tgbotapi.NewMessage(update.Message.Chat.ID, fmt.Sprintf("Command /%s failed: %v", cmd, err))
		if _, err := b.api.Send(reply); err != nil {
			b.log.Error("failed to send error reply", zap.Error(err))
		}
	}
}
