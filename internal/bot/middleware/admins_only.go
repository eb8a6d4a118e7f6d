package middleware

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/0x0BSoD/noticeboard/internal/botkit"
)

// AdminsOnly lets a command through when it comes from the admin chat itself
// or from an administrator of that chat. Anyone else is answered with a
// refusal.
func AdminsOnly(adminChatID int64, next botkit.ViewFunc) botkit.ViewFunc {
	return func(ctx context.Context, bot *tgbotapi.BotAPI, update tgbotapi.Update) error {
		if update.FromChat().ID == adminChatID {
			return next(ctx, bot, update)
		}

		admins, err := bot.GetChatAdministrators(
			tgbotapi.ChatAdministratorsConfig{
				ChatConfig: tgbotapi.ChatConfig{ChatID: adminChatID},
			},
		)
		if err != nil {
			return err
		}

		sender := update.SentFrom()
		for _, admin := range admins {
			if sender != nil && admin.User.ID == sender.ID {
				return next(ctx, bot, update)
			}
		}

		if _, err := bot.Send(tgbotapi.NewMessage(update.FromChat().ID, "This command is for administrators only.")); err != nil {
			return err
		}

		return nil
	}
}
