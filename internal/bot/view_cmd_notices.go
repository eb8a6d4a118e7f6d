package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/0x0BSoD/noticeboard/internal/botkit"
	"github.com/0x0BSoD/noticeboard/internal/botkit/markup"
	"github.com/0x0BSoD/noticeboard/internal/model"
)

const maxNoticesPerReply = 20

type NoticeLister interface {
	ListCachedNotices(ctx context.Context, org string) ([]model.Notice, error)
}

// ViewCmdNotices handles /notices <org>.
func ViewCmdNotices(lister NoticeLister) botkit.ViewFunc {
	return func(ctx context.Context, bot *tgbotapi.BotAPI, update tgbotapi.Update) error {
		org := strings.TrimSpace(update.Message.CommandArguments())

		notices, err := lister.ListCachedNotices(ctx, org)
		if err != nil {
			return err
		}

		reply := tgbotapi.NewMessage(update.Message.Chat.ID, formatNotices(org, notices))
		reply.ParseMode = parseModeMarkdownV2
		reply.DisableWebPagePreview = true

		if _, err := bot.Send(reply); err != nil {
			return err
		}

		return nil
	}
}

func formatNotices(org string, notices []model.Notice) string {
	if len(notices) == 0 {
		return fmt.Sprintf("No fresh notices for *%s*", markup.EscapeForMarkdown(org))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Fresh notices for *%s*:", markup.EscapeForMarkdown(org))

	for i, n := range notices {
		if i == maxNoticesPerReply {
			fmt.Fprintf(&sb, "\n\\.\\.\\. and %d more", len(notices)-i)
			break
		}
		fmt.Fprintf(&sb, "\n• [%s](%s) _%s_",
			markup.EscapeForMarkdown(n.Title),
			escapeLinkURL(n.URL),
			markup.EscapeForMarkdown(n.Section),
		)
	}

	return sb.String()
}

// escapeLinkURL escapes the characters MarkdownV2 reserves inside (...).
func escapeLinkURL(u string) string {
	return strings.NewReplacer(`\`, `\\`, ")", `\)`).Replace(u)
}
