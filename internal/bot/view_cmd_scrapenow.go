package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/0x0BSoD/noticeboard/internal/botkit"
	"github.com/0x0BSoD/noticeboard/internal/botkit/markup"
	"github.com/0x0BSoD/noticeboard/internal/crawler"
)

type CrawlTrigger interface {
	TriggerCrawl(ctx context.Context, org string) (crawler.Result, error)
}

// ViewCmdScrapeNow handles /scrapenow <org>.
func ViewCmdScrapeNow(trigger CrawlTrigger) botkit.ViewFunc {
	return func(ctx context.Context, bot *tgbotapi.BotAPI, update tgbotapi.Update) error {
		org := strings.TrimSpace(update.Message.CommandArguments())

		res, err := trigger.TriggerCrawl(ctx, org)
		if err != nil {
			return err
		}

		reply := tgbotapi.NewMessage(update.Message.Chat.ID, formatCrawlResult(org, res))
		reply.ParseMode = parseModeMarkdownV2

		if _, err := bot.Send(reply); err != nil {
			return err
		}

		return nil
	}
}

func formatCrawlResult(org string, res crawler.Result) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Crawled *%s*, stored %d notices", markup.EscapeForMarkdown(org), res.Stored)
	for _, sec := range res.Sections {
		if sec.Error != "" {
			fmt.Fprintf(&sb, "\n• %s: failed, %s", markup.EscapeForMarkdown(sec.Section), markup.EscapeForMarkdown(sec.Error))
			continue
		}
		fmt.Fprintf(&sb, "\n• %s: %d of %d matched", markup.EscapeForMarkdown(sec.Section), sec.Matched, sec.Found)
	}

	return sb.String()
}
