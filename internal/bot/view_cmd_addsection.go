package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/0x0BSoD/noticeboard/internal/botkit"
	"github.com/0x0BSoD/noticeboard/internal/botkit/markup"
	"github.com/0x0BSoD/noticeboard/internal/crawler"
	"github.com/0x0BSoD/noticeboard/internal/fetcher"
	"github.com/0x0BSoD/noticeboard/internal/model"
)

const parseModeMarkdownV2 = "MarkdownV2"

type SectionRegistrar interface {
	RegisterSection(ctx context.Context, reg fetcher.Registration) (*model.Section, crawler.Result, error)
}

// ViewCmdAddSection handles /addsection {"org_name":..,"base_url":..,"section_name":..,"section_url":..}.
func ViewCmdAddSection(registrar SectionRegistrar) botkit.ViewFunc {
	return func(ctx context.Context, bot *tgbotapi.BotAPI, update tgbotapi.Update) error {
		args, err := botkit.ParseJSON[fetcher.Registration](update.Message.CommandArguments())
		if err != nil {
			return err
		}

		sec, res, err := registrar.RegisterSection(ctx, args)
		if sec == nil {
			return err
		}

		reply := tgbotapi.NewMessage(update.Message.Chat.ID, formatRegistered(args.Organization, sec, res, err))
		reply.ParseMode = parseModeMarkdownV2

		if _, err := bot.Send(reply); err != nil {
			return err
		}

		return nil
	}
}

func formatRegistered(org string, sec *model.Section, res crawler.Result, crawlErr error) string {
	text := fmt.Sprintf(
		"Section *%s* of %s added with ID: `%d`, layout `%s`\\. Stored notices: %d",
		markup.EscapeForMarkdown(sec.Name),
		markup.EscapeForMarkdown(org),
		sec.ID,
		sec.Variant,
		res.Stored,
	)
	if crawlErr != nil {
		text += "\nFirst crawl failed: " + markup.EscapeForMarkdown(crawlErr.Error())
	}

	return text
}
