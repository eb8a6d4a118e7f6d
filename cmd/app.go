package main

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/0x0BSoD/noticeboard/internal/aggregator"
	"github.com/0x0BSoD/noticeboard/internal/browser"
	"github.com/0x0BSoD/noticeboard/internal/config"
	"github.com/0x0BSoD/noticeboard/internal/crawler"
	"github.com/0x0BSoD/noticeboard/internal/fetcher"
	"github.com/0x0BSoD/noticeboard/internal/filter"
	"github.com/0x0BSoD/noticeboard/internal/logger"
	"github.com/0x0BSoD/noticeboard/internal/metrics"
	"github.com/0x0BSoD/noticeboard/internal/reporter"
	"github.com/0x0BSoD/noticeboard/internal/storage"
	"github.com/0x0BSoD/noticeboard/internal/storage/memory"
)

type noticeStore interface {
	aggregator.NoticeStorage
	fetcher.NoticePruner
}

type keywordStore interface {
	fetcher.KeywordProvider
	aggregator.KeywordStorage
}

// app holds everything a command needs, built once from config.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	registry *prometheus.Registry
	db       *sqlx.DB
	botAPI   *tgbotapi.BotAPI

	notices  noticeStore
	orgs     fetcher.OrganizationStorage
	sections fetcher.SectionStorage
	keywords keywordStore

	fetcher *fetcher.Fetcher
	svc     *aggregator.Service

	closers []func()
}

func (a *app) init(ctx context.Context) error {
	a.cfg = config.Get()

	log, err := logger.New(a.cfg.LogLevel)
	if err != nil {
		return err
	}
	a.log = log
	a.closers = append(a.closers, func() { _ = log.Sync() })

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(a.registry)

	if err := a.openStorage(); err != nil {
		return err
	}

	var driver browser.Driver
	switch a.cfg.Driver {
	case "chrome":
		chrome := browser.NewChromeDriver(ctx, a.cfg.ChromePath)
		a.closers = append(a.closers, chrome.Close)
		driver = chrome
	case "http":
		driver = browser.NewHTTPDriver(nil)
	default:
		return fmt.Errorf("unknown driver %q, want chrome or http", a.cfg.Driver)
	}
	pool := browser.NewPool(driver, a.cfg.MaxSessions, m.SessionsInUse)

	var rep *reporter.Reporter
	if a.cfg.TelegramBotToken != "" {
		a.botAPI, err = tgbotapi.NewBotAPI(a.cfg.TelegramBotToken)
		if err != nil {
			return fmt.Errorf("create bot api: %w", err)
		}
		rep = reporter.New(a.botAPI, a.cfg.TelegramAdminChatID, log)
	}

	timeouts := crawler.Timeouts{
		Navigation: a.cfg.NavigationTimeout,
		Ready:      a.cfg.ReadyTimeout,
	}
	executor := crawler.NewExecutor(pool, a.notices, timeouts, m, log)

	a.fetcher = fetcher.New(
		a.orgs,
		a.sections,
		a.keywords,
		a.notices,
		executor,
		crawler.NewDetector(pool, timeouts, m, log),
		rep,
		log,
		a.cfg.CrawlInterval,
		a.cfg.NoticeRetention,
	)

	a.svc = aggregator.New(
		a.notices,
		a.orgs,
		a.sections,
		a.keywords,
		a.fetcher,
		executor,
		aggregator.Options{
			FreshnessWindow: a.cfg.FreshnessWindow,
			SearchLimit:     a.cfg.SearchLimit,
		},
		log,
	)

	return nil
}

func (a *app) openStorage() error {
	switch a.cfg.Storage {
	case "postgres":
		db, err := sqlx.Connect("postgres", a.cfg.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("connect to db: %w", err)
		}
		a.db = db
		a.closers = append(a.closers, func() { _ = db.Close() })

		a.notices = storage.NewNoticeStorage(db)
		a.orgs = storage.NewOrganizationStorage(db)
		a.sections = storage.NewSectionStorage(db)
		a.keywords = storage.NewKeywordStorage(db)
	case "memory":
		store := memory.New()
		a.notices, a.orgs, a.sections, a.keywords = store, store, store, store
		a.log.Warn("using in-memory storage, nothing survives a restart")
	default:
		return fmt.Errorf("unknown storage %q, want postgres or memory", a.cfg.Storage)
	}

	return nil
}

func (a *app) migrate(ctx context.Context) error {
	if a.db == nil {
		return nil
	}

	if err := storage.Migrate(ctx, a.db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	a.log.Info("schema is up to date")

	return nil
}

// seedKeywords adds the configured default keywords to the tracked set.
func (a *app) seedKeywords(ctx context.Context) error {
	for _, kw := range filter.Normalize(a.cfg.DefaultKeywords) {
		if err := a.keywords.AddKeyword(ctx, kw); err != nil {
			return fmt.Errorf("seed keyword %q: %w", kw, err)
		}
	}

	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
