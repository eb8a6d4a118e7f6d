// Package aggregator exposes the read and trigger operations served to the
// HTTP API, the bot and the CLI.
package aggregator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/0x0BSoD/noticeboard/internal/crawler"
	"github.com/0x0BSoD/noticeboard/internal/fetcher"
	"github.com/0x0BSoD/noticeboard/internal/filter"
	"github.com/0x0BSoD/noticeboard/internal/model"
)

type NoticeStorage interface {
	Upsert(ctx context.Context, notice model.Notice) error
	Fresh(ctx context.Context, org string, since time.Time) ([]model.Notice, error)
	Search(ctx context.Context, keywords []string, org string, limit int) ([]model.Notice, error)
}

type OrganizationStorage interface {
	OrganizationByName(ctx context.Context, name string) (*model.Organization, error)
	Organizations(ctx context.Context) ([]model.Organization, error)
}

type SectionProvider interface {
	Sections(ctx context.Context, orgID int64) ([]model.Section, error)
}

type KeywordStorage interface {
	IsKeyword(ctx context.Context, keyword string) (bool, error)
	AddKeyword(ctx context.Context, keyword string) error
}

type Scheduler interface {
	CrawlOrganization(ctx context.Context, name string) (crawler.Result, error)
	RegisterSection(ctx context.Context, reg fetcher.Registration) (*model.Section, crawler.Result, error)
}

type Collector interface {
	Collect(ctx context.Context, target crawler.Target, keywords []string) ([]model.Notice, error)
}

// Source tells whether keyword search results came from the store or from a
// live crawl.
type Source string

const (
	SourceCached  Source = "cached"
	SourceScraped Source = "scraped"
)

type KeywordResult struct {
	Keyword  string         `json:"keyword"`
	Source   Source         `json:"source"`
	Promoted bool           `json:"promoted"`
	Results  []model.Notice `json:"results"`
}

type Options struct {
	FreshnessWindow time.Duration
	SearchLimit     int
}

type Service struct {
	notices   NoticeStorage
	orgs      OrganizationStorage
	sections  SectionProvider
	keywords  KeywordStorage
	scheduler Scheduler
	collector Collector
	opts      Options
	log       *zap.Logger

	now func() time.Time
}

func New(
	notices NoticeStorage,
	orgs OrganizationStorage,
	sections SectionProvider,
	keywords KeywordStorage,
	scheduler Scheduler,
	collector Collector,
	opts Options,
	log *zap.Logger,
) *Service {
	return &Service{
		notices:   notices,
		orgs:      orgs,
		sections:  sections,
		keywords:  keywords,
		scheduler: scheduler,
		collector: collector,
		opts:      opts,
		log:       log.Named("aggregator"),
		now:       time.Now,
	}
}

// ListCachedNotices returns the notices of org seen within the freshness
// window, newest first.
func (s *Service) ListCachedNotices(ctx context.Context, org string) ([]model.Notice, error) {
	o, err := s.organization(ctx, org)
	if err != nil {
		return nil, err
	}

	since := s.now().UTC().Add(-s.opts.FreshnessWindow)

	return s.notices.Fresh(ctx, o.Name, since)
}

func (s *Service) TriggerCrawl(ctx context.Context, org string) (crawler.Result, error) {
	if strings.TrimSpace(org) == "" {
		return crawler.Result{}, fmt.Errorf("org is required: %w", model.ErrInvalidArgument)
	}

	return s.scheduler.CrawlOrganization(ctx, strings.TrimSpace(org))
}

func (s *Service) RegisterSection(ctx context.Context, reg fetcher.Registration) (*model.Section, crawler.Result, error) {
	return s.scheduler.RegisterSection(ctx, reg)
}

// Search looks the keywords up across every stored notice regardless of age.
func (s *Service) Search(ctx context.Context, keywords []string) ([]model.Notice, error) {
	keywords = filter.Normalize(keywords)
	if len(keywords) == 0 {
		return nil, fmt.Errorf("at least one keyword is required: %w", model.ErrInvalidArgument)
	}

	return s.notices.Search(ctx, keywords, "", s.opts.SearchLimit)
}

// KeywordSearch serves a tracked keyword from the store and crawls the
// organization live for any other keyword. With promote, a live keyword
// becomes tracked and its matches are stored, so the next identical query is
// served from the store.
func (s *Service) KeywordSearch(ctx context.Context, keyword, org string, promote bool) (KeywordResult, error) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" || strings.TrimSpace(org) == "" {
		return KeywordResult{}, fmt.Errorf("keyword and org are required: %w", model.ErrInvalidArgument)
	}

	o, err := s.organization(ctx, org)
	if err != nil {
		return KeywordResult{}, err
	}

	res := KeywordResult{Keyword: keyword}
	log := s.log.With(zap.String("org", o.Name), zap.String("keyword", keyword))

	tracked, err := s.keywords.IsKeyword(ctx, keyword)
	if err != nil {
		return KeywordResult{}, err
	}

	if tracked {
		res.Source = SourceCached
		res.Results, err = s.notices.Search(ctx, []string{keyword}, o.Name, s.opts.SearchLimit)
		return res, err
	}

	sections, err := s.sections.Sections(ctx, o.ID)
	if err != nil {
		return KeywordResult{}, fmt.Errorf("list sections: %w", err)
	}

	res.Source = SourceScraped
	res.Results, err = s.collector.Collect(ctx, crawler.Target{
		Organization: o.Name,
		BaseURL:      o.BaseURL,
		Sections:     sections,
	}, []string{keyword})
	if err != nil {
		return KeywordResult{}, err
	}

	log.Info("live keyword search", zap.Int("results", len(res.Results)))

	if !promote {
		return res, nil
	}

	for _, n := range res.Results {
		if err := s.notices.Upsert(ctx, n); err != nil {
			return KeywordResult{}, fmt.Errorf("store promoted notices: %w", err)
		}
	}
	if err := s.keywords.AddKeyword(ctx, keyword); err != nil {
		return KeywordResult{}, fmt.Errorf("promote keyword: %w", err)
	}
	res.Promoted = true

	log.Info("keyword promoted", zap.Int("stored", len(res.Results)))

	return res, nil
}

func (s *Service) Organizations(ctx context.Context) ([]model.Organization, error) {
	return s.orgs.Organizations(ctx)
}

func (s *Service) organization(ctx context.Context, name string) (*model.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("org is required: %w", model.ErrInvalidArgument)
	}

	return s.orgs.OrganizationByName(ctx, name)
}
