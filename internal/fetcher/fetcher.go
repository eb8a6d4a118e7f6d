package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/0x0BSoD/noticeboard/internal/crawler"
	"github.com/0x0BSoD/noticeboard/internal/filter"
	"github.com/0x0BSoD/noticeboard/internal/model"
)

type OrganizationStorage interface {
	GetOrCreate(ctx context.Context, name, baseURL string) (*model.Organization, error)
	OrganizationByName(ctx context.Context, name string) (*model.Organization, error)
	Organizations(ctx context.Context) ([]model.Organization, error)
}

type SectionStorage interface {
	Add(ctx context.Context, section model.Section) (*model.Section, error)
	SectionByPath(ctx context.Context, orgID int64, path string) (*model.Section, error)
	Sections(ctx context.Context, orgID int64) ([]model.Section, error)
}

type KeywordProvider interface {
	Keywords(ctx context.Context) ([]string, error)
}

type NoticePruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

type Runner interface {
	Run(ctx context.Context, trigger crawler.Trigger, target crawler.Target, keywords []string) (crawler.Result, error)
}

type Detector interface {
	Detect(ctx context.Context, url string) model.Variant
}

type Reporter interface {
	Notify(msg string)
}

// Registration describes a section to start tracking.
type Registration struct {
	Organization string `json:"org_name"`
	BaseURL      string `json:"base_url"`
	SectionName  string `json:"section_name"`
	SectionPath  string `json:"section_url"`
}

type Fetcher struct {
	orgs     OrganizationStorage
	sections SectionStorage
	keywords KeywordProvider
	notices  NoticePruner
	runner   Runner
	detector Detector
	reporter Reporter
	log      *zap.Logger

	fetchInterval time.Duration
	retention     time.Duration
}

func New(
	orgs OrganizationStorage,
	sections SectionStorage,
	keywords KeywordProvider,
	notices NoticePruner,
	runner Runner,
	detector Detector,
	reporter Reporter,
	log *zap.Logger,
	fetchInterval time.Duration,
	retention time.Duration,
) *Fetcher {
	return &Fetcher{
		orgs:          orgs,
		sections:      sections,
		keywords:      keywords,
		notices:       notices,
		runner:        runner,
		detector:      detector,
		reporter:      reporter,
		log:           log.Named("fetcher"),
		fetchInterval: fetchInterval,
		retention:     retention,
	}
}

// Start runs a cycle right away and then one per fetch interval until ctx is
// done. A failed cycle is logged and reported; the next tick retries.
func (f *Fetcher) Start(ctx context.Context) error {
	ticker := time.NewTicker(f.fetchInterval)
	defer ticker.Stop()

	f.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			f.cycle(ctx)
		}
	}
}

func (f *Fetcher) cycle(ctx context.Context) {
	if err := f.Fetch(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		f.log.Error("crawl cycle failed", zap.Error(err))
		f.reporter.Notify(fmt.Sprintf("noticeboard: crawl cycle failed: %v", err))
	}
}

// Fetch runs one periodic cycle over every known organization, one after
// another.
func (f *Fetcher) Fetch(ctx context.Context) error {
	orgs, err := f.orgs.Organizations(ctx)
	if err != nil {
		return fmt.Errorf("list organizations: %w", err)
	}

	keywords, err := f.defaultKeywords(ctx)
	if err != nil {
		return err
	}
	if len(keywords) == 0 {
		f.log.Info("no default keywords, nothing to crawl")
		return f.prune(ctx)
	}

	var errs []error
	for _, org := range orgs {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := f.crawl(ctx, crawler.TriggerPeriodic, org, keywords); err != nil {
			f.log.Error("organization crawl failed", zap.String("org", org.Name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", org.Name, err))
		}
	}

	errs = append(errs, f.prune(ctx))

	return errors.Join(errs...)
}

// CrawlOrganization re-crawls every section of one organization now.
func (f *Fetcher) CrawlOrganization(ctx context.Context, name string) (crawler.Result, error) {
	org, err := f.orgs.OrganizationByName(ctx, name)
	if err != nil {
		return crawler.Result{}, err
	}

	keywords, err := f.defaultKeywords(ctx)
	if err != nil {
		return crawler.Result{}, err
	}

	return f.crawl(ctx, crawler.TriggerOnDemand, *org, keywords)
}

// RegisterSection detects the layout of a new section, stores it and crawls
// it right away so its notices are available without waiting for a cycle.
func (f *Fetcher) RegisterSection(ctx context.Context, reg Registration) (*model.Section, crawler.Result, error) {
	reg, err := normalizeRegistration(reg)
	if err != nil {
		return nil, crawler.Result{}, err
	}

	log := f.log.With(zap.String("org", reg.Organization), zap.String("section", reg.SectionName))

	baseURL := reg.BaseURL
	existing, err := f.orgs.OrganizationByName(ctx, reg.Organization)
	switch {
	case err == nil:
		if existing.BaseURL != reg.BaseURL {
			log.Warn("organization already tracked with another base url, keeping it",
				zap.String("base_url", existing.BaseURL))
		}
		baseURL = existing.BaseURL

		sec, err := f.sections.SectionByPath(ctx, existing.ID, reg.SectionPath)
		if err != nil {
			return nil, crawler.Result{}, err
		}
		if sec != nil {
			return nil, crawler.Result{}, fmt.Errorf("%s%s: %w", existing.Name, reg.SectionPath, model.ErrSectionExists)
		}
	case !errors.Is(err, model.ErrOrganizationNotFound):
		return nil, crawler.Result{}, err
	}

	variant := f.detector.Detect(ctx, crawler.JoinURL(baseURL, reg.SectionPath))

	org, err := f.orgs.GetOrCreate(ctx, reg.Organization, baseURL)
	if err != nil {
		return nil, crawler.Result{}, fmt.Errorf("store organization: %w", err)
	}

	sec, err := f.sections.Add(ctx, model.Section{
		OrganizationID: org.ID,
		Name:           reg.SectionName,
		Path:           reg.SectionPath,
		Variant:        variant,
	})
	if err != nil {
		return nil, crawler.Result{}, err
	}

	log.Info("section registered", zap.Stringer("variant", variant), zap.Int64("section_id", sec.ID))

	keywords, err := f.defaultKeywords(ctx)
	if err != nil {
		return sec, crawler.Result{}, err
	}

	res, err := f.runner.Run(ctx, crawler.TriggerRegistration, crawler.Target{
		Organization: org.Name,
		BaseURL:      org.BaseURL,
		Sections:     []model.Section{*sec},
	}, keywords)

	return sec, res, err
}

func (f *Fetcher) crawl(ctx context.Context, trigger crawler.Trigger, org model.Organization, keywords []string) (crawler.Result, error) {
	sections, err := f.sections.Sections(ctx, org.ID)
	if err != nil {
		return crawler.Result{}, fmt.Errorf("list sections: %w", err)
	}
	if len(sections) == 0 {
		f.log.Debug("organization has no sections", zap.String("org", org.Name))
		return crawler.Result{}, nil
	}

	return f.runner.Run(ctx, trigger, crawler.Target{
		Organization: org.Name,
		BaseURL:      org.BaseURL,
		Sections:     sections,
	}, keywords)
}

func (f *Fetcher) defaultKeywords(ctx context.Context) ([]string, error) {
	keywords, err := f.keywords.Keywords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load default keywords: %w", err)
	}

	return filter.Normalize(keywords), nil
}

func (f *Fetcher) prune(ctx context.Context) error {
	if f.retention <= 0 {
		return nil
	}

	n, err := f.notices.Prune(ctx, time.Now().UTC().Add(-f.retention))
	if err != nil {
		return fmt.Errorf("prune notices: %w", err)
	}
	if n > 0 {
		f.log.Info("old notices pruned", zap.Int64("count", n))
	}

	return nil
}

func normalizeRegistration(reg Registration) (Registration, error) {
	reg.Organization = strings.TrimSpace(reg.Organization)
	reg.BaseURL = strings.TrimRight(strings.TrimSpace(reg.BaseURL), "/")
	reg.SectionName = strings.TrimSpace(reg.SectionName)
	reg.SectionPath = strings.TrimSpace(reg.SectionPath)

	if reg.Organization == "" || reg.BaseURL == "" || reg.SectionName == "" || reg.SectionPath == "" {
		return reg, fmt.Errorf("org_name, base_url, section_name and section_url are required: %w", model.ErrInvalidArgument)
	}

	u, err := url.Parse(reg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return reg, fmt.Errorf("base_url %q is not an http(s) url: %w", reg.BaseURL, model.ErrInvalidArgument)
	}

	if !strings.HasPrefix(reg.SectionPath, "/") {
		reg.SectionPath = "/" + reg.SectionPath
	}

	return reg, nil
}
