package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/0x0BSoD/noticeboard/internal/browser"
	"github.com/0x0BSoD/noticeboard/internal/filter"
	"github.com/0x0BSoD/noticeboard/internal/layout"
	"github.com/0x0BSoD/noticeboard/internal/metrics"
	"github.com/0x0BSoD/noticeboard/internal/model"
)

// Target is one organization and the sections to crawl on it.
type Target struct {
	Organization string
	BaseURL      string
	Sections     []model.Section
}

type SectionResult struct {
	Section string `json:"section"`
	URL     string `json:"url"`
	Found   int    `json:"found"`
	Matched int    `json:"matched"`
	Error   string `json:"error,omitempty"`
}

type Result struct {
	RunID     string          `json:"run_id"`
	StartedAt time.Time       `json:"started_at"`
	Sections  []SectionResult `json:"sections"`
	Stored    int             `json:"stored"`
}

type Executor struct {
	browser  Browser
	notices  NoticeStorage
	timeouts Timeouts
	metrics  *metrics.Metrics
	log      *zap.Logger

	now func() time.Time
}

func NewExecutor(
	browser Browser,
	notices NoticeStorage,
	timeouts Timeouts,
	m *metrics.Metrics,
	log *zap.Logger,
) *Executor {
	return &Executor{
		browser:  browser,
		notices:  notices,
		timeouts: timeouts,
		metrics:  m,
		log:      log.Named("executor"),
		now:      time.Now,
	}
}

// Run crawls the target's sections in order and upserts every keyword match
// with one timestamp shared by the whole run. A section that fails to load
// or parse counts as empty and the run moves on; a store failure aborts the
// run and is returned.
func (e *Executor) Run(ctx context.Context, trigger Trigger, target Target, keywords []string) (Result, error) {
	var stored int
	res, err := e.walk(ctx, trigger, target, keywords, func(n model.Notice) error {
		if err := e.notices.Upsert(ctx, n); err != nil {
			return err
		}
		stored++
		e.metrics.NoticesUpserted.Inc()
		return nil
	})
	res.Stored = stored

	return res, err
}

// Collect walks the target like Run but returns the matches instead of
// storing them.
func (e *Executor) Collect(ctx context.Context, target Target, keywords []string) ([]model.Notice, error) {
	out := make([]model.Notice, 0)
	_, err := e.walk(ctx, TriggerQuery, target, keywords, func(n model.Notice) error {
		out = append(out, n)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (e *Executor) walk(
	ctx context.Context,
	trigger Trigger,
	target Target,
	keywords []string,
	emit func(model.Notice) error,
) (res Result, err error) {
	res = Result{
		RunID:     uuid.NewString(),
		StartedAt: e.now().UTC().Truncate(time.Second),
		Sections:  make([]SectionResult, 0, len(target.Sections)),
	}

	log := e.log.With(
		zap.String("run_id", res.RunID),
		zap.String("org", target.Organization),
		zap.String("trigger", string(trigger)),
	)

	started := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		e.metrics.RunsTotal.WithLabelValues(string(trigger), status).Inc()
		e.metrics.RunDuration.WithLabelValues(string(trigger)).Observe(time.Since(started).Seconds())
	}()

	sess, err := e.browser.Acquire(ctx)
	if err != nil {
		return res, err
	}
	defer sess.Close()

	log.Info("run started", zap.Int("sections", len(target.Sections)))

	for _, sec := range target.Sections {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		url := JoinURL(target.BaseURL, sec.Path)
		sr := SectionResult{Section: sec.Name, URL: url}
		secLog := log.With(zap.String("section", sec.Name), zap.String("url", url))

		variant := sec.Variant
		if !variant.Valid() {
			secLog.Warn("section has no known layout, using list layout")
			variant = model.List
		}

		records, err := e.scrape(ctx, sess, url, variant)
		if err != nil {
			secLog.Warn("section skipped", zap.Error(err))
			e.metrics.SectionsTotal.WithLabelValues("failed").Inc()
			sr.Error = err.Error()
			res.Sections = append(res.Sections, sr)
			continue
		}

		matched := filter.Match(records, keywords)
		sr.Found, sr.Matched = len(records), len(matched)

		for _, r := range matched {
			notice := model.Notice{
				Organization: target.Organization,
				Section:      sec.Name,
				Title:        r.Title,
				URL:          r.URL,
				ScrapedAt:    res.StartedAt,
			}
			if err := emit(notice); err != nil {
				res.Sections = append(res.Sections, sr)
				return res, fmt.Errorf("store notices of %s/%s: %w", target.Organization, sec.Name, err)
			}
		}

		e.metrics.SectionsTotal.WithLabelValues("ok").Inc()
		res.Sections = append(res.Sections, sr)
		secLog.Info("section crawled", zap.Int("found", sr.Found), zap.Int("matched", sr.Matched))
	}

	log.Info("run finished", zap.Duration("took", time.Since(started)))

	return res, nil
}

// scrape loads one section page and extracts its records. Extractor panics
// are turned into errors so one broken page cannot take the run down.
func (e *Executor) scrape(ctx context.Context, sess browser.Session, url string, variant model.Variant) (records []model.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract %s: panic: %v", variant, r)
		}
	}()

	if err := open(ctx, sess, url, e.timeouts); err != nil {
		return nil, err
	}

	return layout.Extract(variant, sess)
}
