package aggregator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/0x0BSoD/noticeboard/internal/crawler"
	"github.com/0x0BSoD/noticeboard/internal/fetcher"
	"github.com/0x0BSoD/noticeboard/internal/model"
	"github.com/0x0BSoD/noticeboard/internal/storage/memory"
)

type stubCollector struct {
	calls   int
	notices []model.Notice
	target  crawler.Target
}

func (c *stubCollector) Collect(_ context.Context, target crawler.Target, _ []string) ([]model.Notice, error) {
	c.calls++
	c.target = target
	return c.notices, nil
}

type stubScheduler struct {
	crawled []string
}

func (s *stubScheduler) CrawlOrganization(_ context.Context, name string) (crawler.Result, error) {
	s.crawled = append(s.crawled, name)
	return crawler.Result{Stored: 1}, nil
}

func (s *stubScheduler) RegisterSection(_ context.Context, reg fetcher.Registration) (*model.Section, crawler.Result, error) {
	return &model.Section{Name: reg.SectionName, Path: reg.SectionPath, Variant: model.List}, crawler.Result{}, nil
}

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, store *memory.Store, c Collector) *Service {
	t.Helper()

	org, err := store.GetOrCreate(context.Background(), "Acme", "http://acme.org")
	require.NoError(t, err)
	_, err = store.Add(context.Background(), model.Section{OrganizationID: org.ID, Name: "News", Path: "/news", Variant: model.List})
	require.NoError(t, err)

	s := New(store, store, store, store, &stubScheduler{}, c,
		Options{FreshnessWindow: 30 * time.Minute, SearchLimit: 100}, zap.NewNop())
	s.now = func() time.Time { return now }
	return s
}

func TestService_KeywordSearchPromotion(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	collector := &stubCollector{notices: []model.Notice{{
		Organization: "Acme",
		Section:      "News",
		Title:        "Budget 2025 approved",
		URL:          "http://acme.org/n/7",
		ScrapedAt:    now,
	}}}
	s := newService(t, store, collector)

	res, err := s.KeywordSearch(ctx, "Budget", "acme", false)
	require.NoError(t, err)
	assert.Equal(t, SourceScraped, res.Source)
	assert.False(t, res.Promoted)
	assert.Len(t, res.Results, 1)
	assert.Equal(t, "http://acme.org", collector.target.BaseURL)
	require.Len(t, collector.target.Sections, 1)

	stored, err := store.Search(ctx, []string{"budget"}, "", 0)
	require.NoError(t, err)
	assert.Empty(t, stored)

	res, err = s.KeywordSearch(ctx, "budget", "Acme", true)
	require.NoError(t, err)
	assert.Equal(t, SourceScraped, res.Source)
	assert.True(t, res.Promoted)

	res, err = s.KeywordSearch(ctx, "budget", "Acme", false)
	require.NoError(t, err)
	assert.Equal(t, SourceCached, res.Source)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "Budget 2025 approved", res.Results[0].Title)
	assert.Equal(t, 2, collector.calls)
}

func TestService_KeywordSearchErrors(t *testing.T) {
	s := newService(t, memory.New(), &stubCollector{})

	_, err := s.KeywordSearch(context.Background(), " ", "Acme", false)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	_, err = s.KeywordSearch(context.Background(), "budget", "", false)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	_, err = s.KeywordSearch(context.Background(), "budget", "Nobody", false)
	assert.ErrorIs(t, err, model.ErrOrganizationNotFound)
}

func TestService_ListCachedNoticesFreshnessWindow(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := newService(t, store, &stubCollector{})

	require.NoError(t, store.Upsert(ctx, model.Notice{Organization: "Acme", Section: "News", Title: "stale", URL: "u1", ScrapedAt: now.Add(-31 * time.Minute)}))
	require.NoError(t, store.Upsert(ctx, model.Notice{Organization: "Acme", Section: "News", Title: "fresh", URL: "u2", ScrapedAt: now.Add(-10 * time.Minute)}))

	got, err := s.ListCachedNotices(ctx, "ACME")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].Title)

	s.now = func() time.Time { return now.Add(time.Hour) }
	got, err = s.ListCachedNotices(ctx, "Acme")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = s.ListCachedNotices(ctx, "Nobody")
	assert.ErrorIs(t, err, model.ErrOrganizationNotFound)
}

func TestService_Search(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := newService(t, store, &stubCollector{})
	s.opts.SearchLimit = 3

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Upsert(ctx, model.Notice{
			Organization: "Acme",
			Section:      "News",
			Title:        fmt.Sprintf("Exam notice %d", i),
			URL:          fmt.Sprintf("u%d", i),
			ScrapedAt:    now.Add(-time.Duration(i) * 24 * time.Hour),
		}))
	}

	got, err := s.Search(ctx, []string{" EXAM ", "tender"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Exam notice 0", got[0].Title)

	_, err = s.Search(ctx, []string{" ", ""})
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestService_TriggerCrawl(t *testing.T) {
	sched := &stubScheduler{}
	s := New(nil, nil, nil, nil, sched, nil, Options{}, zap.NewNop())

	res, err := s.TriggerCrawl(context.Background(), " Acme ")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stored)
	assert.Equal(t, []string{"Acme"}, sched.crawled)

	_, err = s.TriggerCrawl(context.Background(), "")
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}
