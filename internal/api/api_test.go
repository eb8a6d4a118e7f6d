package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/0x0BSoD/noticeboard/internal/aggregator"
	"github.com/0x0BSoD/noticeboard/internal/api"
	"github.com/0x0BSoD/noticeboard/internal/crawler"
	"github.com/0x0BSoD/noticeboard/internal/fetcher"
	"github.com/0x0BSoD/noticeboard/internal/metrics"
	"github.com/0x0BSoD/noticeboard/internal/model"
)

type mockAggregator struct {
	notices   []model.Notice
	err       error
	searched  []string
	reg       fetcher.Registration
	promote   bool
	regResult *model.Section
}

func (m *mockAggregator) Organizations(context.Context) ([]model.Organization, error) {
	return []model.Organization{{ID: 1, Name: "Acme", BaseURL: "http://acme.org"}}, m.err
}

func (m *mockAggregator) ListCachedNotices(_ context.Context, org string) ([]model.Notice, error) {
	if org != "Acme" {
		return nil, fmt.Errorf("%w: %s", model.ErrOrganizationNotFound, org)
	}
	return m.notices, m.err
}

func (m *mockAggregator) TriggerCrawl(_ context.Context, org string) (crawler.Result, error) {
	return crawler.Result{RunID: "run-1", Stored: 2}, m.err
}

func (m *mockAggregator) RegisterSection(_ context.Context, reg fetcher.Registration) (*model.Section, crawler.Result, error) {
	m.reg = reg
	return m.regResult, crawler.Result{Stored: 1}, m.err
}

func (m *mockAggregator) Search(_ context.Context, keywords []string) ([]model.Notice, error) {
	m.searched = keywords
	return m.notices, m.err
}

func (m *mockAggregator) KeywordSearch(_ context.Context, keyword, org string, promote bool) (aggregator.KeywordResult, error) {
	m.promote = promote
	return aggregator.KeywordResult{Keyword: keyword, Source: aggregator.SourceScraped, Results: m.notices}, m.err
}

func setupRouter(t *testing.T, svc api.Aggregator) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	metrics.New(reg)

	return api.NewRouter(api.NewHandler(svc, zap.NewNop()), reg)
}

func do(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestNotices(t *testing.T) {
	svc := &mockAggregator{notices: []model.Notice{{
		Organization: "Acme",
		Section:      "News",
		Title:        "Exam notice",
		URL:          "http://acme.org/n/1",
		ScrapedAt:    time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}}}
	router := setupRouter(t, svc)

	w := do(router, http.MethodGet, "/api/notices/Acme", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Notices []model.Notice `json:"notices"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, svc.notices, body.Notices)

	w = do(router, http.MethodGet, "/api/notices/Nobody", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "organization not found")
}

func TestSearch(t *testing.T) {
	svc := &mockAggregator{}
	router := setupRouter(t, svc)

	w := do(router, http.MethodGet, "/api/search?q=exam,tender", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"exam", "tender"}, svc.searched)

	svc.err = fmt.Errorf("at least one keyword is required: %w", model.ErrInvalidArgument)
	w = do(router, http.MethodGet, "/api/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddSection(t *testing.T) {
	svc := &mockAggregator{regResult: &model.Section{ID: 3, Name: "News", Path: "/news", Variant: model.Carousel}}
	router := setupRouter(t, svc)

	w := do(router, http.MethodPost, "/api/sections", map[string]string{
		"org_name":     "Acme",
		"base_url":     "http://acme.org",
		"section_name": "News",
		"section_url":  "/news",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, fetcher.Registration{Organization: "Acme", BaseURL: "http://acme.org", SectionName: "News", SectionPath: "/news"}, svc.reg)
	assert.Contains(t, w.Body.String(), `"parser_type":"carousel"`)

	svc.regResult, svc.err = nil, fmt.Errorf("/news: %w", model.ErrSectionExists)
	w = do(router, http.MethodPost, "/api/sections", map[string]string{"org_name": "Acme"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestKeywordSearch(t *testing.T) {
	svc := &mockAggregator{}
	router := setupRouter(t, svc)

	w := do(router, http.MethodPost, "/api/keyword-search", map[string]any{
		"keyword":         "budget",
		"org_name":        "Acme",
		"add_to_defaults": true,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.promote)
	assert.Contains(t, w.Body.String(), `"source":"scraped"`)
}

func TestScrapeNowFailure(t *testing.T) {
	svc := &mockAggregator{err: errors.New("store notices: connection refused")}
	router := setupRouter(t, svc)

	w := do(router, http.MethodPost, "/api/scrape-now/Acme", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"store notices: connection refused"}`, w.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	router := setupRouter(t, &mockAggregator{})

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/healthz", nil).Code)

	w := do(router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "noticeboard_browser_sessions_in_use")
}
