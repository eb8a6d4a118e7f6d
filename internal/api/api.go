// Package api serves the aggregator over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/0x0BSoD/noticeboard/internal/aggregator"
	"github.com/0x0BSoD/noticeboard/internal/crawler"
	"github.com/0x0BSoD/noticeboard/internal/fetcher"
	"github.com/0x0BSoD/noticeboard/internal/model"
)

// Aggregator defines the operations needed by the handlers.
type Aggregator interface {
	Organizations(ctx context.Context) ([]model.Organization, error)
	ListCachedNotices(ctx context.Context, org string) ([]model.Notice, error)
	TriggerCrawl(ctx context.Context, org string) (crawler.Result, error)
	RegisterSection(ctx context.Context, reg fetcher.Registration) (*model.Section, crawler.Result, error)
	Search(ctx context.Context, keywords []string) ([]model.Notice, error)
	KeywordSearch(ctx context.Context, keyword, org string, promote bool) (aggregator.KeywordResult, error)
}

type Handler struct {
	svc Aggregator
	log *zap.Logger
}

func NewHandler(svc Aggregator, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log.Named("api")}
}

// NewRouter wires every route. Metrics are served from gatherer.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.logRequests())

	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	api.GET("/organizations", h.Organizations)
	api.GET("/notices/:org", h.Notices)
	api.POST("/scrape-now/:org", h.ScrapeNow)
	api.POST("/sections", h.AddSection)
	api.GET("/search", h.Search)
	api.POST("/keyword-search", h.KeywordSearch)

	return router
}

// Organizations handles GET /api/organizations.
func (h *Handler) Organizations(c *gin.Context) {
	orgs, err := h.svc.Organizations(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"organizations": orgs})
}

// Notices handles GET /api/notices/:org.
func (h *Handler) Notices(c *gin.Context) {
	notices, err := h.svc.ListCachedNotices(c.Request.Context(), c.Param("org"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notices": notices})
}

// ScrapeNow handles POST /api/scrape-now/:org.
func (h *Handler) ScrapeNow(c *gin.Context) {
	res, err := h.svc.TriggerCrawl(c.Request.Context(), c.Param("org"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// AddSection handles POST /api/sections.
func (h *Handler) AddSection(c *gin.Context) {
	var reg fetcher.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sec, res, err := h.svc.RegisterSection(c.Request.Context(), reg)
	if err != nil && sec == nil {
		h.fail(c, err)
		return
	}

	body := gin.H{"section": sec, "parser_type": sec.Variant, "crawl": res}
	if err != nil {
		body["error"] = err.Error()
	}

	c.JSON(http.StatusCreated, body)
}

// Search handles GET /api/search?q=a,b.
func (h *Handler) Search(c *gin.Context) {
	notices, err := h.svc.Search(c.Request.Context(), strings.Split(c.Query("q"), ","))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notices": notices})
}

type keywordSearchRequest struct {
	Keyword string `json:"keyword"`
	Org     string `json:"org_name"`
	Promote bool   `json:"add_to_defaults"`
}

// KeywordSearch handles POST /api/keyword-search.
func (h *Handler) KeywordSearch(c *gin.Context) {
	var req keywordSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.svc.KeywordSearch(c.Request.Context(), req.Keyword, req.Org, req.Promote)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrOrganizationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrSectionExists):
		status = http.StatusConflict
	}

	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}

		if len(c.Errors) > 0 {
			h.log.Error("HTTP request with errors", append(fields, zap.Strings("errors", c.Errors.Errors()))...)
			return
		}
		h.log.Debug("HTTP request", fields...)
	}
}
