package crawler

import (
	"context"

	"go.uber.org/zap"

	"github.com/0x0BSoD/noticeboard/internal/layout"
	"github.com/0x0BSoD/noticeboard/internal/metrics"
	"github.com/0x0BSoD/noticeboard/internal/model"
)

type Detector struct {
	browser  Browser
	timeouts Timeouts
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewDetector(browser Browser, timeouts Timeouts, m *metrics.Metrics, log *zap.Logger) *Detector {
	return &Detector{
		browser:  browser,
		timeouts: timeouts,
		metrics:  m,
		log:      log.Named("detector"),
	}
}

// Detect renders url once and reports its layout. It never fails: any
// error degrades to the generic list layout.
func (d *Detector) Detect(ctx context.Context, url string) model.Variant {
	variant, err := d.detect(ctx, url)
	if err != nil {
		d.log.Warn("layout detection failed, using list layout",
			zap.String("url", url), zap.Error(err))
		variant = model.List
	}

	d.log.Info("layout detected", zap.String("url", url), zap.Stringer("variant", variant))
	d.metrics.DetectionsTotal.WithLabelValues(variant.String()).Inc()

	return variant
}

func (d *Detector) detect(ctx context.Context, url string) (model.Variant, error) {
	sess, err := d.browser.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer sess.Close()

	if err := open(ctx, sess, url, d.timeouts); err != nil {
		return 0, err
	}

	return layout.Classify(sess)
}
