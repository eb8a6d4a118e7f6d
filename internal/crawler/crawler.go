// Package crawler renders section pages, extracts their notices and writes
// the keyword matches to the store.
package crawler

import (
	"context"
	"strings"
	"time"

	"github.com/0x0BSoD/noticeboard/internal/browser"
	"github.com/0x0BSoD/noticeboard/internal/model"
)

// Browser hands out sessions. *browser.Pool satisfies it.
type Browser interface {
	Acquire(ctx context.Context) (browser.Session, error)
}

type NoticeStorage interface {
	Upsert(ctx context.Context, notice model.Notice) error
}

// Timeouts bound every page load. Navigation covers the request up to the
// load event, Ready the wait for document.readyState to become complete.
type Timeouts struct {
	Navigation time.Duration
	Ready      time.Duration
}

// Trigger names what started a run, for logs and metrics.
type Trigger string

const (
	TriggerPeriodic     Trigger = "periodic"
	TriggerOnDemand     Trigger = "on_demand"
	TriggerRegistration Trigger = "registration"
	TriggerQuery        Trigger = "query"
)

// JoinURL appends a section path to an organization base URL.
func JoinURL(baseURL, path string) string {
	path = strings.TrimSpace(path)
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(strings.TrimSpace(baseURL), "/") + path
}

// open navigates sess to url and waits for the document to be ready.
func open(ctx context.Context, sess browser.Session, url string, t Timeouts) error {
	navCtx, cancel := context.WithTimeout(ctx, t.Navigation)
	defer cancel()

	if err := sess.Navigate(navCtx, url); err != nil {
		return err
	}

	return sess.WaitUntilReady(ctx, t.Ready)
}
