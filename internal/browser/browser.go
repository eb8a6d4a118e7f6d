// Package browser is the page automation capability the crawler drives: open
// a session, navigate, wait for the document to be ready and query the
// rendered DOM.
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNavigation = errors.New("navigation failed")
	ErrNotReady   = errors.New("document not ready")
)

type Element interface {
	Text() string
	// Attribute returns the attribute value. href and src come back resolved
	// against the page URL, the way a live DOM reports them.
	Attribute(name string) (string, bool)
}

// Page is a queryable rendered document.
type Page interface {
	FindAll(selector string) ([]Element, error)
}

type Session interface {
	Page
	Navigate(ctx context.Context, url string) error
	WaitUntilReady(ctx context.Context, timeout time.Duration) error
	Close() error
}

type Driver interface {
	NewSession(ctx context.Context) (Session, error)
}
