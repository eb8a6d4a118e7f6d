package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
)

// maxBodySize caps how much of a page is read. Anything past it is dropped.
const maxBodySize = 10 << 20

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// HTTPDriver fetches pages without executing scripts. A page is ready as soon
// as its markup is parsed.
type HTTPDriver struct {
	client    *http.Client
	userAgent string
}

func NewHTTPDriver(client *http.Client) *HTTPDriver {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPDriver{client: client, userAgent: defaultUserAgent}
}

func (d *HTTPDriver) NewSession(_ context.Context) (Session, error) {
	return &httpSession{driver: d}, nil
}

type httpSession struct {
	driver *HTTPDriver
	doc    *Document
}

func (s *httpSession) Navigate(ctx context.Context, url string) error {
	s.doc = nil

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}
	req.Header.Set("User-Agent", s.driver.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := s.driver.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: status %d", ErrNavigation, url, resp.StatusCode)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBodySize), resp.Header.Get("Content-Type"))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}

	doc, err := ParseDocument(body, resp.Request.URL)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}
	s.doc = doc

	return nil
}

func (s *httpSession) WaitUntilReady(_ context.Context, _ time.Duration) error {
	if s.doc == nil {
		return ErrNotReady
	}
	return nil
}

func (s *httpSession) FindAll(selector string) ([]Element, error) {
	if s.doc == nil {
		return nil, ErrNotReady
	}
	return s.doc.FindAll(selector)
}

func (s *httpSession) Close() error {
	s.doc = nil
	return nil
}
