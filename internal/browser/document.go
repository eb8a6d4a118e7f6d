package browser

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Document is a parsed DOM snapshot queried with CSS selectors.
type Document struct {
	doc  *goquery.Document
	base *url.URL
}

// ParseDocument parses HTML from r. base is used to resolve relative links
// and may be nil.
func ParseDocument(r io.Reader, base *url.URL) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok && base != nil {
		if u, err := base.Parse(strings.TrimSpace(href)); err == nil {
			base = u
		}
	}
	return &Document{doc: doc, base: base}, nil
}

// FindAll returns the elements matching selector in document order. An
// invalid selector is an error, not an empty result.
func (d *Document) FindAll(selector string) ([]Element, error) {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", selector, err)
	}

	sel := d.doc.FindMatcher(matcher)
	out := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, element{sel: s, base: d.base})
	})
	return out, nil
}

type element struct {
	sel  *goquery.Selection
	base *url.URL
}

func (e element) Text() string {
	return e.sel.Text()
}

func (e element) Attribute(name string) (string, bool) {
	v, ok := e.sel.Attr(name)
	if !ok {
		return "", false
	}
	switch strings.ToLower(name) {
	case "href", "src":
		return resolve(e.base, v), true
	}
	return v, true
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || base == nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}
