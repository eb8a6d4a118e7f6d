// Package layout classifies which page layout a section uses and extracts
// (title, url) records from each layout.
package layout

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/0x0BSoD/noticeboard/internal/browser"
	"github.com/0x0BSoD/noticeboard/internal/model"
)

const (
	carouselSelector  = "div.carousel-item"
	accordionSelector = "div.accordion-item"
	tabularSelector   = "a[href$='.pdf'], table"
)

// Classify reports the layout of page. Checks run in priority order, so a
// page with both a carousel and an accordion is a carousel.
func Classify(page browser.Page) (model.Variant, error) {
	checks := []struct {
		selector string
		variant  model.Variant
	}{
		{carouselSelector, model.Carousel},
		{accordionSelector, model.Accordion},
		{tabularSelector, model.Tenders},
	}

	for _, c := range checks {
		els, err := page.FindAll(c.selector)
		if err != nil {
			return 0, err
		}
		if len(els) > 0 {
			return c.variant, nil
		}
	}

	return model.List, nil
}

type extractFunc func(browser.Page) ([]model.Record, error)

var extractors = [...]extractFunc{
	model.Carousel:  titledAnchors(carouselSelector + " a"),
	model.Accordion: titledAnchors(accordionSelector + " a"),
	model.List:      extractList,
	model.Tenders:   extractTenders,
}

// Extract pulls records off page using the extractor for v. No matches is
// an empty result, not an error.
func Extract(v model.Variant, page browser.Page) ([]model.Record, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("no extractor for %s", v)
	}

	records, err := extractors[v](page)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", v, err)
	}

	return lo.Uniq(records), nil
}

// titledAnchors prefers the title attribute over the link text.
func titledAnchors(selector string) extractFunc {
	return func(page browser.Page) ([]model.Record, error) {
		els, err := page.FindAll(selector)
		if err != nil {
			return nil, err
		}

		out := make([]model.Record, 0, len(els))
		for _, el := range els {
			title, _ := el.Attribute("title")
			title = cleanText(title)
			if title == "" {
				title = cleanText(el.Text())
			}
			if title == "" {
				continue
			}
			href, _ := el.Attribute("href")
			out = append(out, model.Record{Title: title, URL: href})
		}
		return out, nil
	}
}

func extractList(page browser.Page) ([]model.Record, error) {
	els, err := page.FindAll("a[href]")
	if err != nil {
		return nil, err
	}
	return textAnchors(els), nil
}

func extractTenders(page browser.Page) ([]model.Record, error) {
	els, err := page.FindAll("a[href*='.pdf'], table a[href]")
	if err != nil {
		return nil, err
	}

	records := textAnchors(els)
	if len(records) > 0 {
		return records, nil
	}

	return extractList(page)
}

func textAnchors(els []browser.Element) []model.Record {
	out := make([]model.Record, 0, len(els))
	for _, el := range els {
		title := cleanText(el.Text())
		href, _ := el.Attribute("href")
		if title == "" || href == "" {
			continue
		}
		out = append(out, model.Record{Title: title, URL: href})
	}
	return out
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
