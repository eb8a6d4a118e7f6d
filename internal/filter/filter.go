// Package filter keeps the records whose titles mention a tracked keyword.
package filter

import (
	"strings"

	"github.com/samber/lo"

	"github.com/0x0BSoD/noticeboard/internal/model"
)

// Normalize lowercases and trims keywords, dropping blanks and duplicates.
func Normalize(keywords []string) []string {
	out := lo.FilterMap(keywords, func(k string, _ int) (string, bool) {
		k = strings.ToLower(strings.TrimSpace(k))
		return k, k != ""
	})
	return lo.Uniq(out)
}

// Match returns the records with a title and url whose lowercased title
// contains at least one keyword. No keywords means no matches.
func Match(records []model.Record, keywords []string) []model.Record {
	keywords = Normalize(keywords)

	return lo.Filter(records, func(r model.Record, _ int) bool {
		if r.Title == "" || r.URL == "" {
			return false
		}
		return mentionsAny(r.Title, keywords)
	})
}

func mentionsAny(title string, keywords []string) bool {
	title = strings.ToLower(title)
	for _, keyword := range keywords {
		if strings.Contains(title, keyword) {
			return true
		}
	}
	return false
}
