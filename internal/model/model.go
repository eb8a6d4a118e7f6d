// Package model defines the data structures used in the noticeboard application: tracked organizations, their sections, and the notices discovered on them.
package model

import (
	"errors"
	"time"
)

var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrSectionExists        = errors.New("section already registered")
	ErrInvalidArgument      = errors.New("invalid argument")
)

type Organization struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	BaseURL   string    `json:"base_url"`
	CreatedAt time.Time `json:"created_at"`
}

type Section struct {
	ID             int64     `json:"id"`
	OrganizationID int64     `json:"org_id"`
	Name           string    `json:"section_name"`
	Path           string    `json:"section_url"`
	Variant        Variant   `json:"parser_type"`
	CreatedAt      time.Time `json:"created_at"`
}

// Record is one raw (title, url) candidate pulled off a page.
type Record struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Notice is a deduplicated discovery. Organization and Section hold names,
// not ids: renaming either leaves older notices under the old name.
type Notice struct {
	ID           int64     `json:"id,omitempty"`
	Organization string    `json:"org"`
	Section      string    `json:"section"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	ScrapedAt    time.Time `json:"scraped_at"`
}
