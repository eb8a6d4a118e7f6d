// Package memory is a process-local store with the same semantics as the
// Postgres storage. Used for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/0x0BSoD/noticeboard/internal/model"
)

type noticeKey struct {
	org, section, title, url string
}

type Store struct {
	mu sync.RWMutex

	orgs     []model.Organization
	sections []model.Section
	notices  map[noticeKey]*model.Notice
	keywords map[string]struct{}
	nextID   int64
}

func New() *Store {
	return &Store{
		notices:  make(map[noticeKey]*model.Notice),
		keywords: make(map[string]struct{}),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Upsert(_ context.Context, notice model.Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := noticeKey{notice.Organization, notice.Section, notice.Title, notice.URL}
	if existing, ok := s.notices[key]; ok {
		if notice.ScrapedAt.After(existing.ScrapedAt) {
			existing.ScrapedAt = notice.ScrapedAt.UTC()
		}
		return nil
	}

	notice.ID = s.id()
	notice.ScrapedAt = notice.ScrapedAt.UTC()
	s.notices[key] = &notice

	return nil
}

func (s *Store) Fresh(_ context.Context, org string, since time.Time) ([]model.Notice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(n *model.Notice) bool {
		return n.Organization == org && !n.ScrapedAt.Before(since)
	}, 0), nil
}

func (s *Store) Search(_ context.Context, keywords []string, org string, limit int) ([]model.Notice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keywords = lo.Map(keywords, func(k string, _ int) string { return strings.ToLower(k) })

	return s.collect(func(n *model.Notice) bool {
		if org != "" && n.Organization != org {
			return false
		}
		title, section := strings.ToLower(n.Title), strings.ToLower(n.Section)
		return lo.SomeBy(keywords, func(k string) bool {
			return strings.Contains(title, k) || strings.Contains(section, k)
		})
	}, limit), nil
}

func (s *Store) Prune(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for key, notice := range s.notices {
		if notice.ScrapedAt.Before(before) {
			delete(s.notices, key)
			n++
		}
	}
	return n, nil
}

// collect returns matching notices newest first, at most limit when limit > 0.
func (s *Store) collect(match func(*model.Notice) bool, limit int) []model.Notice {
	out := make([]model.Notice, 0)
	for _, n := range s.notices {
		if match(n) {
			out = append(out, *n)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScrapedAt.Equal(out[j].ScrapedAt) {
			return out[i].ScrapedAt.After(out[j].ScrapedAt)
		}
		return out[i].ID > out[j].ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *Store) GetOrCreate(ctx context.Context, name, baseURL string) (*model.Organization, error) {
	s.mu.Lock()
	if _, ok := s.orgByName(name); !ok {
		s.orgs = append(s.orgs, model.Organization{
			ID:        s.id(),
			Name:      name,
			BaseURL:   baseURL,
			CreatedAt: time.Now().UTC(),
		})
	}
	s.mu.Unlock()

	return s.OrganizationByName(ctx, name)
}

func (s *Store) OrganizationByName(_ context.Context, name string) (*model.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, ok := s.orgByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrOrganizationNotFound, name)
	}
	return &org, nil
}

func (s *Store) orgByName(name string) (model.Organization, bool) {
	return lo.Find(s.orgs, func(o model.Organization) bool {
		return strings.EqualFold(o.Name, name)
	})
}

func (s *Store) Organizations(_ context.Context) ([]model.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]model.Organization(nil), s.orgs...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) Add(_ context.Context, section model.Section) (*model.Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sectionByPath(section.OrganizationID, section.Path); ok {
		return nil, fmt.Errorf("%w: %s", model.ErrSectionExists, section.Path)
	}

	section.ID = s.id()
	section.CreatedAt = time.Now().UTC()
	s.sections = append(s.sections, section)

	return &section, nil
}

func (s *Store) SectionByPath(_ context.Context, orgID int64, path string) (*model.Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sec, ok := s.sectionByPath(orgID, path)
	if !ok {
		return nil, nil
	}
	return &sec, nil
}

func (s *Store) sectionByPath(orgID int64, path string) (model.Section, bool) {
	return lo.Find(s.sections, func(sec model.Section) bool {
		return sec.OrganizationID == orgID && sec.Path == path
	})
}

func (s *Store) Sections(_ context.Context, orgID int64) ([]model.Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.Filter(s.sections, func(sec model.Section, _ int) bool {
		return sec.OrganizationID == orgID
	}), nil
}

func (s *Store) Keywords(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := lo.Keys(s.keywords)
	sort.Strings(out)
	return out, nil
}

func (s *Store) IsKeyword(_ context.Context, keyword string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.keywords[keyword]
	return ok, nil
}

func (s *Store) AddKeyword(_ context.Context, keyword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keywords[keyword] = struct{}{}
	return nil
}
