package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x0BSoD/noticeboard/internal/model"
)

func notice(at time.Time) model.Notice {
	return model.Notice{
		Organization: "Acme",
		Section:      "News",
		Title:        "Exam Notice",
		URL:          "http://acme.org/1",
		ScrapedAt:    at,
	}
}

func TestStore_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.Upsert(ctx, notice(t0)))
	require.NoError(t, s.Upsert(ctx, notice(t0.Add(time.Minute))))
	// an older replay never moves the timestamp back
	require.NoError(t, s.Upsert(ctx, notice(t0)))

	got, err := s.Fresh(ctx, "Acme", time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, t0.Add(time.Minute), got[0].ScrapedAt)
}

func TestStore_ConcurrentUpsertsConverge(t *testing.T) {
	ctx := context.Background()
	s := New()
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Upsert(ctx, notice(t0.Add(time.Duration(i)*time.Second))))
		}(i)
	}
	wg.Wait()

	got, err := s.Fresh(ctx, "Acme", time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, t0.Add(31*time.Second), got[0].ScrapedAt)
}

func TestStore_FreshWindow(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	old := notice(now.Add(-31 * time.Minute))
	old.Title = "Old exam"
	recent := notice(now.Add(-10 * time.Minute))

	require.NoError(t, s.Upsert(ctx, old))
	require.NoError(t, s.Upsert(ctx, recent))

	got, err := s.Fresh(ctx, "Acme", now.Add(-30*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Exam Notice", got[0].Title)

	other, err := s.Fresh(ctx, "Other", time.Time{})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestStore_SearchNewestFirstAndCapped(t *testing.T) {
	ctx := context.Background()
	s := New()
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, title := range []string{"Budget 2024", "Annual budget", "Holidays"} {
		n := notice(t0.Add(time.Duration(i) * time.Minute))
		n.Title = title
		require.NoError(t, s.Upsert(ctx, n))
	}
	tender := notice(t0)
	tender.Organization, tender.Section, tender.Title = "Other", "Tenders", "Road works"
	require.NoError(t, s.Upsert(ctx, tender))

	got, err := s.Search(ctx, []string{"budget"}, "", 100)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Annual budget", got[0].Title)

	got, err = s.Search(ctx, []string{"budget", "tender"}, "", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.Search(ctx, []string{"tender"}, "Acme", 100)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_Prune(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()

	old := notice(now.Add(-48 * time.Hour))
	old.Title = "stale"
	require.NoError(t, s.Upsert(ctx, old))
	require.NoError(t, s.Upsert(ctx, notice(now)))

	n, err := s.Prune(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStore_Catalog(t *testing.T) {
	ctx := context.Background()
	s := New()

	org, err := s.GetOrCreate(ctx, "Acme", "http://acme.org")
	require.NoError(t, err)

	same, err := s.GetOrCreate(ctx, "ACME", "http://elsewhere.org")
	require.NoError(t, err)
	assert.Equal(t, org.ID, same.ID)
	assert.Equal(t, "http://acme.org", same.BaseURL)

	_, err = s.OrganizationByName(ctx, "nope")
	assert.ErrorIs(t, err, model.ErrOrganizationNotFound)

	_, err = s.Add(ctx, model.Section{OrganizationID: org.ID, Name: "News", Path: "/news", Variant: model.List})
	require.NoError(t, err)
	_, err = s.Add(ctx, model.Section{OrganizationID: org.ID, Name: "News again", Path: "/news", Variant: model.List})
	assert.ErrorIs(t, err, model.ErrSectionExists)

	sections, err := s.Sections(ctx, org.ID)
	require.NoError(t, err)
	assert.Len(t, sections, 1)

	require.NoError(t, s.AddKeyword(ctx, "exam"))
	require.NoError(t, s.AddKeyword(ctx, "exam"))
	keywords, err := s.Keywords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"exam"}, keywords)
}
