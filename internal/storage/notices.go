package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"github.com/0x0BSoD/noticeboard/internal/model"
)

type NoticePostgresStorage struct {
	db *sqlx.DB
}

func NewNoticeStorage(db *sqlx.DB) *NoticePostgresStorage {
	return &NoticePostgresStorage{db: db}
}

// Upsert stores the notice or, when its natural key already exists, moves
// scraped_at forward. Replaying the same call is harmless, and concurrent
// writers converge on the latest timestamp.
func (s *NoticePostgresStorage) Upsert(ctx context.Context, notice model.Notice) error {
	const query = `INSERT INTO notices (org_name, section_name, title, url, scraped_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (org_name, section_name, title, url)
		DO UPDATE SET scraped_at = GREATEST(notices.scraped_at, EXCLUDED.scraped_at)`

	if _, err := s.db.ExecContext(
		ctx,
		query,
		notice.Organization,
		notice.Section,
		notice.Title,
		notice.URL,
		notice.ScrapedAt.UTC(),
	); err != nil {
		return fmt.Errorf("upsert notice: %w", err)
	}

	return nil
}

// Fresh returns the organization's notices seen at or after since, newest first.
func (s *NoticePostgresStorage) Fresh(ctx context.Context, org string, since time.Time) ([]model.Notice, error) {
	const query = `SELECT id, org_name, section_name, title, url, scraped_at
		FROM notices
		WHERE org_name = $1 AND scraped_at >= $2
		ORDER BY scraped_at DESC, id DESC`

	var notices []dbNotice
	if err := s.db.SelectContext(ctx, &notices, query, org, since.UTC()); err != nil {
		return nil, fmt.Errorf("select fresh notices: %w", err)
	}

	return lo.Map(notices, toModelNotice), nil
}

// Search returns notices whose title or section mentions any keyword,
// optionally within one organization, newest first.
func (s *NoticePostgresStorage) Search(ctx context.Context, keywords []string, org string, limit int) ([]model.Notice, error) {
	if len(keywords) == 0 {
		return []model.Notice{}, nil
	}

	var (
		conds = make([]string, 0, len(keywords))
		args  = make([]any, 0, len(keywords)+2)
	)
	for _, k := range keywords {
		args = append(args, "%"+escapeLike(strings.ToLower(k))+"%")
		conds = append(conds, fmt.Sprintf("(LOWER(title) LIKE $%[1]d OR LOWER(section_name) LIKE $%[1]d)", len(args)))
	}

	where := "(" + strings.Join(conds, " OR ") + ")"
	if org != "" {
		args = append(args, org)
		where += fmt.Sprintf(" AND org_name = $%d", len(args))
	}
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT id, org_name, section_name, title, url, scraped_at
		FROM notices
		WHERE %s
		ORDER BY scraped_at DESC, id DESC
		LIMIT $%d`, where, len(args))

	var notices []dbNotice
	if err := s.db.SelectContext(ctx, &notices, query, args...); err != nil {
		return nil, fmt.Errorf("search notices: %w", err)
	}

	return lo.Map(notices, toModelNotice), nil
}

// Prune deletes notices not seen since before.
func (s *NoticePostgresStorage) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notices WHERE scraped_at < $1`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune notices: %w", err)
	}

	return res.RowsAffected()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type dbNotice struct {
	ID           int64     `db:"id"`
	Organization string    `db:"org_name"`
	Section      string    `db:"section_name"`
	Title        string    `db:"title"`
	URL          string    `db:"url"`
	ScrapedAt    time.Time `db:"scraped_at"`
}

func toModelNotice(n dbNotice, _ int) model.Notice {
	return model.Notice{
		ID:           n.ID,
		Organization: n.Organization,
		Section:      n.Section,
		Title:        n.Title,
		URL:          n.URL,
		ScrapedAt:    n.ScrapedAt,
	}
}
