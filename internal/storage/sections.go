package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"github.com/0x0BSoD/noticeboard/internal/model"
)

type SectionPostgresStorage struct {
	db *sqlx.DB
}

func NewSectionStorage(db *sqlx.DB) *SectionPostgresStorage {
	return &SectionPostgresStorage{db: db}
}

// Add persists a section and returns it with its id. A second section on
// the same path of the same organization yields model.ErrSectionExists.
func (s *SectionPostgresStorage) Add(ctx context.Context, section model.Section) (*model.Section, error) {
	const query = `INSERT INTO sections (org_id, section_name, section_url, parser_type)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (org_id, section_url) DO NOTHING
		RETURNING id, created_at`

	var row struct {
		ID        int64     `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	err := s.db.GetContext(ctx, &row, query,
		section.OrganizationID,
		section.Name,
		section.Path,
		section.Variant.String(),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", model.ErrSectionExists, section.Path)
		}
		return nil, fmt.Errorf("insert section: %w", err)
	}

	section.ID = row.ID
	section.CreatedAt = row.CreatedAt
	return &section, nil
}

// SectionByPath returns nil when the organization has no section on path.
func (s *SectionPostgresStorage) SectionByPath(ctx context.Context, orgID int64, path string) (*model.Section, error) {
	const query = `SELECT id, org_id, section_name, section_url, parser_type, created_at
		FROM sections WHERE org_id = $1 AND section_url = $2`

	var sec dbSection
	if err := s.db.GetContext(ctx, &sec, query, orgID, path); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select section: %w", err)
	}

	m := toModelSection(sec, 0)
	return &m, nil
}

// Sections returns the organization's sections in registration order. A
// section whose stored parser tag is unknown comes back with a zero Variant.
func (s *SectionPostgresStorage) Sections(ctx context.Context, orgID int64) ([]model.Section, error) {
	const query = `SELECT id, org_id, section_name, section_url, parser_type, created_at
		FROM sections WHERE org_id = $1 ORDER BY id`

	var sections []dbSection
	if err := s.db.SelectContext(ctx, &sections, query, orgID); err != nil {
		return nil, fmt.Errorf("select sections: %w", err)
	}

	return lo.Map(sections, toModelSection), nil
}

type dbSection struct {
	ID             int64     `db:"id"`
	OrganizationID int64     `db:"org_id"`
	Name           string    `db:"section_name"`
	Path           string    `db:"section_url"`
	ParserType     string    `db:"parser_type"`
	CreatedAt      time.Time `db:"created_at"`
}

func toModelSection(s dbSection, _ int) model.Section {
	variant, _ := model.ParseVariant(s.ParserType)
	return model.Section{
		ID:             s.ID,
		OrganizationID: s.OrganizationID,
		Name:           s.Name,
		Path:           s.Path,
		Variant:        variant,
		CreatedAt:      s.CreatedAt,
	}
}
