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

type OrganizationPostgresStorage struct {
	db *sqlx.DB
}

func NewOrganizationStorage(db *sqlx.DB) *OrganizationPostgresStorage {
	return &OrganizationPostgresStorage{db: db}
}

// GetOrCreate returns the organization named name, creating it with baseURL
// if it does not exist yet. An existing organization keeps its base URL.
func (s *OrganizationPostgresStorage) GetOrCreate(ctx context.Context, name, baseURL string) (*model.Organization, error) {
	const insertQuery = `INSERT INTO organizations (name, base_url) VALUES ($1, $2)
		ON CONFLICT ((LOWER(name))) DO NOTHING`

	if _, err := s.db.ExecContext(ctx, insertQuery, name, baseURL); err != nil {
		return nil, fmt.Errorf("insert organization: %w", err)
	}

	return s.OrganizationByName(ctx, name)
}

func (s *OrganizationPostgresStorage) OrganizationByName(ctx context.Context, name string) (*model.Organization, error) {
	const query = `SELECT id, name, base_url, created_at FROM organizations WHERE LOWER(name) = LOWER($1)`

	var org dbOrganization
	if err := s.db.GetContext(ctx, &org, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", model.ErrOrganizationNotFound, name)
		}
		return nil, fmt.Errorf("select organization: %w", err)
	}

	m := toModelOrganization(org, 0)
	return &m, nil
}

func (s *OrganizationPostgresStorage) Organizations(ctx context.Context) ([]model.Organization, error) {
	var orgs []dbOrganization
	if err := s.db.SelectContext(ctx, &orgs, `SELECT id, name, base_url, created_at FROM organizations ORDER BY name`); err != nil {
		return nil, fmt.Errorf("select organizations: %w", err)
	}

	return lo.Map(orgs, toModelOrganization), nil
}

type dbOrganization struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	BaseURL   string    `db:"base_url"`
	CreatedAt time.Time `db:"created_at"`
}

func toModelOrganization(o dbOrganization, _ int) model.Organization {
	return model.Organization{
		ID:        o.ID,
		Name:      o.Name,
		BaseURL:   o.BaseURL,
		CreatedAt: o.CreatedAt,
	}
}
