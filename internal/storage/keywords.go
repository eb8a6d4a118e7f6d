package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type KeywordPostgresStorage struct {
	db *sqlx.DB
}

func NewKeywordStorage(db *sqlx.DB) *KeywordPostgresStorage {
	return &KeywordPostgresStorage{db: db}
}

func (s *KeywordPostgresStorage) Keywords(ctx context.Context) ([]string, error) {
	var keywords []string
	if err := s.db.SelectContext(ctx, &keywords, `SELECT keyword FROM default_keywords ORDER BY keyword`); err != nil {
		return nil, fmt.Errorf("select keywords: %w", err)
	}
	return keywords, nil
}

func (s *KeywordPostgresStorage) IsKeyword(ctx context.Context, keyword string) (bool, error) {
	var exists bool
	if err := s.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM default_keywords WHERE keyword = $1)`, keyword); err != nil {
		return false, fmt.Errorf("check keyword: %w", err)
	}
	return exists, nil
}

func (s *KeywordPostgresStorage) AddKeyword(ctx context.Context, keyword string) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO default_keywords (keyword) VALUES ($1) ON CONFLICT DO NOTHING`, keyword); err != nil {
		return fmt.Errorf("insert keyword: %w", err)
	}
	return nil
}
