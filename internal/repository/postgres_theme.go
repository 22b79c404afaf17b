package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/locvowork/pawsheets/internal/domain"
	"github.com/locvowork/pawsheets/internal/logger"
	"github.com/locvowork/pawsheets/pkg/cardstyle"
)

type themeRepository struct {
	db *sql.DB
}

func NewThemeRepository(db *sql.DB) domain.ThemeRepository {
	return &themeRepository{db: db}
}

func (r *themeRepository) Create(ctx context.Context, theme domain.Theme) error {
	query := `INSERT INTO themes (id, user_id, name, styles, created_at) VALUES ($1, $2, $3, $4::jsonb, $5)`
	_, err := r.db.ExecContext(ctx, query, theme.ID, theme.UserID, theme.Name, string(theme.Styles.JSON()), theme.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert theme: %w", err)
	}
	return nil
}

func (r *themeRepository) Get(ctx context.Context, id string) (domain.Theme, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, user_id, name, styles, created_at FROM themes WHERE id = $1`, id)
	theme, err := scanTheme(ctx, row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Theme{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Theme{}, fmt.Errorf("failed to get theme: %w", err)
	}
	return theme, nil
}

func (r *themeRepository) ListByUser(ctx context.Context, userID string) ([]domain.Theme, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, styles, created_at FROM themes WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list themes: %w", err)
	}
	defer rows.Close()

	var out []domain.Theme
	for rows.Next() {
		theme, err := scanTheme(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan theme: %w", err)
		}
		out = append(out, theme)
	}
	return out, rows.Err()
}

func scanTheme(ctx context.Context, s scanner) (domain.Theme, error) {
	var (
		theme  domain.Theme
		styles []byte
	)
	if err := s.Scan(&theme.ID, &theme.UserID, &theme.Name, &styles, &theme.CreatedAt); err != nil {
		return domain.Theme{}, err
	}
	cfg, err := cardstyle.FromJSON(styles)
	if err != nil {
		logger.WarnLog(ctx, "theme %s has malformed styles, using defaults: %v", theme.ID, err)
	}
	theme.Styles = cfg
	return theme, nil
}
