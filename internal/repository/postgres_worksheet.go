package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/locvowork/pawsheets/internal/domain"
	"github.com/locvowork/pawsheets/pkg/sheet"
)

// NewPostgresRepositories wires the lib/pq backed repositories.
func NewPostgresRepositories(db *sql.DB) domain.Repositories {
	return domain.Repositories{
		Worksheets: NewWorksheetRepository(db),
		Themes:     NewThemeRepository(db),
		Feedback:   NewFeedbackRepository(db),
	}
}

type worksheetRepository struct {
	db *sql.DB
}

func NewWorksheetRepository(db *sql.DB) domain.WorksheetRepository {
	return &worksheetRepository{db: db}
}

const worksheetColumns = `id, user_id, name, columns, rows, styles, created_at`

func (r *worksheetRepository) Create(ctx context.Context, rec sheet.Record) error {
	query := `INSERT INTO worksheets (` + worksheetColumns + `)
		VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6::jsonb, $7)`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.Name,
		jsonText(rec.Columns, "[]"), jsonText(rec.Rows, "[]"), jsonText(rec.Styles, "{}"),
		rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert worksheet: %w", err)
	}
	return nil
}

func (r *worksheetRepository) Get(ctx context.Context, id string) (sheet.Record, error) {
	query := `SELECT ` + worksheetColumns + ` FROM worksheets WHERE id = $1`
	rec, err := scanWorksheet(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return sheet.Record{}, domain.ErrNotFound
	}
	if err != nil {
		return sheet.Record{}, fmt.Errorf("failed to get worksheet: %w", err)
	}
	return rec, nil
}

func (r *worksheetRepository) Update(ctx context.Context, rec sheet.Record) error {
	query := `UPDATE worksheets SET name = $2, columns = $3::jsonb, rows = $4::jsonb, styles = $5::jsonb
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Name,
		jsonText(rec.Columns, "[]"), jsonText(rec.Rows, "[]"), jsonText(rec.Styles, "{}"))
	if err != nil {
		return fmt.Errorf("failed to update worksheet: %w", err)
	}
	return expectOne(res)
}

func (r *worksheetRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM worksheets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete worksheet: %w", err)
	}
	return expectOne(res)
}

func (r *worksheetRepository) ListByUser(ctx context.Context, userID string) ([]sheet.Record, error) {
	query := `SELECT ` + worksheetColumns + ` FROM worksheets WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list worksheets: %w", err)
	}
	defer rows.Close()

	var out []sheet.Record
	for rows.Next() {
		rec, err := scanWorksheet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan worksheet: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanWorksheet(s scanner) (sheet.Record, error) {
	var rec sheet.Record
	err := s.Scan(&rec.ID, &rec.UserID, &rec.Name, &rec.Columns, &rec.Rows, &rec.Styles, &rec.CreatedAt)
	return rec, err
}

// jsonText passes a JSON document as text so that the ::jsonb cast applies;
// lib/pq would otherwise send []byte as bytea.
func jsonText(raw []byte, empty string) string {
	if len(raw) == 0 {
		return empty
	}
	return string(raw)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
