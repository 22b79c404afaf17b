package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/locvowork/pawsheets/internal/domain"
)

type feedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) domain.FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(ctx context.Context, fb domain.Feedback) error {
	query := `INSERT INTO feedback (id, name, email, message, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, fb.ID, fb.Name, fb.Email, fb.Message, fb.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

func (r *feedbackRepository) List(ctx context.Context) ([]domain.Feedback, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, email, message, created_at FROM feedback ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var out []domain.Feedback
	for rows.Next() {
		var fb domain.Feedback
		if err := rows.Scan(&fb.ID, &fb.Name, &fb.Email, &fb.Message, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		out = append(out, fb)
	}
	return out, rows.Err()
}
