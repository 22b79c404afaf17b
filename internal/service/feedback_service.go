package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jszwec/csvutil"

	"github.com/locvowork/pawsheets/internal/domain"
	"github.com/locvowork/pawsheets/internal/logger"
)

// ErrInvalidFeedback is returned for submissions missing a message or with a bad email.
var ErrInvalidFeedback = errors.New("invalid feedback")

type FeedbackService interface {
	Submit(ctx context.Context, name, email, message string) (domain.Feedback, error)
	ExportCSV(ctx context.Context) ([]byte, error)
}

type feedbackService struct {
	repo domain.FeedbackRepository
	now  func() time.Time
}

func NewFeedbackService(repo domain.FeedbackRepository) FeedbackService {
	return &feedbackService{repo: repo, now: time.Now}
}

func (s *feedbackService) Submit(ctx context.Context, name, email, message string) (domain.Feedback, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return domain.Feedback{}, fmt.Errorf("%w: message is required", ErrInvalidFeedback)
	}
	email = strings.TrimSpace(email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return domain.Feedback{}, fmt.Errorf("%w: bad email address", ErrInvalidFeedback)
		}
	}
	fb := domain.Feedback{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Email:     email,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, fb); err != nil {
		return domain.Feedback{}, fmt.Errorf("failed to store feedback: %w", err)
	}
	logger.InfoLog(ctx, "feedback %s received", fb.ID)
	return fb, nil
}

// ExportCSV renders every feedback entry, oldest first, with a header line.
func (s *feedbackService) ExportCSV(ctx context.Context) ([]byte, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	enc := csvutil.NewEncoder(w)
	if len(all) == 0 {
		err = enc.EncodeHeader(domain.Feedback{})
	} else {
		err = enc.Encode(all)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode feedback: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to encode feedback: %w", err)
	}
	return buf.Bytes(), nil
}
