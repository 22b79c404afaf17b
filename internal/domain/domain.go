package domain

import (
	"context"
	"errors"
	"time"

	"github.com/locvowork/pawsheets/pkg/cardstyle"
	"github.com/locvowork/pawsheets/pkg/sheet"
)

// ErrNotFound is returned by repositories when no record matches an id.
var ErrNotFound = errors.New("record not found")

// ErrForbidden is returned when a caller addresses a record owned by someone else.
var ErrForbidden = errors.New("record belongs to another user")

// PublicUser owns records created without an identified user.
const PublicUser = "public"

// Theme is a user-saved style configuration.
type Theme struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Name      string           `json:"name"`
	Styles    cardstyle.Config `json:"styles"`
	CreatedAt time.Time        `json:"created_at"`
}

// Feedback is an append-only message left by a visitor.
type Feedback struct {
	ID        string    `json:"id" csv:"id"`
	Name      string    `json:"name" csv:"name"`
	Email     string    `json:"email" csv:"email"`
	Message   string    `json:"message" csv:"message"`
	CreatedAt time.Time `json:"created_at" csv:"created_at"`
}

// WorksheetRepository stores worksheet records. ListByUser returns newest first.
type WorksheetRepository interface {
	Create(ctx context.Context, rec sheet.Record) error
	Get(ctx context.Context, id string) (sheet.Record, error)
	Update(ctx context.Context, rec sheet.Record) error
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]sheet.Record, error)
}

// ThemeRepository stores saved themes. ListByUser returns newest first.
type ThemeRepository interface {
	Create(ctx context.Context, theme Theme) error
	Get(ctx context.Context, id string) (Theme, error)
	ListByUser(ctx context.Context, userID string) ([]Theme, error)
}

// FeedbackRepository appends and lists feedback, oldest first.
type FeedbackRepository interface {
	Create(ctx context.Context, fb Feedback) error
	List(ctx context.Context) ([]Feedback, error)
}

// Repositories bundles one backend's implementations.
type Repositories struct {
	Worksheets WorksheetRepository
	Themes     ThemeRepository
	Feedback   FeedbackRepository
}
