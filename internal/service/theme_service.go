package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/locvowork/pawsheets/internal/domain"
	"github.com/locvowork/pawsheets/internal/logger"
	"github.com/locvowork/pawsheets/pkg/cardstyle"
)

// ErrThemeName is returned when a theme is saved without a name.
var ErrThemeName = errors.New("theme name is required")

type ThemeService interface {
	Save(ctx context.Context, userID, name string, styles cardstyle.Config) (domain.Theme, error)
	List(ctx context.Context, userID string) ([]domain.Theme, error)
}

type themeService struct {
	repo domain.ThemeRepository
	now  func() time.Time
}

func NewThemeService(repo domain.ThemeRepository) ThemeService {
	return &themeService{repo: repo, now: time.Now}
}

func (s *themeService) Save(ctx context.Context, userID, name string, styles cardstyle.Config) (domain.Theme, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Theme{}, ErrThemeName
	}
	if userID == "" {
		userID = domain.PublicUser
	}
	theme := domain.Theme{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Styles:    cardstyle.Sanitize(styles),
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, theme); err != nil {
		return domain.Theme{}, fmt.Errorf("failed to save theme: %w", err)
	}
	logger.InfoLog(ctx, "saved theme %q for user %s", name, userID)
	return theme, nil
}

func (s *themeService) List(ctx context.Context, userID string) ([]domain.Theme, error) {
	if userID == "" {
		userID = domain.PublicUser
	}
	return s.repo.ListByUser(ctx, userID)
}
