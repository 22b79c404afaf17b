package repository

import (
	"context"
	"fmt"

	"github.com/locvowork/pawsheets/internal/domain"
	"github.com/locvowork/pawsheets/internal/logger"
	"github.com/locvowork/pawsheets/pkg/cardstyle"
	"github.com/locvowork/pawsheets/pkg/googlecloud"
	"github.com/locvowork/pawsheets/pkg/sheet"
)

// NewDatastoreRepositories adapts a Datastore client to the domain repositories.
func NewDatastoreRepositories(client *googlecloud.Client) domain.Repositories {
	return domain.Repositories{
		Worksheets: datastoreWorksheets{client},
		Themes:     datastoreThemes{client},
		Feedback:   datastoreFeedback{client},
	}
}

func translate(err error) error {
	if googlecloud.IsNotFoundError(err) {
		return domain.ErrNotFound
	}
	return err
}

func toWorksheetEntity(rec sheet.Record) *googlecloud.WorksheetEntity {
	return &googlecloud.WorksheetEntity{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Name:      rec.Name,
		Columns:   jsonText(rec.Columns, "[]"),
		Rows:      jsonText(rec.Rows, "[]"),
		Styles:    jsonText(rec.Styles, "{}"),
		CreatedAt: rec.CreatedAt,
	}
}

func fromWorksheetEntity(e googlecloud.WorksheetEntity) sheet.Record {
	return sheet.Record{
		ID:        e.ID,
		UserID:    e.UserID,
		Name:      e.Name,
		Columns:   []byte(e.Columns),
		Rows:      []byte(e.Rows),
		Styles:    []byte(e.Styles),
		CreatedAt: e.CreatedAt,
	}
}

type datastoreWorksheets struct{ c *googlecloud.Client }

func (r datastoreWorksheets) Create(ctx context.Context, rec sheet.Record) error {
	if err := r.c.CreateWorksheet(ctx, toWorksheetEntity(rec)); err != nil {
		return fmt.Errorf("failed to create worksheet: %w", err)
	}
	return nil
}

func (r datastoreWorksheets) Get(ctx context.Context, id string) (sheet.Record, error) {
	e, err := r.c.GetWorksheet(ctx, id)
	if err != nil {
		return sheet.Record{}, translate(err)
	}
	return fromWorksheetEntity(*e), nil
}

func (r datastoreWorksheets) Update(ctx context.Context, rec sheet.Record) error {
	return translate(r.c.UpdateWorksheet(ctx, toWorksheetEntity(rec)))
}

func (r datastoreWorksheets) Delete(ctx context.Context, id string) error {
	return translate(r.c.DeleteWorksheet(ctx, id))
}

func (r datastoreWorksheets) ListByUser(ctx context.Context, userID string) ([]sheet.Record, error) {
	list, err := r.c.ListWorksheetsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list worksheets: %w", err)
	}
	out := make([]sheet.Record, 0, len(list))
	for _, e := range list {
		out = append(out, fromWorksheetEntity(e))
	}
	return out, nil
}

type datastoreThemes struct{ c *googlecloud.Client }

func (r datastoreThemes) Create(ctx context.Context, theme domain.Theme) error {
	return r.c.CreateTheme(ctx, &googlecloud.ThemeEntity{
		ID:        theme.ID,
		UserID:    theme.UserID,
		Name:      theme.Name,
		Styles:    string(theme.Styles.JSON()),
		CreatedAt: theme.CreatedAt,
	})
}

func (r datastoreThemes) Get(ctx context.Context, id string) (domain.Theme, error) {
	e, err := r.c.GetTheme(ctx, id)
	if err != nil {
		return domain.Theme{}, translate(err)
	}
	return themeFromEntity(ctx, *e), nil
}

func (r datastoreThemes) ListByUser(ctx context.Context, userID string) ([]domain.Theme, error) {
	list, err := r.c.ListThemesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list themes: %w", err)
	}
	out := make([]domain.Theme, 0, len(list))
	for _, e := range list {
		out = append(out, themeFromEntity(ctx, e))
	}
	return out, nil
}

func themeFromEntity(ctx context.Context, e googlecloud.ThemeEntity) domain.Theme {
	cfg, err := cardstyle.FromJSON([]byte(e.Styles))
	if err != nil {
		logger.WarnLog(ctx, "theme %s has malformed styles, using defaults: %v", e.ID, err)
	}
	return domain.Theme{ID: e.ID, UserID: e.UserID, Name: e.Name, Styles: cfg, CreatedAt: e.CreatedAt}
}

type datastoreFeedback struct{ c *googlecloud.Client }

func (r datastoreFeedback) Create(ctx context.Context, fb domain.Feedback) error {
	return r.c.CreateFeedback(ctx, &googlecloud.FeedbackEntity{
		ID:        fb.ID,
		Name:      fb.Name,
		Email:     fb.Email,
		Message:   fb.Message,
		CreatedAt: fb.CreatedAt,
	})
}

func (r datastoreFeedback) List(ctx context.Context) ([]domain.Feedback, error) {
	list, err := r.c.ListFeedback(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	out := make([]domain.Feedback, 0, len(list))
	for _, e := range list {
		out = append(out, domain.Feedback{ID: e.ID, Name: e.Name, Email: e.Email, Message: e.Message, CreatedAt: e.CreatedAt})
	}
	return out, nil
}
