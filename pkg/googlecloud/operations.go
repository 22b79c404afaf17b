package googlecloud

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/datastore"
)

const (
	KindWorksheet = "Worksheet"
	KindTheme     = "Theme"
	KindFeedback  = "Feedback"
)

// CreateWorksheet stores a new worksheet under its string ID.
func (c *Client) CreateWorksheet(ctx context.Context, ws *WorksheetEntity) error {
	if ws.ID == "" {
		return ErrInvalidKey
	}
	if ws.CreatedAt.IsZero() {
		ws.CreatedAt = time.Now()
	}

	key := datastore.NameKey(KindWorksheet, ws.ID, nil)
	_, err := c.ds.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var existing WorksheetEntity
		err := tx.Get(key, &existing)
		if err == nil {
			return ErrAlreadyExists
		}
		if err != datastore.ErrNoSuchEntity {
			return err
		}
		_, err = tx.Put(key, ws)
		return err
	})
	return err
}

// GetWorksheet retrieves a worksheet by ID, retrying transient failures.
func (c *Client) GetWorksheet(ctx context.Context, id string) (*WorksheetEntity, error) {
	key := datastore.NameKey(KindWorksheet, id, nil)
	var ws WorksheetEntity
	err := WithRetry(ctx, c.retry, func() error {
		err := c.ds.Get(ctx, key, &ws)
		if err == datastore.ErrNoSuchEntity {
			return Permanent(ErrNotFound)
		}
		return err
	})
	if err != nil {
		return nil, WrapDatastoreError(err)
	}
	ws.ID = id
	return &ws, nil
}

// DeleteWorksheet removes a worksheet, reporting ErrNotFound when absent.
func (c *Client) DeleteWorksheet(ctx context.Context, id string) error {
	key := datastore.NameKey(KindWorksheet, id, nil)
	_, err := c.ds.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var existing WorksheetEntity
		if err := tx.Get(key, &existing); err != nil {
			return WrapDatastoreError(err)
		}
		return tx.Delete(key)
	})
	return err
}

// ListWorksheetsByUser returns a user's worksheets, newest first.
func (c *Client) ListWorksheetsByUser(ctx context.Context, userID string) ([]WorksheetEntity, error) {
	query := datastore.NewQuery(KindWorksheet).
		Filter("user_id =", userID).
		Order("-created_at")

	var list []WorksheetEntity
	var keys []*datastore.Key
	err := WithRetry(ctx, c.retry, func() error {
		list = nil
		var err error
		keys, err = c.ds.GetAll(ctx, query, &list)
		return err
	})
	if err != nil {
		return nil, err
	}

	for i, key := range keys {
		list[i].ID = key.Name
	}
	return list, nil
}

// CreateTheme stores a saved theme.
func (c *Client) CreateTheme(ctx context.Context, theme *ThemeEntity) error {
	if theme.ID == "" {
		return ErrInvalidKey
	}
	if theme.CreatedAt.IsZero() {
		theme.CreatedAt = time.Now()
	}
	key := datastore.NameKey(KindTheme, theme.ID, nil)
	_, err := c.ds.Put(ctx, key, theme)
	return err
}

// GetTheme retrieves a theme by ID.
func (c *Client) GetTheme(ctx context.Context, id string) (*ThemeEntity, error) {
	key := datastore.NameKey(KindTheme, id, nil)
	var theme ThemeEntity
	err := WithRetry(ctx, c.retry, func() error {
		err := c.ds.Get(ctx, key, &theme)
		if err == datastore.ErrNoSuchEntity {
			return Permanent(ErrNotFound)
		}
		return err
	})
	if err != nil {
		return nil, WrapDatastoreError(err)
	}
	theme.ID = id
	return &theme, nil
}

// ListThemesByUser returns a user's themes, newest first.
func (c *Client) ListThemesByUser(ctx context.Context, userID string) ([]ThemeEntity, error) {
	query := datastore.NewQuery(KindTheme).
		Filter("user_id =", userID).
		Order("-created_at")

	var themes []ThemeEntity
	var keys []*datastore.Key
	err := WithRetry(ctx, c.retry, func() error {
		themes = nil
		var err error
		keys, err = c.ds.GetAll(ctx, query, &themes)
		return err
	})
	if err != nil {
		return nil, err
	}
	for i, key := range keys {
		themes[i].ID = key.Name
	}
	return themes, nil
}

// CreateFeedback appends one feedback message.
func (c *Client) CreateFeedback(ctx context.Context, fb *FeedbackEntity) error {
	if fb.ID == "" {
		return fmt.Errorf("feedback ID cannot be empty")
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now()
	}
	key := datastore.NameKey(KindFeedback, fb.ID, nil)
	_, err := c.ds.Put(ctx, key, fb)
	return err
}

// ListFeedback returns every feedback message, oldest first.
func (c *Client) ListFeedback(ctx context.Context) ([]FeedbackEntity, error) {
	query := datastore.NewQuery(KindFeedback).Order("created_at")

	var list []FeedbackEntity
	keys, err := c.ds.GetAll(ctx, query, &list)
	if err != nil {
		return nil, err
	}
	for i, key := range keys {
		list[i].ID = key.Name
	}
	return list, nil
}
