package googlecloud

import (
	"time"
)

// WorksheetEntity is the stored form of a worksheet. Columns, rows and styles
// are JSON documents kept unindexed so they may exceed the 1500 byte limit.
type WorksheetEntity struct {
	ID        string    `datastore:"-" json:"id"` // Key Name
	UserID    string    `datastore:"user_id" json:"user_id"`
	Name      string    `datastore:"name" json:"name"`
	Columns   string    `datastore:"columns,noindex" json:"columns"`
	Rows      string    `datastore:"rows,noindex" json:"rows"`
	Styles    string    `datastore:"styles,noindex" json:"styles"`
	CreatedAt time.Time `datastore:"created_at" json:"created_at"`
}

// ThemeEntity is a saved style configuration.
type ThemeEntity struct {
	ID        string    `datastore:"-" json:"id"`
	UserID    string    `datastore:"user_id" json:"user_id"`
	Name      string    `datastore:"name" json:"name"`
	Styles    string    `datastore:"styles,noindex" json:"styles"`
	CreatedAt time.Time `datastore:"created_at" json:"created_at"`
}

// FeedbackEntity is one feedback message.
type FeedbackEntity struct {
	ID        string    `datastore:"-" json:"id"`
	Name      string    `datastore:"name" json:"name"`
	Email     string    `datastore:"email" json:"email"`
	Message   string    `datastore:"message,noindex" json:"message"`
	CreatedAt time.Time `datastore:"created_at" json:"created_at"`
}
