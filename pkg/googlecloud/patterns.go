package googlecloud

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/datastore"
)

// Common Datastore errors for easier handling in services.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidKey    = errors.New("invalid key")
)

// WrapDatastoreError converts Datastore-specific errors to domain errors.
func WrapDatastoreError(err error) error {
	if err == nil {
		return nil
	}
	if err == datastore.ErrNoSuchEntity {
		return ErrNotFound
	}
	var p permanentError
	if errors.As(err, &p) {
		return p.err
	}
	return err
}

// IsNotFoundError checks if an error is a not-found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, datastore.ErrNoSuchEntity)
}

// --- Retry Logic ---

// RetryConfig holds configuration for retry operations.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
}

// DefaultRetryConfig returns sensible defaults for retries.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 100 * time.Millisecond,
		MaxWait:     2 * time.Second,
	}
}

type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying; WithRetry returns it at once.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// WithRetry executes a function with exponential backoff retry.
// Only reads go through it; writes surface their first failure.
func WithRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	var lastErr error
	wait := cfg.InitialWait

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		var p permanentError
		if errors.As(err, &p) {
			return p.err
		}
		lastErr = err

		// Don't wait after the last attempt
		if attempt < cfg.MaxAttempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			wait *= 2
			if wait > cfg.MaxWait {
				wait = cfg.MaxWait
			}
		}
	}
	return lastErr
}

// --- Update preserving ownership ---

// UpdateWorksheet replaces name, columns, rows and styles of an existing
// worksheet inside a transaction. Owner and creation time are kept.
func (c *Client) UpdateWorksheet(ctx context.Context, ws *WorksheetEntity) error {
	if ws.ID == "" {
		return ErrInvalidKey
	}

	key := datastore.NameKey(KindWorksheet, ws.ID, nil)
	_, err := c.ds.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var existing WorksheetEntity
		if err := tx.Get(key, &existing); err != nil {
			return WrapDatastoreError(err)
		}
		ws.UserID = existing.UserID
		ws.CreatedAt = existing.CreatedAt

		_, err := tx.Put(key, ws)
		return err
	})
	return err
}
