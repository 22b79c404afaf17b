package googlecloud

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/datastore"
)

// Client wraps the Google Cloud Datastore client with worksheet, theme and
// feedback operations.
type Client struct {
	ds    *datastore.Client
	retry RetryConfig
}

// NewClient creates a new Google Cloud Datastore client.
// The official client picks up DATASTORE_EMULATOR_HOST on its own.
func NewClient(ctx context.Context, projectID string) (*Client, error) {
	if emulatorHost := os.Getenv("DATASTORE_EMULATOR_HOST"); emulatorHost != "" {
		fmt.Printf("Initializing Datastore Client against Emulator at %s\n", emulatorHost)
	}

	ds, err := datastore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create datastore client: %w", err)
	}

	return &Client{ds: ds, retry: DefaultRetryConfig()}, nil
}

// SetRetryConfig changes the retry policy used for reads.
func (c *Client) SetRetryConfig(cfg RetryConfig) {
	c.retry = cfg
}

// Close closes the underlying datastore client.
func (c *Client) Close() error {
	return c.ds.Close()
}
