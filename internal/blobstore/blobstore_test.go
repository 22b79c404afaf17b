package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectPath(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	assert.Equal(t, "u1/1700000000123-rex.png", ObjectPath("u1", "rex.png", now))
	assert.Equal(t, "public/1700000000123-rex.png", ObjectPath("", "rex.png", now))
	assert.Equal(t, "public/1700000000123-evil.png", ObjectPath("", `..\..\evil.png`, now))
	assert.Equal(t, "public/1700000000123-upload", ObjectPath("", "", now))
}

func TestFileStorePut(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, "http://localhost:8080/images/")
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), "u1/1-rex dog.png", strings.NewReader("png-bytes")))
	data, err := os.ReadFile(filepath.Join(dir, "u1", "1-rex dog.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "http://localhost:8080/images/u1/1-rex%20dog.png", s.PublicURL("u1/1-rex dog.png"))
}

func TestFileStoreStaysInRoot(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(filepath.Join(dir, "root"), "")
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), "../../escape.txt", strings.NewReader("x")))
	_, err = os.Stat(filepath.Join(dir, "root", "escape.txt"))
	assert.NoError(t, err)
	assert.Error(t, s.Put(context.Background(), "", strings.NewReader("x")))
}

func TestFileStoreCancelled(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), "")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Put(ctx, "u/x.png", strings.NewReader("x")), context.Canceled)
}
