package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeMemoryApp(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("UPLOAD_DIR", t.TempDir())
	t.Setenv("PRESETS_FILE", "")

	app := NewApp()
	require.NoError(t, app.Initialize(context.Background()))
	defer app.Shutdown(context.Background())

	t.Run("Load or create", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/worksheets", nil)
		req.Header.Set("X-User-ID", "u1")
		rec := httptest.NewRecorder()
		app.Echo.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	})

	t.Run("Worksheets are private to their owner", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/worksheets", nil)
		req.Header.Set("X-User-ID", "owner")
		rec := httptest.NewRecorder()
		app.Echo.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data struct {
				ID string `json:"id"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.NotEmpty(t, body.Data.ID)

		req = httptest.NewRequest(http.MethodDelete, "/worksheets/"+body.Data.ID, nil)
		req.Header.Set("X-User-ID", "someone-else")
		rec = httptest.NewRecorder()
		app.Echo.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		req = httptest.NewRequest(http.MethodGet, "/api/cards?id="+body.Data.ID, nil)
		rec = httptest.NewRecorder()
		app.Echo.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Cards endpoint requires id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/cards", nil)
		rec := httptest.NewRecorder()
		app.Echo.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Feedback is not readable over HTTP", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/feedback/export", nil)
		rec := httptest.NewRecorder()
		app.Echo.ServeHTTP(rec, req)
		assert.NotEqual(t, http.StatusOK, rec.Code)
	})

	t.Run("Routes", func(t *testing.T) {
		paths := map[string]bool{}
		for _, r := range app.Echo.Routes() {
			paths[r.Method+" "+r.Path] = true
		}
		for _, want := range []string{
			"GET /embed/:id",
			"GET /embed/:id/events",
			"PUT /worksheets/:id/cells/:row/:col",
			"POST /worksheets/:id/styles/saved-theme/:themeId",
			"POST /feedback",
		} {
			assert.True(t, paths[want], want)
		}
		assert.False(t, paths["GET /feedback/export"], "feedback export is CLI only")
	})
}
