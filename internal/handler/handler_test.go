package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/pawsheets/internal/blobstore"
	"github.com/locvowork/pawsheets/internal/editor"
	"github.com/locvowork/pawsheets/internal/handler"
	"github.com/locvowork/pawsheets/internal/realtime"
	"github.com/locvowork/pawsheets/internal/repository"
	"github.com/locvowork/pawsheets/internal/service"
	"github.com/locvowork/pawsheets/pkg/cards"
	"github.com/locvowork/pawsheets/pkg/sheet"
)

type env struct {
	e         *echo.Echo
	hub       *realtime.Hub
	svc       service.WorksheetService
	worksheet *handler.WorksheetHandler
	cards     *handler.CardsHandler
	themes    *handler.ThemeHandler
	feedback  *handler.FeedbackHandler
}

func newEnv(t *testing.T) env {
	t.Helper()
	repos := repository.NewMemoryBackend().Repositories()
	hub := realtime.NewHub()
	manager := editor.NewManager(service.NewWorksheetStore(repos.Worksheets), hub, time.Hour)
	t.Cleanup(func() { manager.Shutdown(context.Background()) })

	blobs, err := blobstore.NewFileStore(t.TempDir(), "http://localhost:8080/images")
	require.NoError(t, err)

	svc := service.NewWorksheetService(service.WorksheetDeps{
		Repos:   repos,
		Manager: manager,
		Hub:     hub,
		Blobs:   blobs,
	})
	return env{
		e:         echo.New(),
		hub:       hub,
		svc:       svc,
		worksheet: handler.NewWorksheetHandler(svc, "https://paws.example"),
		cards:     handler.NewCardsHandler(svc, hub),
		themes:    handler.NewThemeHandler(service.NewThemeService(repos.Themes)),
		feedback:  handler.NewFeedbackHandler(service.NewFeedbackService(repos.Feedback)),
	}
}

type envelope struct {
	Success bool
	Message string
	Data    json.RawMessage
	Error   string
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var out envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (v env) context(method, target string, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req.Header.Set(handler.HeaderUserID, "u1")
	rec := httptest.NewRecorder()
	return v.e.NewContext(req, rec), rec
}

// seed creates u1's worksheet with a header and one saved card row.
func seed(t *testing.T, v env) string {
	t.Helper()
	ctx := context.Background()
	ws, err := v.svc.LoadOrCreate(ctx, "u1")
	require.NoError(t, err)
	_, err = v.svc.SetCell(ctx, ws.ID, 0, 1, "Name")
	require.NoError(t, err)
	_, err = v.svc.SetCell(ctx, ws.ID, 1, 1, "Fido")
	require.NoError(t, err)
	require.NoError(t, v.svc.Save(ctx, ws.ID))
	return ws.ID
}

func TestCardsHTMLEndpoint(t *testing.T) {
	v := newEnv(t)

	t.Run("Missing id", func(t *testing.T) {
		c, rec := v.context(http.MethodGet, "/api/cards", "")
		if assert.NoError(t, v.cards.CardsHTMLHandler(c)) {
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		}
	})

	t.Run("Unknown id", func(t *testing.T) {
		c, rec := v.context(http.MethodGet, "/api/cards?id=nope", "")
		if assert.NoError(t, v.cards.CardsHTMLHandler(c)) {
			assert.Equal(t, http.StatusNotFound, rec.Code)
		}
	})

	t.Run("No card rows", func(t *testing.T) {
		ws, err := v.svc.LoadOrCreate(context.Background(), "empty-user")
		require.NoError(t, err)
		c, rec := v.context(http.MethodGet, "/api/cards?id="+ws.ID, "")
		if assert.NoError(t, v.cards.CardsHTMLHandler(c)) {
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
			assert.Contains(t, rec.Body.String(), cards.Placeholder)
		}
	})

	t.Run("Saved cards", func(t *testing.T) {
		id := seed(t, v)
		c, rec := v.context(http.MethodGet, "/api/cards?id="+id, "")
		if assert.NoError(t, v.cards.CardsHTMLHandler(c)) {
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), `class="card-container"`)
			assert.Contains(t, rec.Body.String(), "Fido")
		}
	})
}

func TestViewerPage(t *testing.T) {
	v := newEnv(t)
	id := seed(t, v)

	c, rec := v.context(http.MethodGet, "/embed/"+id, "")
	c.SetParamNames("id")
	c.SetParamValues(id)
	if assert.NoError(t, v.cards.ViewerHandler(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "<!DOCTYPE html>")
		assert.Contains(t, body, "Fido")
		assert.Contains(t, body, "EventSource")
		assert.Contains(t, body, "events")
	}
}

func TestEventsStreamsUpdates(t *testing.T) {
	v := newEnv(t)
	id := seed(t, v)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/embed/"+id+"/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	c := v.e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)

	done := make(chan error, 1)
	go func() { done <- v.cards.EventsHandler(c) }()
	require.Eventually(t, func() bool { return v.hub.Subscribers(id) == 1 }, time.Second, 5*time.Millisecond)

	ws := sheet.NewDefault("Pets")
	ws.ID = id
	require.NoError(t, ws.SetCell(0, 1, "Name"))
	require.NoError(t, ws.SetCell(1, 1, "Rex"))
	v.hub.Publish(ctx, realtime.Event{WorksheetID: id, Origin: "elsewhere", Worksheet: ws})
	v.hub.Publish(ctx, realtime.Event{WorksheetID: id, Origin: "elsewhere", Deleted: true})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("event stream did not end")
	}
	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, body, "event: update\ndata: ")
	assert.Contains(t, body, "Rex")
	assert.Contains(t, body, "event: deleted")
	assert.Equal(t, 0, v.hub.Subscribers(id))
}

func TestWorksheetEndpoints(t *testing.T) {
	v := newEnv(t)

	c, rec := v.context(http.MethodPost, "/worksheets", "")
	require.NoError(t, v.worksheet.LoadOrCreateHandler(c))
	require.Equal(t, http.StatusOK, rec.Code)
	var view service.View
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &view))
	assert.Equal(t, "u1", view.UserID)
	id := view.ID

	t.Run("Set cell", func(t *testing.T) {
		c, rec := v.context(http.MethodPut, "/", `{"value":"Biscuit"}`)
		c.SetParamNames("id", "row", "col")
		c.SetParamValues(id, "1", "2")
		if assert.NoError(t, v.worksheet.SetCellHandler(c)) {
			assert.Equal(t, http.StatusOK, rec.Code)
			var got service.View
			require.NoError(t, json.Unmarshal(decode(t, rec).Data, &got))
			assert.Equal(t, "Biscuit", got.Rows[1][2].Value)
			assert.True(t, got.Pending)
		}
	})

	t.Run("Refused column delete", func(t *testing.T) {
		c, rec := v.context(http.MethodDelete, "/", "")
		c.SetParamNames("id", "index")
		c.SetParamValues(id, "0")
		if assert.NoError(t, v.worksheet.DeleteColumnHandler(c)) {
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			resp := decode(t, rec)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Message)
		}
	})

	t.Run("Bad index", func(t *testing.T) {
		c, _ := v.context(http.MethodDelete, "/", "")
		c.SetParamNames("id", "index")
		c.SetParamValues(id, "x")
		err := v.worksheet.DeleteRowHandler(c)
		httpErr, ok := err.(*echo.HTTPError)
		if assert.True(t, ok) {
			assert.Equal(t, http.StatusBadRequest, httpErr.Code)
		}
	})

	t.Run("Out of range row", func(t *testing.T) {
		c, rec := v.context(http.MethodDelete, "/", "")
		c.SetParamNames("id", "index")
		c.SetParamValues(id, "40")
		if assert.NoError(t, v.worksheet.DeleteRowHandler(c)) {
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		}
	})

	t.Run("Unknown size preset", func(t *testing.T) {
		c, rec := v.context(http.MethodPost, "/", "")
		c.SetParamNames("id", "preset")
		c.SetParamValues(id, "gigantic")
		if assert.NoError(t, v.worksheet.SizePresetHandler(c)) {
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		}
	})

	t.Run("Styles", func(t *testing.T) {
		c, rec := v.context(http.MethodPut, "/", `{"layout":"left-image","cardWidth":280}`)
		c.SetParamNames("id")
		c.SetParamValues(id)
		if assert.NoError(t, v.worksheet.UpdateStylesHandler(c)) {
			assert.Equal(t, http.StatusOK, rec.Code)
			var got service.View
			require.NoError(t, json.Unmarshal(decode(t, rec).Data, &got))
			assert.Equal(t, 280, got.Styles.CardWidth)
		}
	})

	t.Run("Embed", func(t *testing.T) {
		c, rec := v.context(http.MethodGet, "/", "")
		c.SetParamNames("id")
		c.SetParamValues(id)
		if assert.NoError(t, v.worksheet.EmbedHandler(c)) {
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), "https://paws.example/embed/"+id)
		}
	})

	t.Run("Save", func(t *testing.T) {
		c, rec := v.context(http.MethodPost, "/", "")
		c.SetParamNames("id")
		c.SetParamValues(id)
		if assert.NoError(t, v.worksheet.SaveHandler(c)) {
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("Export xlsx", func(t *testing.T) {
		c, rec := v.context(http.MethodGet, "/", "")
		c.SetParamNames("id")
		c.SetParamValues(id)
		if assert.NoError(t, v.worksheet.ExportXLSXHandler(c)) {
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get(echo.HeaderContentType))
			assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "My Worksheet.xlsx")
			assert.NotZero(t, rec.Body.Len())
		}
	})

	t.Run("Unknown worksheet", func(t *testing.T) {
		c, rec := v.context(http.MethodGet, "/", "")
		c.SetParamNames("id")
		c.SetParamValues("missing")
		if assert.NoError(t, v.worksheet.GetHandler(c)) {
			assert.Equal(t, http.StatusNotFound, rec.Code)
		}
	})
}

func TestUploadImageEndpoint(t *testing.T) {
	v := newEnv(t)
	ws, err := v.svc.LoadOrCreate(context.Background(), "u1")
	require.NoError(t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "rex.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(handler.HeaderUserID, "u1")
	rec := httptest.NewRecorder()
	c := v.e.NewContext(req, rec)
	c.SetParamNames("id", "row", "col")
	c.SetParamValues(ws.ID, "1", "0")

	if assert.NoError(t, v.worksheet.UploadImageHandler(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
		var got service.View
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &got))
		assert.True(t, strings.HasPrefix(got.Rows[1][0].Value, "http://localhost:8080/images/u1/"))
	}
}

func TestThemeEndpoints(t *testing.T) {
	v := newEnv(t)

	c, rec := v.context(http.MethodPost, "/themes", `{"name":"Ocean","styles":{"backgroundColor":"#003366"}}`)
	if assert.NoError(t, v.themes.SaveHandler(c)) {
		assert.Equal(t, http.StatusCreated, rec.Code)
	}

	c, rec = v.context(http.MethodPost, "/themes", `{"name":"","styles":{}}`)
	if assert.NoError(t, v.themes.SaveHandler(c)) {
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}

	c, rec = v.context(http.MethodGet, "/themes", "")
	if assert.NoError(t, v.themes.ListHandler(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
		var themes []map[string]interface{}
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &themes))
		require.Len(t, themes, 1)
		assert.Equal(t, "Ocean", themes[0]["name"])
	}
}

func TestRequireOwner(t *testing.T) {
	v := newEnv(t)
	id := seed(t, v)
	v.e.PUT("/worksheets/:id/cells/:row/:col", v.worksheet.SetCellHandler, v.worksheet.RequireOwner)
	v.e.GET("/worksheets/:id/xlsx", v.worksheet.ExportXLSXHandler, v.worksheet.RequireOwner)

	serve := func(method, target, user, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		if user != "" {
			req.Header.Set(handler.HeaderUserID, user)
		}
		rec := httptest.NewRecorder()
		v.e.ServeHTTP(rec, req)
		return rec
	}

	t.Run("Other user is rejected", func(t *testing.T) {
		rec := serve(http.MethodPut, "/worksheets/"+id+"/cells/1/1", "mallory", `{"value":"Hacked"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		rec = serve(http.MethodGet, "/worksheets/"+id+"/xlsx", "", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)

		view, err := v.svc.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "Fido", view.Rows[1][1].Value)
	})

	t.Run("Owner passes", func(t *testing.T) {
		rec := serve(http.MethodPut, "/worksheets/"+id+"/cells/1/1", "u1", `{"value":"Rex"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Unknown worksheet", func(t *testing.T) {
		rec := serve(http.MethodGet, "/worksheets/nope/xlsx", "u1", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestFeedbackEndpoints(t *testing.T) {
	v := newEnv(t)

	c, rec := v.context(http.MethodPost, "/feedback", `{"name":"Ann","email":"ann@example.com","message":"More themes please"}`)
	if assert.NoError(t, v.feedback.SubmitHandler(c)) {
		assert.Equal(t, http.StatusCreated, rec.Code)
	}

	c, rec = v.context(http.MethodPost, "/feedback", `{"name":"Ann","message":""}`)
	if assert.NoError(t, v.feedback.SubmitHandler(c)) {
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}
