package handler

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/pawsheets/internal/domain"
	"github.com/locvowork/pawsheets/internal/logger"
	"github.com/locvowork/pawsheets/internal/realtime"
	"github.com/locvowork/pawsheets/internal/service"
	"github.com/locvowork/pawsheets/pkg/cards"
)

//go:embed templates/viewer.html
var templatesFS embed.FS

var viewerTemplate = template.Must(template.ParseFS(templatesFS, "templates/viewer.html"))

// CardsHandler serves rendered cards to foreign pages: the HTML fragment
// endpoint, the hosted viewer and its live update feed.
type CardsHandler struct {
	svc service.WorksheetService
	hub *realtime.Hub
}

func NewCardsHandler(svc service.WorksheetService, hub *realtime.Hub) *CardsHandler {
	return &CardsHandler{svc: svc, hub: hub}
}

// CardsHTMLHandler handles GET /api/cards?id=
func (h *CardsHandler) CardsHTMLHandler(c echo.Context) error {
	id := c.QueryParam("id")
	if id == "" {
		return c.String(http.StatusBadRequest, "Worksheet ID is required")
	}

	preview, err := h.svc.RenderStored(c.Request().Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return c.String(http.StatusNotFound, "Worksheet not found")
	}
	if err != nil {
		logger.ErrorLog(c.Request().Context(), "failed to render worksheet %s: %v", id, err)
		return c.String(http.StatusInternalServerError, "Server error")
	}
	return c.HTML(http.StatusOK, preview.Markup)
}

type viewerPage struct {
	Title       string
	Markup      template.HTML
	EventsURL   string
	Placeholder string
}

// ViewerHandler handles GET /embed/:id, the page loaded by iframe snippets.
func (h *CardsHandler) ViewerHandler(c echo.Context) error {
	id := c.Param("id")
	preview, err := h.svc.RenderStored(c.Request().Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return c.String(http.StatusNotFound, "Worksheet not found")
	}
	if err != nil {
		logger.ErrorLog(c.Request().Context(), "failed to render viewer for %s: %v", id, err)
		return c.String(http.StatusInternalServerError, "Server error")
	}

	// The markup renderer escapes every text and attribute value.
	var buf bytes.Buffer
	err = viewerTemplate.Execute(&buf, viewerPage{
		Title:       "Cards",
		Markup:      template.HTML(preview.Markup),
		EventsURL:   c.Request().URL.Path + "/events",
		Placeholder: cards.Placeholder,
	})
	if err != nil {
		logger.ErrorLog(c.Request().Context(), "failed to execute viewer template: %v", err)
		return c.String(http.StatusInternalServerError, "Server error")
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// EventsHandler handles GET /embed/:id/events. Every saved change to the
// worksheet is pushed as an "update" event carrying the fresh markup.
func (h *CardsHandler) EventsHandler(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	events, cancel := h.hub.Subscribe(id)
	defer cancel()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Deleted {
				fmt.Fprint(res, "event: deleted\ndata: {}\n\n")
				res.Flush()
				return nil
			}
			preview := service.RenderWorksheet(ev.Worksheet)
			data, err := json.Marshal(map[string]interface{}{"markup": preview.Markup, "cards": preview.Cards})
			if err != nil {
				logger.ErrorLog(ctx, "failed to encode update for %s: %v", id, err)
				continue
			}
			fmt.Fprintf(res, "event: update\ndata: %s\n\n", data)
			res.Flush()
		}
	}
}
