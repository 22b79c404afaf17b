package handler

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/pawsheets/internal/service"
	"github.com/locvowork/pawsheets/internal/service/serviceutils"
	"github.com/locvowork/pawsheets/pkg/cardstyle"
)

type ThemeHandler struct {
	svc service.ThemeService
}

func NewThemeHandler(svc service.ThemeService) *ThemeHandler {
	return &ThemeHandler{svc: svc}
}

type saveThemeRequest struct {
	Name   string          `json:"name"`
	Styles json.RawMessage `json:"styles"`
}

// ListHandler handles GET /themes
func (h *ThemeHandler) ListHandler(c echo.Context) error {
	themes, err := h.svc.List(c.Request().Context(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Themes listed", themes)
}

// SaveHandler handles POST /themes
func (h *ThemeHandler) SaveHandler(c echo.Context) error {
	var req saveThemeRequest
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}
	styles, err := cardstyle.FromJSON(req.Styles)
	if err != nil {
		return respondError(c, err)
	}
	theme, err := h.svc.Save(c.Request().Context(), userID(c), req.Name, styles)
	if err != nil {
		return respondError(c, err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusCreated, "Theme saved", theme)
}
