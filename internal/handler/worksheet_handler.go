package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/pawsheets/internal/service"
	"github.com/locvowork/pawsheets/internal/service/serviceutils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type WorksheetHandler struct {
	svc    service.WorksheetService
	origin string
}

// NewWorksheetHandler builds the editor API. origin is the public address
// embedded into iframe snippets.
func NewWorksheetHandler(svc service.WorksheetService, origin string) *WorksheetHandler {
	return &WorksheetHandler{svc: svc, origin: origin}
}

// RequireOwner rejects requests for a worksheet the caller does not own.
// It guards every editor route addressed by :id.
func (h *WorksheetHandler) RequireOwner(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := h.svc.Authorize(c.Request().Context(), c.Param("id"), userID(c)); err != nil {
			return respondError(c, err)
		}
		return next(c)
	}
}

type renameRequest struct {
	Name string `json:"name"`
}

type cellRequest struct {
	Value string `json:"value"`
}

// LoadOrCreateHandler handles POST /worksheets
func (h *WorksheetHandler) LoadOrCreateHandler(c echo.Context) error {
	view, err := h.svc.LoadOrCreate(c.Request().Context(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Worksheet loaded", view)
}

// ListHandler handles GET /worksheets
func (h *WorksheetHandler) ListHandler(c echo.Context) error {
	list, err := h.svc.List(c.Request().Context(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Worksheets listed", list)
}

// GetHandler handles GET /worksheets/:id
func (h *WorksheetHandler) GetHandler(c echo.Context) error {
	view, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Worksheet loaded", view)
}

func (h *WorksheetHandler) RenameHandler(c echo.Context) error {
	var req renameRequest
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}
	view, err := h.svc.Rename(c.Request().Context(), c.Param("id"), req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Worksheet renamed", view)
}

func (h *WorksheetHandler) DeleteHandler(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Worksheet deleted", nil)
}

// SaveHandler handles POST /worksheets/:id/save
func (h *WorksheetHandler) SaveHandler(c echo.Context) error {
	if err := h.svc.Save(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Worksheet saved", nil)
}

// CloseSessionHandler handles DELETE /worksheets/:id/session
func (h *WorksheetHandler) CloseSessionHandler(c echo.Context) error {
	discarded := h.svc.CloseSession(c.Request().Context(), c.Param("id"))
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Session closed", map[string]bool{"discarded": discarded})
}

func (h *WorksheetHandler) AddRowHandler(c echo.Context) error {
	view, err := h.svc.AddRow(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Row added", view)
}

func (h *WorksheetHandler) DeleteRowHandler(c echo.Context) error {
	index, err := intParam(c, "index")
	if err != nil {
		return err
	}
	view, err := h.svc.DeleteRow(c.Request().Context(), c.Param("id"), index)
	if err != nil {
		return respondError(c, err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Row deleted", view)
}

func (h *WorksheetHandler) AddColumnHandler(c echo.Context) error {
	view, err := h.svc.AddColumn(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Column added", view)
}

func (h *WorksheetHandler) DeleteColumnHandler(c echo.Context) error {
	index, err := intParam(c, "index")
	if err != nil {
		return err
	}
	view, err := h.svc.DeleteColumn(c.Request().Context(), c.Param("id"), index)
	if err != nil {
		return respondError(c, err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Column deleted", view)
}

// SetCellHandler handles PUT /worksheets/:id/cells/:row/:col
func (h *WorksheetHandler) SetCellHandler(c echo.Context) error {
	row, err := intParam(c, "row")
	if err != nil {
		return err
	}
	col, err := intParam(c, "col")
	if err != nil {
		return err
	}
	var req cellRequest
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}
	view, err := h.svc.SetCell(c.Request().Context(), c.Param("id"), row, col, req.Value)
	if err != nil {
		return respondError(c, err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Cell updated", view)
}

// UploadImageHandler handles POST /worksheets/:id/cells/:row/:col/image
// with a multipart "file" field.
func (h *WorksheetHandler) UploadImageHandler(c echo.Context) error {
	row, err := intParam(c, "row")
	if err != nil {
		return err
	}
	col, err := intParam(c, "col")
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Missing image file", err)
	}
	src, err := fh.Open()
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Unreadable image file", err)
	}
	defer src.Close()

	view, err := h.svc.UploadImage(c.Request().Context(), c.Param("id"), userID(c), row, col, fh.Filename, src)
	if err != nil {
		return respondError(c, err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Image uploaded", view)
}

// UpdateStylesHandler handles PUT /worksheets/:id/styles. The body is the
// complete style document; omitted or invalid keys fall back to defaults.
func (h *WorksheetHandler) UpdateStylesHandler(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}
	view, err := h.svc.UpdateStyles(c.Request().Context(), c.Param("id"), body)
	if err != nil {
		return respondError(c, err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Styles updated", view)
}

func (h *WorksheetHandler) SizePresetHandler(c echo.Context) error {
	view, err := h.svc.ApplySizePreset(c.Request().Context(), c.Param("id"), c.Param("preset"))
	if err != nil {
		return respondError(c, err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Size preset applied", view)
}

func (h *WorksheetHandler) ThemePresetHandler(c echo.Context) error {
	view, err := h.svc.ApplyThemePreset(c.Request().Context(), c.Param("id"), c.Param("name"))
	if err != nil {
		return respondError(c, err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Theme applied", view)
}

func (h *WorksheetHandler) SavedThemeHandler(c echo.Context) error {
	view, err := h.svc.ApplySavedTheme(c.Request().Context(), c.Param("id"), c.Param("themeId"))
	if err != nil {
		return respondError(c, err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Theme applied", view)
}

// PreviewHandler handles GET /worksheets/:id/preview
func (h *WorksheetHandler) PreviewHandler(c echo.Context) error {
	preview, err := h.svc.Preview(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Preview rendered", preview)
}

// EmbedHandler handles GET /worksheets/:id/embed
func (h *WorksheetHandler) EmbedHandler(c echo.Context) error {
	origin := h.origin
	if origin == "" {
		origin = c.Scheme() + "://" + c.Request().Host
	}
	snippets, err := h.svc.Embed(c.Request().Context(), c.Param("id"), origin)
	if err != nil {
		return respondError(c, err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Embed code generated", snippets)
}

// ExportXLSXHandler handles GET /worksheets/:id/xlsx
func (h *WorksheetHandler) ExportXLSXHandler(c echo.Context) error {
	var buf bytes.Buffer
	name, err := h.svc.ExportXLSX(c.Request().Context(), c.Param("id"), &buf)
	if err != nil {
		return respondError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, name+".xlsx"))
	c.Response().Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ImportXLSXHandler handles POST /worksheets/import with a multipart "file" field.
func (h *WorksheetHandler) ImportXLSXHandler(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Missing workbook file", err)
	}
	src, err := fh.Open()
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Unreadable workbook file", err)
	}
	defer src.Close()

	view, err := h.svc.ImportXLSX(c.Request().Context(), userID(c), src)
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Failed to import workbook", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusCreated, fmt.Sprintf("Imported %q", view.Name), view)
}
