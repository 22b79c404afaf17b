package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/pawsheets/internal/domain"
	"github.com/locvowork/pawsheets/internal/logger"
	"github.com/locvowork/pawsheets/internal/service"
	"github.com/locvowork/pawsheets/internal/service/serviceutils"
	"github.com/locvowork/pawsheets/pkg/cardstyle"
	"github.com/locvowork/pawsheets/pkg/sheet"
)

// HeaderUserID carries the caller identity issued by the identity provider.
const HeaderUserID = "X-User-ID"

func userID(c echo.Context) string {
	if id := c.Request().Header.Get(HeaderUserID); id != "" {
		return id
	}
	return domain.PublicUser
}

func intParam(c echo.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return v, nil
}

// respondError maps service errors onto the JSON envelope.
func respondError(c echo.Context, err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var refusal *sheet.RefusalError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return serviceutils.ResponseError(c, http.StatusNotFound, "Not found", err)
	case errors.Is(err, domain.ErrForbidden):
		return serviceutils.ResponseError(c, http.StatusForbidden, "Forbidden", err)
	case errors.As(err, &refusal):
		return serviceutils.ResponseError(c, http.StatusUnprocessableEntity, refusal.Reason, err)
	case errors.Is(err, sheet.ErrIndexOutOfRange),
		errors.Is(err, cardstyle.ErrUnknownPreset),
		errors.Is(err, cardstyle.ErrMalformedStyles),
		errors.Is(err, service.ErrNotImageCell),
		errors.Is(err, service.ErrThemeName),
		errors.Is(err, service.ErrInvalidFeedback):
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request", err)
	}

	logger.ErrorLog(c.Request().Context(), "request %s %s failed: %v", c.Request().Method, c.Path(), err)
	return serviceutils.ResponseError(c, http.StatusInternalServerError, "Internal server error", err)
}
