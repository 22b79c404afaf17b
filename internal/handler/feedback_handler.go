package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/pawsheets/internal/service"
	"github.com/locvowork/pawsheets/internal/service/serviceutils"
)

type FeedbackHandler struct {
	svc service.FeedbackService
}

func NewFeedbackHandler(svc service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{svc: svc}
}

type feedbackRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// SubmitHandler handles POST /feedback
func (h *FeedbackHandler) SubmitHandler(c echo.Context) error {
	var req feedbackRequest
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}
	fb, err := h.svc.Submit(c.Request().Context(), req.Name, req.Email, req.Message)
	if err != nil {
		return respondError(c, err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusCreated, "Thanks for your feedback", fb)
}
