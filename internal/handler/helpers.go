package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	apperrors "github.com/helpdock/helpdock/internal/pkg/errors"
	"github.com/helpdock/helpdock/internal/pkg/response"
)

// handleError maps service errors onto HTTP statuses. User mistakes keep the
// sentinel message; everything else is reported as unavailable without
// leaking collaborator details.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case apperrors.IsUserError(err):
		response.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, apperrors.ErrNotFound):
		response.Error(c, http.StatusNotFound, "not found")
	case errors.Is(err, apperrors.ErrScrape):
		response.Error(c, http.StatusBadGateway, "failed to fetch the page")
	default:
		response.Error(c, http.StatusInternalServerError, "internal error")
	}
}
