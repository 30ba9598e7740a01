package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"opsmonitor/internal/service"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// ServiceError maps typed service errors onto HTTP statuses. Validation
// errors carry their field list in meta so clients can highlight inputs.
func ServiceError(c *gin.Context, err error) {
	var notFound *service.NotFoundError
	if errors.As(err, &notFound) {
		Error(c, http.StatusNotFound, notFound.Error(), nil)
		return
	}
	var validation *service.ValidationError
	if errors.As(err, &validation) {
		Error(c, http.StatusUnprocessableEntity, validation.Error(), map[string]any{
			"errors": validation.Errors,
		})
		return
	}
	var rng *service.RangeError
	if errors.As(err, &rng) {
		Error(c, http.StatusBadRequest, rng.Error(), nil)
		return
	}
	Error(c, http.StatusBadGateway, err.Error(), nil)
}
