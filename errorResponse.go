package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/backoffice_backend/utils"
)

// statusFor maps error kinds onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, utils.ErrValidation), errors.Is(err, utils.ErrInvalidPeriod):
		return http.StatusUnprocessableEntity
	case errors.Is(err, utils.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, utils.ErrInsufficientStock), errors.Is(err, utils.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}

	var ve *utils.ValidationError
	if errors.As(err, &ve) && len(ve.Fields) > 0 {
		body["fields"] = ve.Fields
	}
	var ise *utils.InsufficientStockError
	if errors.As(err, &ise) {
		body["product_id"] = ise.ProductId
		body["available"] = ise.Available
		body["requested"] = ise.Requested
		body["shortfall"] = ise.Shortfall()
	}
	if status == http.StatusInternalServerError {
		// details go to the log, not the client
		_ = c.Error(err)
		body["error"] = "internal server error"
	}
	if cid, ok := utils.GetCorrelationIdFromContext(c.Request.Context()); ok {
		body["correlation_id"] = cid
	}
	c.AbortWithStatusJSON(status, body)
}

// respondBindError reports a request body that gin could not bind.
func respondBindError(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		respondError(c, utils.ValidationErrorFrom(ve))
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}

// paramId reads the :id route parameter.
func paramId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		respondError(c, utils.NewValidationError("id", "must be a positive integer"))
		return 0, false
	}
	return id, true
}
