package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/flicky/agri-backoffice/internal/model"
	"github.com/flicky/agri-backoffice/internal/service"
)

var notFoundErrors = []error{
	service.ErrOrderNotFound,
	service.ErrVendorNotFound,
	service.ErrProductNotFound,
	service.ErrSubsidyNotFound,
	service.ErrTrainingNotFound,
	service.ErrUserNotFound,
	service.ErrMissingTraceability,
}

// respondError maps a service error onto a status and a JSON error body.
// Unrecognised errors are attached to the context for the request logger.
func respondError(c *gin.Context, err error) {
	var authErr *service.AuthError
	if errors.As(err, &authErr) {
		status := http.StatusUnauthorized
		if authErr.Code == service.CodeTooManyRequests {
			status = http.StatusTooManyRequests
		}
		c.JSON(status, gin.H{"error": authErr.Message(), "code": authErr.Code})
		return
	}

	var validation *service.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message, "field": validation.Field})
		return
	}

	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrReasonRequired),
		errors.Is(err, service.ErrConfirmationRequired),
		errors.Is(err, model.ErrUnknownStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, service.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	case errors.Is(err, service.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": service.AccessDeniedMessage})
		return
	case errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, service.ErrVendorDecided):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			c.JSON(http.StatusNotFound, gin.H{"error": target.Error()})
			return
		}
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// confirmed reports whether the caller acknowledged a destructive action
// with ?confirm=true.
func confirmed(c *gin.Context) bool {
	ok, _ := strconv.ParseBool(c.Query("confirm"))
	return ok
}
