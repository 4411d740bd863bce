// Package rest provides the HTTP handlers for the storefront API.
package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sleepoutside/storefront/internal/platform/web"
)

// validateStruct validates a decoded request DTO and writes a field-level
// error response on failure. Returns true when the DTO is valid.
func validateStruct(w http.ResponseWriter, logger *slog.Logger, validate *validator.Validate, v any) bool {
	err := validate.Struct(v)
	if err == nil {
		return true
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		// If the error is a validation error, we can extract field-specific errors.
		errorResponse := make(map[string]string)
		for _, fieldErr := range validationErrors {
			// fieldErr.Tag() returns "required", "min", etc.
			errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
		}
		logger.Warn("Validation errors occurred", "errors", errorResponse)
		web.RespondJSON(w, logger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
		return false
	}
	logger.Error("Error validating request body", "error", err)
	web.RespondError(w, logger, http.StatusBadRequest, "Invalid request body")
	return false
}
