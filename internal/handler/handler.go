package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"caffinity/internal/auth"
	"caffinity/internal/middleware"
	"caffinity/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps err to a status and writes {"error": ...}. Non-domain errors
// are logged and reported as internal errors.
func writeError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	status := model.HTTPStatus(err)

	var de *model.DomainError
	if !errors.As(err, &de) {
		logger.Error().Err(err).Int("status", status).Msg("handler error")
		writeJSON(w, status, model.ErrorResponse{Error: "internal server error", Code: model.ErrCodeInternalError})
		return
	}

	logger.Debug().Str("code", de.Code).Int("status", status).Msg("request rejected")
	writeJSON(w, status, model.ErrorResponse{Error: de.Message, Code: de.Code})
}

// decodeJSON decodes the request body into dest and validates it.
func decodeJSON(r *http.Request, dest any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "invalid request body")
	}

	if err := validate.Struct(dest); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) *model.DomainError {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return model.NewDomainError(model.ErrCodeValidation, "validation failed")
	}

	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, fmt.Sprintf("%s %s", fe.Field(), validationMessage(fe)))
	}
	return model.NewDomainError(model.ErrCodeValidation, "validation failed: "+strings.Join(parts, "; "))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "url":
		return "must be a valid URL"
	}
	return "is invalid"
}

// claims returns the caller's verified claims. Routes are mounted behind
// BearerAuth, so a missing value is a wiring bug reported as 401.
func claims(r *http.Request) (*auth.Claims, error) {
	c, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return nil, model.ErrUnauthorised
	}
	return c, nil
}
