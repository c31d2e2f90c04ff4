package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/middleware"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/response"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/usecase"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/validation"
	"github.com/vasapolrittideah/task-wand-api/shared/auth"
)

const maxBodyBytes = 1 << 20

// Handler serves the user and todo endpoints.
type Handler struct {
	authUsecase usecase.AuthUsecase
	todoUsecase usecase.TodoUsecase
	logger      *zerolog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(
	authUsecase usecase.AuthUsecase,
	todoUsecase usecase.TodoUsecase,
	logger *zerolog.Logger,
) *Handler {
	return &Handler{
		authUsecase: authUsecase,
		todoUsecase: todoUsecase,
		logger:      logger,
	}
}

// decodeJSON reads a single JSON object from the request body. Type mismatches are
// reported against the offending field.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	err := dec.Decode(v)
	if err == nil {
		if dec.More() {
			return validation.NewError("body", "request body must contain a single JSON object")
		}
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return validation.NewError(typeErr.Field, fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type))
	case errors.As(err, &maxErr):
		return validation.NewError("body", "request body is too large")
	case errors.Is(err, io.EOF):
		return validation.NewError("body", "request body is required")
	default:
		return validation.NewError("body", "request body must be valid JSON")
	}
}

// identityFrom returns the identity attached by the Auth Gate. Routes are only mounted
// behind it, so a missing identity is a wiring bug.
func (h *Handler) identityFrom(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.logger.Error().Str("path", r.URL.Path).Msg("request reached a protected handler without identity")
		response.Fail(w, http.StatusInternalServerError, "Internal server error")
	}
	return identity, ok
}

// writeValidationError writes err as a 400 when it carries field errors and reports
// whether it did.
func writeValidationError(w http.ResponseWriter, err error, message string) bool {
	var vErr *validation.Error
	if !errors.As(err, &vErr) {
		return false
	}

	response.Invalid(w, message, vErr.Fields)
	return true
}

func (h *Handler) serverError(w http.ResponseWriter, err error, msg string) {
	h.logger.Error().Err(err).Msg(msg)
	response.JSON(w, http.StatusInternalServerError, response.Envelope{
		Success: false,
		Message: "Server Error",
		Error:   "something went wrong",
	})
}
