package handler

import (
	"errors"
	"net/http"

	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/payload"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/response"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/usecase"
)

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req payload.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeValidationError(w, err, "Incorrect inputs")
		return
	}

	result, err := h.authUsecase.SignUp(r.Context(), req)
	if err != nil {
		if writeValidationError(w, err, "Incorrect inputs") {
			return
		}

		switch {
		case errors.Is(err, usecase.ErrEmailAlreadyTaken):
			response.JSON(w, http.StatusConflict, response.Envelope{
				Success: false,
				Message: "Email already taken",
				Errors:  map[string][]string{"email": {"email already exists"}},
			})
		default:
			h.serverError(w, err, "failed to sign up user")
		}
		return
	}

	response.JSON(w, http.StatusOK, response.Envelope{
		Success: true,
		Message: "User created successfully",
		Data:    result.User,
		Token:   result.Token,
	})
}

func (h *Handler) LogIn(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeValidationError(w, err, "Incorrect inputs")
		return
	}

	result, err := h.authUsecase.LogIn(r.Context(), req)
	if err != nil {
		if writeValidationError(w, err, "Incorrect inputs") {
			return
		}

		switch {
		case errors.Is(err, usecase.ErrInvalidCredentials):
			response.Fail(w, http.StatusUnauthorized, "Incorrect username or password")
		default:
			h.logger.Error().Err(err).Msg("failed to log in user")
			response.Fail(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	response.Success(w, http.StatusCreated, "User logged In successfully", result)
}
