package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/payload"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/response"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/usecase"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/validation"
)

func (h *Handler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identityFrom(w, r)
	if !ok {
		return
	}

	var req payload.CreateTodoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeValidationError(w, err, "Incorrect inputs")
		return
	}

	todo, err := h.todoUsecase.CreateTodo(r.Context(), identity, req)
	if err != nil {
		h.writeTodoError(w, err, "Incorrect inputs", "failed to create todo")
		return
	}

	response.Success(w, http.StatusCreated, "Todo created successfully", todo)
}

func (h *Handler) ListTodos(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identityFrom(w, r)
	if !ok {
		return
	}

	query, err := bindListQuery(r.URL.Query())
	if err != nil {
		writeValidationError(w, err, "Invalid query parameters")
		return
	}

	result, err := h.todoUsecase.ListTodos(r.Context(), identity, query)
	if err != nil {
		h.writeTodoError(w, err, "Invalid query parameters", "failed to list todos")
		return
	}

	response.JSON(w, http.StatusOK, response.Envelope{
		Success:    true,
		Message:    "Todos retrieved successfully",
		Pagination: result.Pagination,
		Data:       result.Todos,
	})
}

func (h *Handler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identityFrom(w, r)
	if !ok {
		return
	}

	decode := func(req *payload.UpdateTodoRequest) error {
		return decodeJSON(w, r, req)
	}

	todo, err := h.todoUsecase.UpdateTodo(r.Context(), identity, chi.URLParam(r, "id"), decode)
	if err != nil {
		h.writeTodoError(w, err, "Invalid update data", "failed to update todo")
		return
	}

	response.Success(w, http.StatusOK, "Todo updated successfully", todo)
}

func (h *Handler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identityFrom(w, r)
	if !ok {
		return
	}

	if err := h.todoUsecase.DeleteTodo(r.Context(), identity, chi.URLParam(r, "id")); err != nil {
		h.writeTodoError(w, err, "Invalid request", "failed to delete todo")
		return
	}

	response.Success(w, http.StatusOK, "Todo deleted successfully", nil)
}

func (h *Handler) writeTodoError(w http.ResponseWriter, err error, invalidMessage, logMessage string) {
	if writeValidationError(w, err, invalidMessage) {
		return
	}

	switch {
	case errors.Is(err, usecase.ErrTodoIDRequired):
		response.Fail(w, http.StatusBadRequest, "Todo ID is required")
	case errors.Is(err, usecase.ErrTodoNotFound):
		response.Fail(w, http.StatusNotFound, "Todo not found")
	case errors.Is(err, usecase.ErrInvalidOwner):
		response.Fail(w, http.StatusUnauthorized, "Token is not valid")
	default:
		h.serverError(w, err, logMessage)
	}
}

// bindListQuery converts the list query string. Range checks are left to the validator.
func bindListQuery(values url.Values) (payload.ListTodosQuery, error) {
	query := payload.ListTodosQuery{
		Sort:  values.Get("sort"),
		Order: values.Get("order"),
	}

	var vErr *validation.Error
	parseInt := func(field string) *int {
		raw := values.Get(field)
		if raw == "" {
			return nil
		}

		n, err := strconv.Atoi(raw)
		if err != nil {
			if vErr == nil {
				vErr = &validation.Error{}
			}
			vErr.Add(field, field+" must be an integer")
			return nil
		}
		return &n
	}

	query.Page = parseInt("page")
	query.Limit = parseInt("limit")

	if vErr != nil {
		return payload.ListTodosQuery{}, vErr
	}

	return query, nil
}
