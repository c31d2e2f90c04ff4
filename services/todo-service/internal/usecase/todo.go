package usecase

import (
	"context"
	"errors"
	"math"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/model"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/payload"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/repository"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/validation"
	"github.com/vasapolrittideah/task-wand-api/shared/auth"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	defaultSort  = "createdAt"
)

// TodoUsecase defines the owner-scoped todo operations.
type TodoUsecase interface {
	CreateTodo(ctx context.Context, identity auth.Identity, req payload.CreateTodoRequest) (*model.Todo, error)
	ListTodos(ctx context.Context, identity auth.Identity, query payload.ListTodosQuery) (*ListTodosResult, error)
	UpdateTodo(ctx context.Context, identity auth.Identity, id string, decode UpdateDecoder) (*model.Todo, error)
	DeleteTodo(ctx context.Context, identity auth.Identity, id string) error
}

// UpdateDecoder fills req with the requested changes. UpdateTodo calls it only once
// the todo has been found, so decode errors are reported at the validation step.
type UpdateDecoder func(req *payload.UpdateTodoRequest) error

// UpdateWith returns an UpdateDecoder that yields req unchanged.
func UpdateWith(req payload.UpdateTodoRequest) UpdateDecoder {
	return func(dst *payload.UpdateTodoRequest) error {
		*dst = req
		return nil
	}
}

// ListTodosResult is one page of todos and its pagination block.
type ListTodosResult struct {
	Todos      []*model.Todo
	Pagination payload.Pagination
}

var (
	ErrTodoNotFound   = errors.New("todo not found")
	ErrTodoIDRequired = errors.New("todo id is required")
	ErrInvalidOwner   = errors.New("identity does not reference a valid user id")
)

type todoUsecase struct {
	todoRepo  repository.TodoRepository
	validator *validation.Validator
}

// NewTodoUsecase creates a new TodoUsecase.
func NewTodoUsecase(todoRepo repository.TodoRepository, validator *validation.Validator) TodoUsecase {
	return &todoUsecase{
		todoRepo:  todoRepo,
		validator: validator,
	}
}

func (u *todoUsecase) CreateTodo(
	ctx context.Context,
	identity auth.Identity,
	req payload.CreateTodoRequest,
) (*model.Todo, error) {
	if err := u.validator.Validate(req); err != nil {
		return nil, err
	}

	owner, err := ownerID(identity)
	if err != nil {
		return nil, err
	}

	return u.todoRepo.CreateTodo(ctx, &model.Todo{
		Title:       req.Title,
		Description: *req.Description,
		DueDate:     req.DueDate,
		Priority:    deref(req.Priority),
		Status:      deref(req.Status),
		Owner:       owner,
	})
}

func (u *todoUsecase) ListTodos(
	ctx context.Context,
	identity auth.Identity,
	query payload.ListTodosQuery,
) (*ListTodosResult, error) {
	if err := u.validator.Validate(query); err != nil {
		return nil, err
	}

	owner, err := ownerID(identity)
	if err != nil {
		return nil, err
	}

	page := defaultPage
	if query.Page != nil {
		page = *query.Page
	}
	limit := defaultLimit
	if query.Limit != nil {
		limit = *query.Limit
	}
	sortBy := defaultSort
	if query.Sort != "" {
		sortBy = query.Sort
	}

	var todos []*model.Todo
	// A page whose offset does not fit in int64 lies past any stored todo.
	if int64(page-1) <= math.MaxInt64/int64(limit) {
		todos, err = u.todoRepo.ListTodosByOwner(ctx, repository.FilterTodosParams{
			Owner:    owner,
			Limit:    int64(limit),
			Offset:   int64(page-1) * int64(limit),
			SortBy:   sortBy,
			SortDesc: query.Order == "desc",
		})
		if err != nil {
			return nil, err
		}
	}
	if todos == nil {
		todos = []*model.Todo{}
	}

	// Counted separately from the page read; the two are not a consistent snapshot.
	total, err := u.todoRepo.CountTodosByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	return &ListTodosResult{
		Todos:      todos,
		Pagination: paginate(total, page, limit),
	}, nil
}

func (u *todoUsecase) UpdateTodo(
	ctx context.Context,
	identity auth.Identity,
	id string,
	decode UpdateDecoder,
) (*model.Todo, error) {
	todo, err := u.findOwnedTodo(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	var req payload.UpdateTodoRequest
	if err := decode(&req); err != nil {
		return nil, err
	}
	if err := u.validator.Validate(req); err != nil {
		return nil, err
	}

	params := repository.UpdateTodoParams{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		Status:      req.Status,
	}
	if params.IsEmpty() {
		return todo, nil
	}

	updated, err := u.todoRepo.UpdateTodo(ctx, todo.ID, todo.Owner, params)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTodoNotFound
		}

		return nil, err
	}

	return updated, nil
}

func (u *todoUsecase) DeleteTodo(ctx context.Context, identity auth.Identity, id string) error {
	todo, err := u.findOwnedTodo(ctx, identity, id)
	if err != nil {
		return err
	}

	if err := u.todoRepo.DeleteTodo(ctx, todo.ID, todo.Owner); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrTodoNotFound
		}

		return err
	}

	return nil
}

// findOwnedTodo looks a todo up by id and owner. A malformed id, a missing todo and a
// todo owned by someone else all yield ErrTodoNotFound.
func (u *todoUsecase) findOwnedTodo(ctx context.Context, identity auth.Identity, id string) (*model.Todo, error) {
	if id == "" {
		return nil, ErrTodoIDRequired
	}

	owner, err := ownerID(identity)
	if err != nil {
		return nil, err
	}

	todoID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrTodoNotFound
	}

	todo, err := u.todoRepo.GetTodoByIDAndOwner(ctx, todoID, owner)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTodoNotFound
		}

		return nil, err
	}

	return todo, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ownerID(identity auth.Identity) (bson.ObjectID, error) {
	owner, err := bson.ObjectIDFromHex(identity.ID)
	if err != nil {
		return bson.ObjectID{}, ErrInvalidOwner
	}

	return owner, nil
}

func paginate(total int64, page, limit int) payload.Pagination {
	totalPages := (total + int64(limit) - 1) / int64(limit)

	return payload.Pagination{
		TotalTodoCount: total,
		TotalPages:     totalPages,
		CurrentPage:    page,
		Limit:          limit,
		HasNextPage:    int64(page) < totalPages,
		HasPrevPage:    page > 1,
	}
}
