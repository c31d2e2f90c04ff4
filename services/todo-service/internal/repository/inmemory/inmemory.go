// Package inmemory provides map-backed implementations of the repository interfaces
// that report the same errors as the MongoDB implementations.
package inmemory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/model"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/repository"
)

const duplicateKeyCode = 11000

// UserRepository is an in-memory repository.UserRepository with a unique email constraint.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: map[string]model.User{}}
}

func (r *UserRepository) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Email]; ok {
		return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{
			Code:    duplicateKeyCode,
			Message: "E11000 duplicate key error collection: users index: email_1",
		}}}
	}

	now := time.Now().UTC()
	user.ID = bson.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.Email] = *user

	return user, nil
}

func (r *UserRepository) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[email]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	return &user, nil
}

// TodoRepository is an in-memory repository.TodoRepository. Listing supports sorting
// by the model's fields; an unknown sort field keeps insertion order.
type TodoRepository struct {
	mu    sync.RWMutex
	todos []model.Todo
}

func NewTodoRepository() *TodoRepository {
	return &TodoRepository{}
}

func (r *TodoRepository) CreateTodo(_ context.Context, todo *model.Todo) (*model.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	todo.ID = bson.NewObjectID()
	todo.CreatedAt = now
	todo.UpdatedAt = now
	r.todos = append(r.todos, *todo)

	return todo, nil
}

func (r *TodoRepository) GetTodoByIDAndOwner(_ context.Context, id, owner bson.ObjectID) (*model.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id, owner)
	if i < 0 {
		return nil, mongo.ErrNoDocuments
	}

	todo := r.todos[i]
	return &todo, nil
}

func (r *TodoRepository) ListTodosByOwner(
	_ context.Context,
	params repository.FilterTodosParams,
) ([]*model.Todo, error) {
	if params.Offset < 0 {
		return nil, repository.ErrNegativeOffset
	}

	r.mu.RLock()
	owned := make([]model.Todo, 0, len(r.todos))
	for _, todo := range r.todos {
		if todo.Owner == params.Owner {
			owned = append(owned, todo)
		}
	}
	r.mu.RUnlock()

	if less := lessBy(repository.SortKey(params.SortBy)); less != nil {
		sort.SliceStable(owned, func(i, j int) bool {
			if params.SortDesc {
				return less(owned[j], owned[i])
			}
			return less(owned[i], owned[j])
		})
	}

	limit := params.Limit
	if limit == 0 {
		limit = 10
	}

	todos := make([]*model.Todo, 0, limit)
	for i := params.Offset; i < int64(len(owned)) && int64(len(todos)) < limit; i++ {
		todo := owned[i]
		todos = append(todos, &todo)
	}

	return todos, nil
}

func (r *TodoRepository) CountTodosByOwner(_ context.Context, owner bson.ObjectID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, todo := range r.todos {
		if todo.Owner == owner {
			count++
		}
	}

	return count, nil
}

func (r *TodoRepository) UpdateTodo(
	_ context.Context,
	id, owner bson.ObjectID,
	params repository.UpdateTodoParams,
) (*model.Todo, error) {
	if params.IsEmpty() {
		return nil, errors.New("no todo fields to update")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id, owner)
	if i < 0 {
		return nil, mongo.ErrNoDocuments
	}

	todo := &r.todos[i]
	if params.Title != nil {
		todo.Title = *params.Title
	}
	if params.Description != nil {
		todo.Description = *params.Description
	}
	if params.DueDate != nil {
		todo.DueDate = *params.DueDate
	}
	if params.Priority != nil {
		todo.Priority = *params.Priority
	}
	if params.Status != nil {
		todo.Status = *params.Status
	}
	todo.UpdatedAt = time.Now().UTC()

	updated := *todo
	return &updated, nil
}

func (r *TodoRepository) DeleteTodo(_ context.Context, id, owner bson.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id, owner)
	if i < 0 {
		return mongo.ErrNoDocuments
	}

	r.todos = append(r.todos[:i], r.todos[i+1:]...)
	return nil
}

func (r *TodoRepository) indexOf(id, owner bson.ObjectID) int {
	for i, todo := range r.todos {
		if todo.ID == id && todo.Owner == owner {
			return i
		}
	}
	return -1
}

func lessBy(field string) func(a, b model.Todo) bool {
	switch field {
	case "_id":
		return func(a, b model.Todo) bool { return strings.Compare(a.ID.Hex(), b.ID.Hex()) < 0 }
	case "title":
		return func(a, b model.Todo) bool { return a.Title < b.Title }
	case "description":
		return func(a, b model.Todo) bool { return a.Description < b.Description }
	case "dueDate":
		return func(a, b model.Todo) bool { return a.DueDate < b.DueDate }
	case "priority":
		return func(a, b model.Todo) bool { return a.Priority < b.Priority }
	case "status":
		return func(a, b model.Todo) bool { return a.Status < b.Status }
	case "createdAt":
		return func(a, b model.Todo) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "updatedAt":
		return func(a, b model.Todo) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	default:
		return nil
	}
}

var (
	_ repository.UserRepository = (*UserRepository)(nil)
	_ repository.TodoRepository = (*TodoRepository)(nil)
)
