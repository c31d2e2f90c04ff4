package inmemory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/model"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/repository"
)

func seedTodos(t *testing.T, repo *TodoRepository, owner bson.ObjectID, titles ...string) []*model.Todo {
	t.Helper()

	created := make([]*model.Todo, 0, len(titles))
	for _, title := range titles {
		todo, err := repo.CreateTodo(context.Background(), &model.Todo{Title: title, DueDate: "2024-05-15", Owner: owner})
		require.NoError(t, err)
		created = append(created, todo)
	}
	return created
}

func TestListTodosByOwner_NegativeOffset(t *testing.T) {
	repo := NewTodoRepository()
	owner := bson.NewObjectID()
	seedTodos(t, repo, owner, "a", "b")

	_, err := repo.ListTodosByOwner(context.Background(), repository.FilterTodosParams{
		Owner:  owner,
		Limit:  10,
		Offset: -20,
	})
	assert.ErrorIs(t, err, repository.ErrNegativeOffset)
}

func TestListTodosByOwner_OffsetPastEnd(t *testing.T) {
	repo := NewTodoRepository()
	owner := bson.NewObjectID()
	seedTodos(t, repo, owner, "a", "b")

	todos, err := repo.ListTodosByOwner(context.Background(), repository.FilterTodosParams{
		Owner:  owner,
		Limit:  10,
		Offset: 10,
	})
	require.NoError(t, err)
	assert.Empty(t, todos)
}

func TestListTodosByOwner_SortByID(t *testing.T) {
	repo := NewTodoRepository()
	owner := bson.NewObjectID()
	created := seedTodos(t, repo, owner, "first", "second", "third")

	todos, err := repo.ListTodosByOwner(context.Background(), repository.FilterTodosParams{
		Owner:    owner,
		Limit:    10,
		SortBy:   "id",
		SortDesc: true,
	})
	require.NoError(t, err)
	require.Len(t, todos, 3)
	assert.Equal(t, created[2].ID, todos[0].ID)
	assert.Equal(t, created[0].ID, todos[2].ID)
}
