package usecase

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/model"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/payload"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/repository/inmemory"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/validation"
	"github.com/vasapolrittideah/task-wand-api/shared/auth"
)

func newIdentity() auth.Identity {
	id := bson.NewObjectID().Hex()
	return auth.Identity{ID: id, Username: id + "@mail.com"}
}

func newTodoUsecase(t *testing.T) TodoUsecase {
	t.Helper()
	return NewTodoUsecase(inmemory.NewTodoRepository(), newTestValidator(t))
}

func buyStocks() payload.CreateTodoRequest {
	return payload.CreateTodoRequest{
		Title:       "Buy stocks",
		Description: ptr("Buy Nvidia, apple, google"),
		DueDate:     "2024-05-15",
		Priority:    ptr(model.PriorityLow),
		Status:      ptr(model.StatusPending),
	}
}

func TestCreateTodo_SetsOwnerFromIdentity(t *testing.T) {
	u := newTodoUsecase(t)
	alice := newIdentity()

	todo, err := u.CreateTodo(context.Background(), alice, buyStocks())
	require.NoError(t, err)

	assert.False(t, todo.ID.IsZero())
	assert.Equal(t, alice.ID, todo.Owner.Hex())
	assert.Equal(t, "Buy stocks", todo.Title)
	assert.Equal(t, "Buy Nvidia, apple, google", todo.Description)
}

func TestCreateTodo_ValidationFailureDoesNotTouchStore(t *testing.T) {
	repo := inmemory.NewTodoRepository()
	u := NewTodoUsecase(repo, newTestValidator(t))
	alice := newIdentity()

	req := buyStocks()
	req.DueDate = "May 15"
	_, err := u.CreateTodo(context.Background(), alice, req)

	var vErr *validation.Error
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "dueDate")

	owner, _ := bson.ObjectIDFromHex(alice.ID)
	count, err := repo.CountTodosByOwner(context.Background(), owner)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateTodo_InvalidOwner(t *testing.T) {
	u := newTodoUsecase(t)

	_, err := u.CreateTodo(context.Background(), auth.Identity{ID: "not-hex"}, buyStocks())
	assert.ErrorIs(t, err, ErrInvalidOwner)
}

func TestUpdateTodo_PartialUpdateKeepsOtherFields(t *testing.T) {
	u := newTodoUsecase(t)
	alice := newIdentity()

	created, err := u.CreateTodo(context.Background(), alice, buyStocks())
	require.NoError(t, err)

	updated, err := u.UpdateTodo(context.Background(), alice, created.ID.Hex(), UpdateWith(payload.UpdateTodoRequest{
		Status: ptr(model.StatusCompleted),
	}))
	require.NoError(t, err)

	assert.Equal(t, model.StatusCompleted, updated.Status)
	assert.Equal(t, created.Title, updated.Title)
	assert.Equal(t, created.Description, updated.Description)
	assert.Equal(t, created.DueDate, updated.DueDate)
	assert.Equal(t, created.Priority, updated.Priority)
	assert.Equal(t, created.Owner, updated.Owner)
}

func TestUpdateTodo_EmptyPayloadReturnsRecordUnchanged(t *testing.T) {
	u := newTodoUsecase(t)
	alice := newIdentity()

	created, err := u.CreateTodo(context.Background(), alice, buyStocks())
	require.NoError(t, err)

	updated, err := u.UpdateTodo(context.Background(), alice, created.ID.Hex(), UpdateWith(payload.UpdateTodoRequest{}))
	require.NoError(t, err)
	assert.Equal(t, created.Title, updated.Title)
	assert.Equal(t, created.Status, updated.Status)
}

func TestUpdateTodo_ValidationFailure(t *testing.T) {
	u := newTodoUsecase(t)
	alice := newIdentity()

	created, err := u.CreateTodo(context.Background(), alice, buyStocks())
	require.NoError(t, err)

	_, err = u.UpdateTodo(context.Background(), alice, created.ID.Hex(), UpdateWith(payload.UpdateTodoRequest{
		Status: ptr("archived"),
	}))

	var vErr *validation.Error
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "status")
}

func TestUpdateTodo_MissingID(t *testing.T) {
	u := newTodoUsecase(t)

	_, err := u.UpdateTodo(context.Background(), newIdentity(), "", UpdateWith(payload.UpdateTodoRequest{}))
	assert.ErrorIs(t, err, ErrTodoIDRequired)
}

func TestOwnershipScoping_ForeignTodoLooksNonexistent(t *testing.T) {
	u := newTodoUsecase(t)
	alice, bob := newIdentity(), newIdentity()
	ctx := context.Background()

	created, err := u.CreateTodo(ctx, alice, buyStocks())
	require.NoError(t, err)

	_, err = u.UpdateTodo(ctx, bob, created.ID.Hex(), UpdateWith(payload.UpdateTodoRequest{Title: ptr("Sell stocks")}))
	assert.ErrorIs(t, err, ErrTodoNotFound)

	err = u.DeleteTodo(ctx, bob, created.ID.Hex())
	assert.ErrorIs(t, err, ErrTodoNotFound)

	_, missing := u.UpdateTodo(ctx, bob, bson.NewObjectID().Hex(), UpdateWith(payload.UpdateTodoRequest{}))
	assert.Equal(t, missing, err)

	bobs, err := u.ListTodos(ctx, bob, payload.ListTodosQuery{})
	require.NoError(t, err)
	assert.Empty(t, bobs.Todos)
	assert.Zero(t, bobs.Pagination.TotalTodoCount)

	alices, err := u.ListTodos(ctx, alice, payload.ListTodosQuery{})
	require.NoError(t, err)
	require.Len(t, alices.Todos, 1)
	assert.Equal(t, "Buy stocks", alices.Todos[0].Title)
}

func TestOwnershipScoping_ForeignUpdateIsCheckedBeforeValidation(t *testing.T) {
	u := newTodoUsecase(t)
	alice, bob := newIdentity(), newIdentity()

	created, err := u.CreateTodo(context.Background(), alice, buyStocks())
	require.NoError(t, err)

	_, err = u.UpdateTodo(context.Background(), bob, created.ID.Hex(), UpdateWith(payload.UpdateTodoRequest{Status: ptr("bogus")}))
	assert.ErrorIs(t, err, ErrTodoNotFound)

	calls := 0
	undecodable := func(*payload.UpdateTodoRequest) error {
		calls++
		return validation.NewError("title", "title must be of type string")
	}

	_, err = u.UpdateTodo(context.Background(), bob, created.ID.Hex(), undecodable)
	assert.ErrorIs(t, err, ErrTodoNotFound)
	_, err = u.UpdateTodo(context.Background(), alice, bson.NewObjectID().Hex(), undecodable)
	assert.ErrorIs(t, err, ErrTodoNotFound)
	_, err = u.UpdateTodo(context.Background(), alice, "", undecodable)
	assert.ErrorIs(t, err, ErrTodoIDRequired)
	assert.Zero(t, calls)

	_, err = u.UpdateTodo(context.Background(), alice, created.ID.Hex(), undecodable)
	var vErr *validation.Error
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "title")
	assert.Equal(t, 1, calls)
}

func TestDeleteTodo_MalformedID(t *testing.T) {
	u := newTodoUsecase(t)

	err := u.DeleteTodo(context.Background(), newIdentity(), "12345")
	assert.ErrorIs(t, err, ErrTodoNotFound)
}

func TestDeleteTodo_RemovesFromListing(t *testing.T) {
	u := newTodoUsecase(t)
	alice := newIdentity()
	ctx := context.Background()

	created, err := u.CreateTodo(ctx, alice, buyStocks())
	require.NoError(t, err)

	require.NoError(t, u.DeleteTodo(ctx, alice, created.ID.Hex()))

	result, err := u.ListTodos(ctx, alice, payload.ListTodosQuery{})
	require.NoError(t, err)
	assert.Empty(t, result.Todos)

	assert.ErrorIs(t, u.DeleteTodo(ctx, alice, created.ID.Hex()), ErrTodoNotFound)
}

func TestListTodos_Pagination(t *testing.T) {
	u := newTodoUsecase(t)
	alice := newIdentity()
	ctx := context.Background()

	for i := range 7 {
		req := buyStocks()
		req.Title = fmt.Sprintf("todo-%d", i)
		_, err := u.CreateTodo(ctx, alice, req)
		require.NoError(t, err)
	}

	cases := []struct {
		page, limit int
		wantLen     int
		wantPages   int64
		wantNext    bool
		wantPrev    bool
	}{
		{page: 1, limit: 3, wantLen: 3, wantPages: 3, wantNext: true, wantPrev: false},
		{page: 2, limit: 3, wantLen: 3, wantPages: 3, wantNext: true, wantPrev: true},
		{page: 3, limit: 3, wantLen: 1, wantPages: 3, wantNext: false, wantPrev: true},
		{page: 4, limit: 3, wantLen: 0, wantPages: 3, wantNext: false, wantPrev: true},
		{page: 1, limit: 7, wantLen: 7, wantPages: 1, wantNext: false, wantPrev: false},
		{page: 1, limit: 100, wantLen: 7, wantPages: 1, wantNext: false, wantPrev: false},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("page=%d,limit=%d", tc.page, tc.limit), func(t *testing.T) {
			result, err := u.ListTodos(ctx, alice, payload.ListTodosQuery{Page: ptr(tc.page), Limit: ptr(tc.limit)})
			require.NoError(t, err)

			assert.Len(t, result.Todos, tc.wantLen)
			assert.EqualValues(t, 7, result.Pagination.TotalTodoCount)
			assert.Equal(t, tc.wantPages, result.Pagination.TotalPages)
			assert.Equal(t, tc.page, result.Pagination.CurrentPage)
			assert.Equal(t, tc.wantNext, result.Pagination.HasNextPage)
			assert.Equal(t, tc.wantPrev, result.Pagination.HasPrevPage)
		})
	}
}

func TestListTodos_DefaultsAndSorting(t *testing.T) {
	u := newTodoUsecase(t)
	alice := newIdentity()
	ctx := context.Background()

	for _, title := range []string{"b", "c", "a"} {
		req := buyStocks()
		req.Title = title
		_, err := u.CreateTodo(ctx, alice, req)
		require.NoError(t, err)
	}

	result, err := u.ListTodos(ctx, alice, payload.ListTodosQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pagination.CurrentPage)
	assert.Equal(t, 10, result.Pagination.Limit)
	assert.Equal(t, []string{"b", "c", "a"}, titles(result.Todos))

	result, err = u.ListTodos(ctx, alice, payload.ListTodosQuery{Sort: "title", Order: "desc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, titles(result.Todos))

	result, err = u.ListTodos(ctx, alice, payload.ListTodosQuery{Sort: "title"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, titles(result.Todos))
}

func TestListTodos_EmptyHasNoPages(t *testing.T) {
	u := newTodoUsecase(t)

	result, err := u.ListTodos(context.Background(), newIdentity(), payload.ListTodosQuery{})
	require.NoError(t, err)

	assert.NotNil(t, result.Todos)
	assert.Zero(t, result.Pagination.TotalPages)
	assert.False(t, result.Pagination.HasNextPage)
	assert.False(t, result.Pagination.HasPrevPage)
}

func TestListTodos_InvalidQuery(t *testing.T) {
	u := newTodoUsecase(t)

	_, err := u.ListTodos(context.Background(), newIdentity(), payload.ListTodosQuery{Limit: ptr(500)})

	var vErr *validation.Error
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "limit")
}

func TestListTodos_PageBeyondOffsetRange(t *testing.T) {
	u := newTodoUsecase(t)
	alice := newIdentity()
	ctx := context.Background()

	_, err := u.CreateTodo(ctx, alice, buyStocks())
	require.NoError(t, err)

	page := math.MaxInt64/10 + 2
	result, err := u.ListTodos(ctx, alice, payload.ListTodosQuery{Page: ptr(page), Limit: ptr(10)})
	require.NoError(t, err)

	assert.NotNil(t, result.Todos)
	assert.Empty(t, result.Todos)
	assert.EqualValues(t, 1, result.Pagination.TotalTodoCount)
	assert.EqualValues(t, 1, result.Pagination.TotalPages)
	assert.Equal(t, page, result.Pagination.CurrentPage)
	assert.False(t, result.Pagination.HasNextPage)
	assert.True(t, result.Pagination.HasPrevPage)
}

func TestPaginate(t *testing.T) {
	p := paginate(21, 2, 10)
	assert.EqualValues(t, 3, p.TotalPages)
	assert.True(t, p.HasNextPage)
	assert.True(t, p.HasPrevPage)

	p = paginate(20, 2, 10)
	assert.EqualValues(t, 2, p.TotalPages)
	assert.False(t, p.HasNextPage)
}

func titles(todos []*model.Todo) []string {
	out := make([]string, 0, len(todos))
	for _, todo := range todos {
		out = append(out, todo.Title)
	}
	return out
}
