package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/model"
)

// TodoRepository defines the interface for todo-related database operations.
// Every read and write except CreateTodo is scoped by owner.
type TodoRepository interface {
	CreateTodo(ctx context.Context, todo *model.Todo) (*model.Todo, error)
	GetTodoByIDAndOwner(ctx context.Context, id, owner bson.ObjectID) (*model.Todo, error)
	ListTodosByOwner(ctx context.Context, params FilterTodosParams) ([]*model.Todo, error)
	CountTodosByOwner(ctx context.Context, owner bson.ObjectID) (int64, error)
	UpdateTodo(ctx context.Context, id, owner bson.ObjectID, params UpdateTodoParams) (*model.Todo, error)
	DeleteTodo(ctx context.Context, id, owner bson.ObjectID) error
}

// UpdateTodoParams defines the optional parameters for updating a todo.
// Only the fields that are not nil will be updated.
type UpdateTodoParams struct {
	Title       *string
	Description *string
	DueDate     *string
	Priority    *string
	Status      *string
}

// IsEmpty reports whether no field is set.
func (p UpdateTodoParams) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil && p.Priority == nil && p.Status == nil
}

// ErrNegativeOffset is returned by ListTodosByOwner when Offset is below zero.
var ErrNegativeOffset = errors.New("list offset must not be negative")

// FilterTodosParams defines the parameters for listing one owner's todos.
// SortBy is passed to the store as-is, except that "id" addresses the document key.
type FilterTodosParams struct {
	Owner    bson.ObjectID
	Limit    int64
	Offset   int64
	SortBy   string
	SortDesc bool
}

const todoCollection = "todos"

type todoMongoRepository struct {
	db *mongo.Database
}

// NewTodoMongoRepository creates the todo repository and ensures its indexes.
func NewTodoMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) TodoRepository {
	collection := db.Collection(todoCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create todo indexes")
	}

	return &todoMongoRepository{db: db}
}

func (r *todoMongoRepository) CreateTodo(ctx context.Context, todo *model.Todo) (*model.Todo, error) {
	now := time.Now().UTC()
	todo.CreatedAt = now
	todo.UpdatedAt = now

	result, err := r.db.Collection(todoCollection).InsertOne(ctx, todo)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		todo.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return todo, nil
}

func (r *todoMongoRepository) GetTodoByIDAndOwner(
	ctx context.Context,
	id, owner bson.ObjectID,
) (*model.Todo, error) {
	result := r.db.Collection(todoCollection).FindOne(ctx, bson.M{"_id": id, "user": owner})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var todo model.Todo
	if err := result.Decode(&todo); err != nil {
		return nil, err
	}

	return &todo, nil
}

func (r *todoMongoRepository) ListTodosByOwner(ctx context.Context, params FilterTodosParams) ([]*model.Todo, error) {
	if params.Offset < 0 {
		return nil, ErrNegativeOffset
	}

	findOptions := options.Find()

	limit := params.Limit
	if limit == 0 {
		limit = 10
	}
	findOptions.SetLimit(limit)

	if params.Offset > 0 {
		findOptions.SetSkip(params.Offset)
	}

	sortBy := SortKey(params.SortBy)

	sortOrder := -1
	if !params.SortDesc {
		sortOrder = 1
	}
	findOptions.SetSort(bson.D{{Key: sortBy, Value: sortOrder}})

	cursor, err := r.db.Collection(todoCollection).Find(ctx, bson.M{"user": params.Owner}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	todos := make([]*model.Todo, 0, limit)
	for cursor.Next(ctx) {
		var todo model.Todo
		if err := cursor.Decode(&todo); err != nil {
			return nil, err
		}
		todos = append(todos, &todo)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return todos, nil
}

func (r *todoMongoRepository) CountTodosByOwner(ctx context.Context, owner bson.ObjectID) (int64, error) {
	return r.db.Collection(todoCollection).CountDocuments(ctx, bson.M{"user": owner})
}

func (r *todoMongoRepository) UpdateTodo(
	ctx context.Context,
	id, owner bson.ObjectID,
	params UpdateTodoParams,
) (*model.Todo, error) {
	updateMap := bson.M{}
	if params.Title != nil {
		updateMap["title"] = *params.Title
	}
	if params.Description != nil {
		updateMap["description"] = *params.Description
	}
	if params.DueDate != nil {
		updateMap["dueDate"] = *params.DueDate
	}
	if params.Priority != nil {
		updateMap["priority"] = *params.Priority
	}
	if params.Status != nil {
		updateMap["status"] = *params.Status
	}

	if len(updateMap) == 0 {
		return nil, errors.New("no todo fields to update")
	}

	updateMap["updatedAt"] = time.Now().UTC()

	result := r.db.Collection(todoCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": id, "user": owner},
		bson.M{"$set": updateMap},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var todo model.Todo
	if err := result.Decode(&todo); err != nil {
		return nil, err
	}

	return &todo, nil
}

func (r *todoMongoRepository) DeleteTodo(ctx context.Context, id, owner bson.ObjectID) error {
	result, err := r.db.Collection(todoCollection).DeleteOne(ctx, bson.M{"_id": id, "user": owner})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}

	return nil
}

// SortKey maps a client-facing sort field onto the BSON key it is stored under.
// An empty field sorts by creation time.
func SortKey(field string) string {
	switch field {
	case "":
		return "createdAt"
	case "id":
		return "_id"
	default:
		return field
	}
}
