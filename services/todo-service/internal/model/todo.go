package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Todo is a task owned by exactly one user. Owner is set at creation and never changes.
type Todo struct {
	ID          bson.ObjectID `bson:"_id,omitempty"      json:"id"`
	Title       string        `bson:"title"              json:"title"`
	Description string        `bson:"description"        json:"description"`
	DueDate     string        `bson:"dueDate"            json:"dueDate"`
	Priority    string        `bson:"priority,omitempty" json:"priority,omitempty"`
	Status      string        `bson:"status,omitempty"   json:"status,omitempty"`
	Owner       bson.ObjectID `bson:"user"               json:"user"`
	CreatedAt   time.Time     `bson:"createdAt"          json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt"          json:"updatedAt"`
}
