package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User represents a registered account. PasswordHash is never serialized to clients.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string        `bson:"email"         json:"email"`
	PasswordHash string        `bson:"passwordHash"  json:"-"`
	FirstName    string        `bson:"firstName"     json:"firstName"`
	LastName     string        `bson:"lastName"      json:"lastName"`
	MobileNumber string        `bson:"mobileNumber"  json:"mobileNumber"`
	CreatedAt    time.Time     `bson:"createdAt"     json:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt"     json:"updatedAt"`
}
