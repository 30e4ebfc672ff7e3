package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User is the subset of the users collection this service reads.
// Users are owned by the auth service and never written here.
type User struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name    string             `bson:"name" json:"name"`
	IsAdmin bool               `bson:"isAdmin" json:"isAdmin"`
}
