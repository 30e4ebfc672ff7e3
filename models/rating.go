package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rating is a standalone feedback record, not tied to an event document.
type Rating struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	EventName string             `bson:"eventName" json:"eventName"`
	Feedback  string             `bson:"feedback" json:"feedback"`
	Rating    float64            `bson:"rating" json:"rating"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
