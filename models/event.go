package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Event struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                 string             `bson:"name" json:"name"`
	Description          string             `bson:"description" json:"description"`
	Type                 primitive.ObjectID `bson:"type" json:"type"`
	Organization         string             `bson:"organization" json:"organization"`
	Department           string             `bson:"department" json:"department"`
	DateStart            time.Time          `bson:"dateStart" json:"dateStart"`
	DateEnd              time.Time          `bson:"dateEnd" json:"dateEnd"`
	Location             string             `bson:"location" json:"location"`
	Images               []string           `bson:"images" json:"images"`
	UserID               primitive.ObjectID `bson:"userId" json:"userId"` // Creator
	HasQuestionnaire     bool               `bson:"hasQuestionnaire" json:"hasQuestionnaire"`
	IsFeedbackSurveyOpen bool               `bson:"isFeedbackSurveyOpen,omitempty" json:"isFeedbackSurveyOpen"`
	Comments             []Comment          `bson:"comments" json:"comments"`
	Feedback             []Feedback         `bson:"feedback,omitempty" json:"feedback,omitempty"`
}

// Comment is embedded in Event and has no collection of its own.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type Feedback struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// CalendarEvent is the name + dates projection served to the calendar view.
type CalendarEvent struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	DateStart time.Time          `bson:"dateStart" json:"dateStart"`
	DateEnd   time.Time          `bson:"dateEnd" json:"dateEnd"`
}

// --- Comment with author resolved ---
type CommentAuthor struct {
	ID   primitive.ObjectID `json:"id"`
	Name string             `json:"name"`
}

type CommentView struct {
	ID        primitive.ObjectID `json:"id"`
	User      *CommentAuthor     `json:"user"`
	Text      string             `json:"text"`
	CreatedAt time.Time          `json:"createdAt"`
}
