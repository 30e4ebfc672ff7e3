package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/phillip/campus-events-go/models"
)

// ErrNotFound is returned when a lookup or write matched no document.
var ErrNotFound = errors.New("document not found")

type EventRepository struct {
	col     *mongo.Collection
	timeout time.Duration
}

func NewEventRepository(db *mongo.Database, timeout time.Duration) *EventRepository {
	return &EventRepository{col: db.Collection("events"), timeout: timeout}
}

// ---------------- QUERIES ----------------

// Find returns all events, or only those of the given type when typeID is set.
func (r *EventRepository) Find(ctx context.Context, typeID *primitive.ObjectID) ([]models.Event, error) {
	filter := bson.M{}
	if typeID != nil {
		filter["type"] = *typeID
	}
	return r.find(ctx, filter)
}

func (r *EventRepository) FindSortedByStart(ctx context.Context) ([]models.Event, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "dateStart", Value: -1}}))
}

func (r *EventRepository) FindByOwners(ctx context.Context, userIDs []primitive.ObjectID) ([]models.Event, error) {
	if len(userIDs) == 0 {
		return []models.Event{}, nil
	}
	return r.find(ctx, bson.M{"userId": bson.M{"$in": userIDs}})
}

func (r *EventRepository) FindCalendar(ctx context.Context) ([]models.CalendarEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"name": 1, "dateStart": 1, "dateEnd": 1})
	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}

	entries := []models.CalendarEvent{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *EventRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var event models.Event
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&event); err != nil {
		return nil, translate(err)
	}
	normalize(&event)
	return &event, nil
}

func (r *EventRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}

	events := []models.Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	for i := range events {
		normalize(&events[i])
	}
	return events, nil
}

// ---------------- WRITES ----------------

// Insert stores a new event, assigning an ID when the caller left it zero.
func (r *EventRepository) Insert(ctx context.Context, event *models.Event) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, event)
	return err
}

// Update applies set to the event and returns the stored result.
func (r *EventRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Event, error) {
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r *EventRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *EventRepository) PushFeedback(ctx context.Context, id primitive.ObjectID, feedback models.Feedback) (*models.Event, error) {
	return r.findOneAndUpdate(ctx, id, bson.M{"$push": bson.M{"feedback": feedback}})
}

// PushComment appends a comment and returns the event's full comment list.
func (r *EventRepository) PushComment(ctx context.Context, id primitive.ObjectID, comment models.Comment) ([]models.Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"comments": 1})

	var out struct {
		Comments []models.Comment `bson:"comments"`
	}
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$push": bson.M{"comments": comment}}, opts).Decode(&out)
	if err != nil {
		return nil, translate(err)
	}
	return out.Comments, nil
}

// ToggleFeedbackSurvey flips isFeedbackSurveyOpen server-side; a missing flag counts as false.
func (r *EventRepository) ToggleFeedbackSurvey(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	flip := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "isFeedbackSurveyOpen", Value: bson.D{{Key: "$not", Value: bson.A{"$isFeedbackSurveyOpen"}}}},
		}}},
	}
	return r.findOneAndUpdate(ctx, id, flip)
}

func (r *EventRepository) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, update interface{}) (*models.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Event
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated); err != nil {
		return nil, translate(err)
	}
	normalize(&updated)
	return &updated, nil
}

// normalize replaces lists missing from older documents with empty ones.
func normalize(event *models.Event) {
	if event.Images == nil {
		event.Images = []string{}
	}
	if event.Comments == nil {
		event.Comments = []models.Comment{}
	}
}

func translate(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
