package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	models "github.com/phillip/campus-events-go/models"
	repositories "github.com/phillip/campus-events-go/repositories"
	utils "github.com/phillip/campus-events-go/utils"
)

var (
	ErrInvalidID     = errors.New("invalid id")
	ErrNoImages      = errors.New("no images uploaded in the request")
	ErrMissingField  = errors.New("missing required field")
	ErrEventNotFound = errors.New("event not found")
	// ErrUpdateTarget is returned by UpdateEvent when the id names no event.
	ErrUpdateTarget = errors.New("invalid event")
)

type EventStore interface {
	Find(ctx context.Context, typeID *primitive.ObjectID) ([]models.Event, error)
	FindSortedByStart(ctx context.Context) ([]models.Event, error)
	FindByOwners(ctx context.Context, userIDs []primitive.ObjectID) ([]models.Event, error)
	FindCalendar(ctx context.Context) ([]models.CalendarEvent, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error)
	Insert(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Event, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	PushFeedback(ctx context.Context, id primitive.ObjectID, feedback models.Feedback) (*models.Event, error)
	PushComment(ctx context.Context, id primitive.ObjectID, comment models.Comment) ([]models.Comment, error)
	ToggleFeedbackSurvey(ctx context.Context, id primitive.ObjectID) (*models.Event, error)
}

type UserDirectory interface {
	AdminIDs(ctx context.Context) ([]primitive.ObjectID, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

type RatingStore interface {
	Insert(ctx context.Context, rating *models.Rating) error
}

// EventFields are the scalar fields written by create and update.
// Ids are kept as strings so every entry point validates them the same way.
type EventFields struct {
	Name         string
	Description  string
	Type         string
	Organization string
	Department   string
	DateStart    time.Time
	DateEnd      time.Time
	Location     string
	UserID       string
}

// missing lists the fields a new event cannot be stored without.
func (in EventFields) missing() []string {
	var names []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"name", in.Name},
		{"description", in.Description},
		{"organization", in.Organization},
		{"department", in.Department},
		{"location", in.Location},
	} {
		if strings.TrimSpace(f.value) == "" {
			names = append(names, f.name)
		}
	}
	if in.DateStart.IsZero() {
		names = append(names, "dateStart")
	}
	if in.DateEnd.IsZero() {
		names = append(names, "dateEnd")
	}
	return names
}

type RatingInput struct {
	UserID    string
	EventName string
	Feedback  string
	Rating    float64
}

type EventService struct {
	events   EventStore
	users    UserDirectory
	ratings  RatingStore
	uploader utils.ImageUploader
	log      *zap.Logger
	now      func() time.Time
}

func NewEventService(events EventStore, users UserDirectory, ratings RatingStore, uploader utils.ImageUploader, log *zap.Logger) *EventService {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventService{
		events:   events,
		users:    users,
		ratings:  ratings,
		uploader: uploader,
		log:      log,
		now:      time.Now,
	}
}

// ---------------- LIST ----------------

// ListEvents returns every event, filtered by type id when typeID is non-empty.
func (s *EventService) ListEvents(ctx context.Context, typeID string) ([]models.Event, error) {
	if typeID == "" {
		return s.events.Find(ctx, nil)
	}
	oid, err := parseID("type", typeID)
	if err != nil {
		return nil, err
	}
	return s.events.Find(ctx, &oid)
}

func (s *EventService) ListEventsSorted(ctx context.Context) ([]models.Event, error) {
	return s.events.FindSortedByStart(ctx)
}

// ListAdminEvents returns events whose creator is flagged admin.
func (s *EventService) ListAdminEvents(ctx context.Context) ([]models.Event, error) {
	adminIDs, err := s.users.AdminIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("find admin users: %w", err)
	}
	return s.events.FindByOwners(ctx, adminIDs)
}

func (s *EventService) ListCalendarEvents(ctx context.Context) ([]models.CalendarEvent, error) {
	return s.events.FindCalendar(ctx)
}

// ---------------- GET ----------------
func (s *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	oid, err := parseID("event", id)
	if err != nil {
		return nil, err
	}
	event, err := s.events.FindByID(ctx, oid)
	return event, notFound(err)
}

// ---------------- CREATE ----------------

// CreateEvent uploads files and stores a new event referencing the hosted URLs.
// At least one file is required; nothing is uploaded or written otherwise.
func (s *EventService) CreateEvent(ctx context.Context, in EventFields, files [][]byte) (*models.Event, error) {
	if len(files) == 0 {
		return nil, ErrNoImages
	}
	if names := in.missing(); len(names) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(names, ", "))
	}
	typeID, err := parseID("type", in.Type)
	if err != nil {
		return nil, err
	}
	userID, err := parseID("user", in.UserID)
	if err != nil {
		return nil, err
	}

	images, err := utils.UploadMany(ctx, s.uploader, files)
	if err != nil {
		return nil, fmt.Errorf("upload images: %w", err)
	}

	event := &models.Event{
		ID:           primitive.NewObjectID(),
		Name:         in.Name,
		Description:  in.Description,
		Type:         typeID,
		Organization: in.Organization,
		Department:   in.Department,
		DateStart:    in.DateStart,
		DateEnd:      in.DateEnd,
		Location:     in.Location,
		Images:       images,
		UserID:       userID,
		Comments:     []models.Comment{},
	}
	if err := s.events.Insert(ctx, event); err != nil {
		s.discard(ctx, images)
		return nil, fmt.Errorf("save event: %w", err)
	}
	return event, nil
}

// ---------------- UPDATE ----------------

// UpdateEvent overwrites the event's scalar fields and recomputes its images as
// existingImages followed by the URLs of the newly uploaded files.
func (s *EventService) UpdateEvent(ctx context.Context, id string, in EventFields, existingImages []string, files [][]byte) (*models.Event, error) {
	oid, err := parseID("event", id)
	if err != nil {
		return nil, err
	}
	typeID, err := parseID("type", in.Type)
	if err != nil {
		return nil, err
	}
	userID, err := parseID("user", in.UserID)
	if err != nil {
		return nil, err
	}

	if _, err := s.events.FindByID(ctx, oid); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUpdateTarget
		}
		return nil, err
	}

	uploaded, err := utils.UploadMany(ctx, s.uploader, files)
	if err != nil {
		return nil, fmt.Errorf("upload images: %w", err)
	}

	images := make([]string, 0, len(existingImages)+len(uploaded))
	images = append(images, existingImages...)
	images = append(images, uploaded...)

	set := bson.M{
		"name":        in.Name,
		"description": in.Description,
		"type":        typeID,
		"dateStart":   in.DateStart,
		"dateEnd":     in.DateEnd,
		"location":    in.Location,
		"images":      images,
		"userId":      userID,
	}
	if in.Organization != "" {
		set["organization"] = in.Organization
	}
	if in.Department != "" {
		set["department"] = in.Department
	}

	updated, err := s.events.Update(ctx, oid, set)
	if err != nil {
		s.discard(ctx, uploaded)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUpdateTarget
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return updated, nil
}

// ---------------- DELETE ----------------
func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	oid, err := parseID("event", id)
	if err != nil {
		return err
	}
	return notFound(s.events.Delete(ctx, oid))
}

// ---------------- FEEDBACK ----------------
func (s *EventService) AddEventFeedback(ctx context.Context, id, user, comment string) (*models.Event, error) {
	oid, err := parseID("event", id)
	if err != nil {
		return nil, err
	}
	userID, err := parseID("user", user)
	if err != nil {
		return nil, err
	}

	event, err := s.events.PushFeedback(ctx, oid, models.Feedback{
		ID:        primitive.NewObjectID(),
		User:      userID,
		Comment:   comment,
		CreatedAt: s.now(),
	})
	return event, notFound(err)
}

func (s *EventService) SubmitRating(ctx context.Context, in RatingInput) (*models.Rating, error) {
	userID, err := parseID("user", in.UserID)
	if err != nil {
		return nil, err
	}

	rating := &models.Rating{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		EventName: in.EventName,
		Feedback:  in.Feedback,
		Rating:    in.Rating,
		CreatedAt: s.now(),
	}
	if err := s.ratings.Insert(ctx, rating); err != nil {
		return nil, fmt.Errorf("save rating: %w", err)
	}
	return rating, nil
}

// ToggleFeedbackSurvey opens a closed survey or closes an open one.
func (s *EventService) ToggleFeedbackSurvey(ctx context.Context, id string) (*models.Event, error) {
	oid, err := parseID("event", id)
	if err != nil {
		return nil, err
	}
	event, err := s.events.ToggleFeedbackSurvey(ctx, oid)
	return event, notFound(err)
}

// ---------------- COMMENTS ----------------

// AddComment appends a comment and returns all comments of the event.
func (s *EventService) AddComment(ctx context.Context, id, user, text string) ([]models.Comment, error) {
	oid, err := parseID("event", id)
	if err != nil {
		return nil, err
	}
	userID, err := parseID("user", user)
	if err != nil {
		return nil, err
	}

	comments, err := s.events.PushComment(ctx, oid, models.Comment{
		ID:        primitive.NewObjectID(),
		User:      userID,
		Text:      text,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, notFound(err)
	}
	return comments, nil
}

// ListComments returns the event's comments with each author's name filled in.
// Authors that no longer exist are returned as a nil user.
func (s *EventService) ListComments(ctx context.Context, id string) ([]models.CommentView, error) {
	oid, err := parseID("event", id)
	if err != nil {
		return nil, err
	}
	event, err := s.events.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err)
	}

	views := make([]models.CommentView, 0, len(event.Comments))
	if len(event.Comments) == 0 {
		return views, nil
	}

	seen := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	for _, c := range event.Comments {
		if !seen[c.User] {
			seen[c.User] = true
			ids = append(ids, c.User)
		}
	}

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve comment authors: %w", err)
	}
	names := make(map[primitive.ObjectID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	for _, c := range event.Comments {
		view := models.CommentView{ID: c.ID, Text: c.Text, CreatedAt: c.CreatedAt}
		if name, ok := names[c.User]; ok {
			view.User = &models.CommentAuthor{ID: c.User, Name: name}
		}
		views = append(views, view)
	}
	return views, nil
}

// discard removes images whose event could not be saved.
func (s *EventService) discard(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}
	if err := utils.DiscardImages(context.WithoutCancel(ctx), s.uploader, urls); err != nil {
		s.log.Warn("failed to remove orphaned images", zap.Strings("images", urls), zap.Error(err))
	}
}

func parseID(field, value string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s id %q", ErrInvalidID, field, value)
	}
	return oid, nil
}

func notFound(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrEventNotFound
	}
	return err
}
