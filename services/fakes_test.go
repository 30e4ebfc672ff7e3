package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/campus-events-go/models"
	repositories "github.com/phillip/campus-events-go/repositories"
)

// memoryEvents is an in-memory EventStore.
type memoryEvents struct {
	mu        sync.Mutex
	events    map[primitive.ObjectID]models.Event
	inserts   int
	insertErr error
	updateErr error
}

func newMemoryEvents() *memoryEvents {
	return &memoryEvents{events: make(map[primitive.ObjectID]models.Event)}
}

func (m *memoryEvents) put(e models.Event) models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	m.events[e.ID] = e
	return e
}

func (m *memoryEvents) all() []models.Event {
	out := make([]models.Event, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out
}

func (m *memoryEvents) Find(_ context.Context, typeID *primitive.ObjectID) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Event{}
	for _, e := range m.all() {
		if typeID == nil || e.Type == *typeID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryEvents) FindSortedByStart(_ context.Context) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.all()
	sort.SliceStable(out, func(i, j int) bool { return out[i].DateStart.After(out[j].DateStart) })
	return out, nil
}

func (m *memoryEvents) FindByOwners(_ context.Context, userIDs []primitive.ObjectID) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owners := make(map[primitive.ObjectID]bool)
	for _, id := range userIDs {
		owners[id] = true
	}
	out := []models.Event{}
	for _, e := range m.all() {
		if owners[e.UserID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryEvents) FindCalendar(_ context.Context) ([]models.CalendarEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.CalendarEvent{}
	for _, e := range m.all() {
		out = append(out, models.CalendarEvent{ID: e.ID, Name: e.Name, DateStart: e.DateStart, DateEnd: e.DateEnd})
	}
	return out, nil
}

func (m *memoryEvents) FindByID(_ context.Context, id primitive.ObjectID) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &e, nil
}

func (m *memoryEvents) Insert(_ context.Context, event *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserts++
	m.events[event.ID] = *event
	return nil
}

func (m *memoryEvents) Update(_ context.Context, id primitive.ObjectID, set bson.M) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	e, ok := m.events[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	for k, v := range set {
		switch k {
		case "name":
			e.Name = v.(string)
		case "description":
			e.Description = v.(string)
		case "type":
			e.Type = v.(primitive.ObjectID)
		case "organization":
			e.Organization = v.(string)
		case "department":
			e.Department = v.(string)
		case "dateStart":
			e.DateStart = v.(time.Time)
		case "dateEnd":
			e.DateEnd = v.(time.Time)
		case "location":
			e.Location = v.(string)
		case "images":
			e.Images = append([]string(nil), v.([]string)...)
		case "userId":
			e.UserID = v.(primitive.ObjectID)
		default:
			return nil, fmt.Errorf("unexpected field %q", k)
		}
	}
	m.events[id] = e
	return &e, nil
}

func (m *memoryEvents) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *memoryEvents) PushFeedback(_ context.Context, id primitive.ObjectID, feedback models.Feedback) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	e.Feedback = append(e.Feedback, feedback)
	m.events[id] = e
	return &e, nil
}

func (m *memoryEvents) PushComment(_ context.Context, id primitive.ObjectID, comment models.Comment) ([]models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	e.Comments = append(e.Comments, comment)
	m.events[id] = e
	return e.Comments, nil
}

func (m *memoryEvents) ToggleFeedbackSurvey(_ context.Context, id primitive.ObjectID) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	e.IsFeedbackSurveyOpen = !e.IsFeedbackSurveyOpen
	m.events[id] = e
	return &e, nil
}

type memoryUsers struct {
	users []models.User
	err   error
}

func (m *memoryUsers) AdminIDs(_ context.Context) ([]primitive.ObjectID, error) {
	if m.err != nil {
		return nil, m.err
	}
	var ids []primitive.ObjectID
	for _, u := range m.users {
		if u.IsAdmin {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

func (m *memoryUsers) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.User
	for _, u := range m.users {
		for _, id := range ids {
			if u.ID == id {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

type memoryRatings struct {
	saved []models.Rating
}

func (m *memoryRatings) Insert(_ context.Context, rating *models.Rating) error {
	m.saved = append(m.saved, *rating)
	return nil
}

// fakeUploader turns file contents into a URL. Earlier files finish later so
// that completion order differs from submission order.
type fakeUploader struct {
	mu        sync.Mutex
	failOn    string
	uploads   int
	destroyed []string
}

var errUploadRejected = errors.New("upload rejected")

func (f *fakeUploader) Upload(ctx context.Context, file io.Reader) (string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	name := string(data)
	if name == f.failOn {
		return "", errUploadRejected
	}

	delay := time.Duration(0)
	if len(name) > 0 {
		delay = time.Duration(10-int(name[len(name)-1]-'0')) * time.Millisecond
	}
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	f.mu.Lock()
	f.uploads++
	f.mu.Unlock()
	return "https://img.example/" + name, nil
}

func (f *fakeUploader) Destroy(_ context.Context, imageURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, imageURL)
	return nil
}

func files(names ...string) [][]byte {
	out := make([][]byte, len(names))
	for i, n := range names {
		out[i] = []byte(n)
	}
	return out
}
