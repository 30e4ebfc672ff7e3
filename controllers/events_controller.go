package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	config "github.com/phillip/campus-events-go/config"
	middleware "github.com/phillip/campus-events-go/middleware"
	models "github.com/phillip/campus-events-go/models"
	services "github.com/phillip/campus-events-go/services"
	utils "github.com/phillip/campus-events-go/utils"
)

type EventService interface {
	ListEvents(ctx context.Context, typeID string) ([]models.Event, error)
	ListEventsSorted(ctx context.Context) ([]models.Event, error)
	ListAdminEvents(ctx context.Context) ([]models.Event, error)
	ListCalendarEvents(ctx context.Context) ([]models.CalendarEvent, error)
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	CreateEvent(ctx context.Context, in services.EventFields, files [][]byte) (*models.Event, error)
	UpdateEvent(ctx context.Context, id string, in services.EventFields, existingImages []string, files [][]byte) (*models.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	AddEventFeedback(ctx context.Context, id, user, comment string) (*models.Event, error)
	SubmitRating(ctx context.Context, in services.RatingInput) (*models.Rating, error)
	ToggleFeedbackSurvey(ctx context.Context, id string) (*models.Event, error)
	AddComment(ctx context.Context, id, user, text string) ([]models.Comment, error)
	ListComments(ctx context.Context, id string) ([]models.CommentView, error)
}

var (
	errInvalidForm   = errors.New("invalid form data")
	errTooManyImages = errors.New("too many images")
)

// eventForm is the multipart body of update.
type eventForm struct {
	Name         string `form:"name" binding:"required"`
	Description  string `form:"description" binding:"required"`
	Type         string `form:"type" binding:"required,objectid"`
	Organization string `form:"organization"`
	Department   string `form:"department"`
	DateStart    string `form:"dateStart" binding:"required"`
	DateEnd      string `form:"dateEnd" binding:"required"`
	Location     string `form:"location" binding:"required"`
	UserID       string `form:"userId" binding:"omitempty,objectid"`
}

// createEventForm is eventForm with organization and department required.
type createEventForm struct {
	Name         string `form:"name" binding:"required"`
	Description  string `form:"description" binding:"required"`
	Type         string `form:"type" binding:"required,objectid"`
	Organization string `form:"organization" binding:"required"`
	Department   string `form:"department" binding:"required"`
	DateStart    string `form:"dateStart" binding:"required"`
	DateEnd      string `form:"dateEnd" binding:"required"`
	Location     string `form:"location" binding:"required"`
	UserID       string `form:"userId" binding:"omitempty,objectid"`
}

// ---------------- LIST ----------------
func ListEvents(cfg *config.Config, svc EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := svc.ListEvents(c.Request.Context(), c.Query("type"))
		if err != nil {
			if errors.Is(err, services.ErrInvalidID) {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
				return
			}
			requestLogger(c, cfg).Error("list events failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}

		if len(events) == 0 {
			c.String(http.StatusOK, "no events found")
			return
		}
		c.JSON(http.StatusOK, events)
	}
}

// ListEventsSorted serves the web dashboard, newest start date first.
func ListEventsSorted(cfg *config.Config, svc EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := svc.ListEventsSorted(c.Request.Context())
		if err != nil {
			requestLogger(c, cfg).Error("list sorted events failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Server Error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"count":   len(events),
			"data":    events,
		})
	}
}

func ListAdminEvents(cfg *config.Config, svc EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := svc.ListAdminEvents(c.Request.Context())
		if err != nil {
			requestLogger(c, cfg).Error("list admin events failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, events)
	}
}

func ListCalendarEvents(cfg *config.Config, svc EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := svc.ListCalendarEvents(c.Request.Context())
		if err != nil {
			requestLogger(c, cfg).Error("list calendar events failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
			return
		}
		c.JSON(http.StatusOK, events)
	}
}

// ---------------- GET ----------------
func GetEvent(cfg *config.Config, svc EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		event, err := svc.GetEvent(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, cfg, err, "could not fetch event")
			return
		}
		c.JSON(http.StatusOK, event)
	}
}

// ---------------- CREATE ----------------
func CreateEvent(cfg *config.Config, svc EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// --- Images first: nothing else matters without them ---
		files, err := readImages(c, cfg.MaxUploadFiles)
		if err != nil {
			respondFormError(c, cfg, err)
			return
		}
		if len(files) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No images uploaded in the request"})
			return
		}

		in, ok := bindEventForm(c, true)
		if !ok {
			return
		}

		event, err := svc.CreateEvent(c.Request.Context(), in, files)
		if err != nil {
			respondError(c, cfg, err, "Error processing the event")
			return
		}

		c.JSON(http.StatusCreated, event)
	}
}

// ---------------- UPDATE ----------------
func UpdateEvent(cfg *config.Config, svc EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		files, err := readImages(c, cfg.MaxUploadFiles)
		if err != nil {
			respondFormError(c, cfg, err)
			return
		}

		in, ok := bindEventForm(c, false)
		if !ok {
			return
		}

		// existingImages arrives as one value or repeated; both keep their order
		var existing []string
		for _, key := range []string{"existingImages", "existingImages[]"} {
			for _, url := range c.PostFormArray(key) {
				if strings.TrimSpace(url) != "" {
					existing = append(existing, url)
				}
			}
		}

		updated, err := svc.UpdateEvent(c.Request.Context(), c.Param("id"), in, existing, files)
		if err != nil {
			if errors.Is(err, services.ErrUpdateTarget) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Event!"})
				return
			}
			respondError(c, cfg, err, "Error updating event")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":      "Event updated successfully",
			"updatedEvent": updated,
		})
	}
}

// ---------------- DELETE ----------------
func DeleteEvent(cfg *config.Config, svc EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := svc.DeleteEvent(c.Request.Context(), c.Param("id"))
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"success": true, "message": "the event is deleted!"})
		case errors.Is(err, services.ErrInvalidID):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		case errors.Is(err, services.ErrEventNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "event not found!"})
		default:
			requestLogger(c, cfg).Error("delete event failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		}
	}
}

// ---------------- FEEDBACK ----------------
func AddEventFeedback(cfg *config.Config, svc EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			User    string `json:"user" form:"user"`
			Comment string `json:"comment" form:"comment"`
		}
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		event, err := svc.AddEventFeedback(c.Request.Context(), c.Param("id"), callerOr(c, input.User), input.Comment)
		if err != nil {
			respondError(c, cfg, err, "could not save feedback")
			return
		}
		c.JSON(http.StatusOK, event)
	}
}

// SubmitRating stores feedback that is not attached to an event document.
func SubmitRating(cfg *config.Config, svc EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			UserID    string   `json:"userId" form:"userId"`
			EventName string   `json:"eventName" form:"eventName" binding:"required"`
			Feedback  string   `json:"feedback" form:"feedback"`
			Rating    *float64 `json:"rating" form:"rating" binding:"required"`
		}
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		rating, err := svc.SubmitRating(c.Request.Context(), services.RatingInput{
			UserID:    callerOr(c, input.UserID),
			EventName: input.EventName,
			Feedback:  input.Feedback,
			Rating:    *input.Rating,
		})
		if err != nil {
			respondError(c, cfg, err, "Server error")
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "Feedback submitted successfully!",
			"rating":  rating,
		})
	}
}

func ToggleFeedbackSurvey(cfg *config.Config, svc EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		event, err := svc.ToggleFeedbackSurvey(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, cfg, err, "Server error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Feedback & survey status updated", "event": event})
	}
}

// ---------------- COMMENTS ----------------
func AddComment(cfg *config.Config, svc EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			UserID string `json:"userId" form:"userId"`
			Text   string `json:"text" form:"text"`
		}
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		comments, err := svc.AddComment(c.Request.Context(), c.Param("id"), callerOr(c, input.UserID), input.Text)
		if err != nil {
			if errors.Is(err, services.ErrInvalidID) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Event or User ID"})
				return
			}
			respondError(c, cfg, err, "Error posting comment")
			return
		}

		c.JSON(http.StatusCreated, gin.H{"message": "Comment added successfully", "comments": comments})
	}
}

func ListComments(cfg *config.Config, svc EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		comments, err := svc.ListComments(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, cfg, err, "Error retrieving comments")
			return
		}
		c.JSON(http.StatusOK, comments)
	}
}

// ---------------- HELPERS ----------------

// bindEventForm writes a 400 and returns false when the form is incomplete.
func bindEventForm(c *gin.Context, create bool) (services.EventFields, bool) {
	var form eventForm
	var err error
	if create {
		var cf createEventForm
		err = c.ShouldBind(&cf)
		form = eventForm(cf)
	} else {
		err = c.ShouldBind(&form)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return services.EventFields{}, false
	}

	start, err := utils.ParseDate(form.DateStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dateStart: " + err.Error()})
		return services.EventFields{}, false
	}
	end, err := utils.ParseDate(form.DateEnd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dateEnd: " + err.Error()})
		return services.EventFields{}, false
	}

	return services.EventFields{
		Name:         form.Name,
		Description:  form.Description,
		Type:         form.Type,
		Organization: form.Organization,
		Department:   form.Department,
		DateStart:    start,
		DateEnd:      end,
		Location:     form.Location,
		UserID:       callerOr(c, form.UserID),
	}, true
}

// readImages loads the "images" parts into memory, in submission order.
func readImages(c *gin.Context, limit int) ([][]byte, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, errInvalidForm
	}

	headers := form.File["images"] // key must be "images"
	if len(headers) > limit {
		return nil, errTooManyImages
	}

	files := make([][]byte, 0, len(headers))
	for _, fileHeader := range headers {
		file, err := fileHeader.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, err
		}
		files = append(files, data)
	}
	return files, nil
}

// callerOr prefers an explicit id and falls back to the authenticated user.
func callerOr(c *gin.Context, id string) string {
	if id != "" {
		return id
	}
	return c.GetString("user_id")
}

func requestLogger(c *gin.Context, cfg *config.Config) *zap.Logger {
	return cfg.Logger.With(zap.String("request_id", middleware.GetRequestID(c)))
}

func respondFormError(c *gin.Context, cfg *config.Config, err error) {
	switch {
	case errors.Is(err, errInvalidForm):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})
	case errors.Is(err, errTooManyImages):
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many images", "max": cfg.MaxUploadFiles})
	default:
		requestLogger(c, cfg).Error("failed to read uploaded file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open file"})
	}
}

func respondError(c *gin.Context, cfg *config.Config, err error, message string) {
	switch {
	case errors.Is(err, services.ErrInvalidID), errors.Is(err, services.ErrNoImages):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrEventNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Event not found"})
	default:
		requestLogger(c, cfg).Error(message, zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": message, "details": err.Error()})
	}
}
