package routes

import (
	"github.com/gin-gonic/gin"
	config "github.com/phillip/campus-events-go/config"
	controllers "github.com/phillip/campus-events-go/controllers"
	middleware "github.com/phillip/campus-events-go/middleware"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config, svc controllers.EventService) {
	controllers.RegisterValidators()

	r.GET("/health", controllers.Health(cfg))

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.OptionalAuth(cfg.JWTSecret))

	// Events
	events := api.Group("/events")
	{
		events.GET("", controllers.ListEvents(cfg, svc))
		events.GET("/", controllers.ListEvents(cfg, svc))
		events.GET("/events", controllers.ListEventsSorted(cfg, svc))
		events.GET("/adminevents", controllers.ListAdminEvents(cfg, svc))
		events.GET("/event/events", controllers.ListCalendarEvents(cfg, svc))
		events.GET("/:id", controllers.GetEvent(cfg, svc))
		events.GET("/:id/comments", controllers.ListComments(cfg, svc))

		events.POST("/create", controllers.CreateEvent(cfg, svc))
		events.POST("/feedback", controllers.SubmitRating(cfg, svc))
		events.POST("/:id/feedback", controllers.AddEventFeedback(cfg, svc))
		events.POST("/:id/comments", controllers.AddComment(cfg, svc))

		events.PUT("/toggle-feedback-survey/:id", controllers.ToggleFeedbackSurvey(cfg, svc))
		events.PUT("/:id", controllers.UpdateEvent(cfg, svc))

		events.DELETE("/:id", controllers.DeleteEvent(cfg, svc))
	}
}
