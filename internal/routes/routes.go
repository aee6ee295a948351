package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studyplan/internal/authz"
	"studyplan/internal/handlers"
	"studyplan/internal/middleware"
)

type Handlers struct {
	Session       *handlers.SessionHandler
	Tasks         *handlers.TaskHandler
	Exams         *handlers.ExamHandler
	Exports       *handlers.ExportHandler
	Notifications *handlers.NotificationHandler
	Integrations  *handlers.IntegrationsHandler
}

func SetupRoutes(r *gin.Engine, jwtSecret []byte, h Handlers) *gin.Engine {
	// ---- public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ---- protected
	api := r.Group("/")
	api.Use(middleware.AuthMiddleware(jwtSecret))
	api.Use(middleware.ReadOnlyGuard())

	api.POST("/session", h.Session.Open)
	api.GET("/session", h.Session.Get)
	api.DELETE("/session", h.Session.Close)

	tasks := api.Group("/tasks")
	{
		tasks.GET("", h.Tasks.List)
		tasks.GET("/subjects", h.Tasks.Subjects)
		tasks.POST("", h.Tasks.Create)
		tasks.POST("/bulk-status", h.Tasks.BulkStatus)
		tasks.PUT("/:id", h.Tasks.Update)
		tasks.DELETE("/:id", h.Tasks.Delete)
		tasks.POST("/:id/complete", h.Tasks.Complete)
	}

	exams := api.Group("/exams")
	{
		exams.GET("", h.Exams.List)
		exams.GET("/next", h.Exams.Next)
		exams.POST("", h.Exams.Create)
		exams.POST("/calendar-sync", middleware.RequireRoles(authz.RoleStudent), h.Exams.CalendarSync)
		exams.PUT("/:id", h.Exams.Update)
		exams.DELETE("/:id", h.Exams.Delete)
	}

	// exports only read the collections, so POST bodies are fine for viewers
	exports := r.Group("/exports")
	exports.Use(middleware.AuthMiddleware(jwtSecret))
	{
		exports.GET("/tasks.csv", h.Exports.TasksCSV)
		exports.GET("/exams.csv", h.Exports.ExamsCSV)
		exports.POST("/schedule.csv", h.Exports.ScheduleCSV)
		exports.POST("/study-plan.csv", h.Exports.StudyPlanCSV)
		exports.POST("/schedule.pdf", h.Exports.SchedulePDF)
		exports.POST("/email", h.Exports.Email)
	}

	api.GET("/notifications/stream", h.Notifications.Stream)
	if h.Integrations != nil {
		api.POST("/integrations/telegram/link", middleware.RequireRoles(authz.RoleStudent), h.Integrations.RequestTelegramLink)
	}
	return r
}
