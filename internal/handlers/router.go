package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"petidocs/internal/config"
	"petidocs/internal/services"
)

// Deps bundles everything route registration needs. Configuration comes in
// explicitly here instead of living in mutable package state.
type Deps struct {
	Templates *TemplateHandler
	Forms     *FormHandler
	Status    *StatusHandler
	Records   *RecordHandler
	Logs      *LogsHandler
	Activity  *services.ActivityLogService
}

// RegisterRoutes wires the API onto the engine.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps) {
	r.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
	}))
	if deps.Activity != nil {
		r.Use(deps.Activity.LoggingMiddleware())
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/templates", deps.Templates.List)
		v1.POST("/templates", deps.Templates.Create)
		v1.GET("/templates/:templateId", deps.Templates.Get)
		v1.GET("/templates/:templateId/placeholders", deps.Templates.GetPlaceholders)
		v1.POST("/templates/:templateId/sync", deps.Templates.Sync)
		v1.POST("/templates/:templateId/forms", deps.Templates.CreateForm)

		v1.GET("/forms/:slug", deps.Forms.GetForm)
		v1.POST("/forms/:slug", deps.Forms.SubmitForm)

		v1.GET("/task-status/:taskId", deps.Status.TaskStatus)

		v1.GET("/records", deps.Records.List)
		v1.GET("/records/:recordId", deps.Records.Get)
		v1.GET("/records/:recordId/archive-url", deps.Records.ArchiveURL)

		v1.GET("/logs", deps.Logs.GetLogs)
	}
}
