package handlers

import (
	"net/http"
	"time"

	"DF-PROPOSAL/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps carries everything the router wires into handlers. Archive may be nil.
type Deps struct {
	Templates    *services.TemplateService
	Documents    *services.DocumentService
	Clients      *services.ClientService
	Access       *services.AccessService
	Responses    *services.ResponseService
	Exports      *services.ExportService
	Archive      *services.ArchiveService
	ActivityLogs *services.ActivityLogService
	APIKeys      map[string]string
	AllowOrigins []string
	Gatherer     prometheus.Gatherer
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	corsConfig := cors.Config{
		AllowOrigins:  d.AllowOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(d.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	}
	r.Use(cors.New(corsConfig))
	if d.ActivityLogs != nil {
		r.Use(d.ActivityLogs.LoggingMiddleware())
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	public := NewPublicHandler(d.Access, d.Responses, d.Exports)
	pub := r.Group("/public/proposal/:token")
	{
		pub.GET("", public.View)
		pub.POST("/accept", public.Accept)
		pub.POST("/reject", public.Reject)
		pub.POST("/comment", public.Comment)
		pub.GET("/pdf", public.DownloadPDF)
	}

	templates := NewTemplateHandler(d.Templates)
	documents := NewDocumentHandler(d.Documents, d.Responses, d.Access, d.Exports, d.Archive)
	clients := NewClientHandler(d.Clients)

	v1 := r.Group("/api/v1")
	v1.Use(RequireAPIKey(d.APIKeys))
	{
		v1.GET("/placeholders", GetPlaceholders)

		v1.GET("/templates", templates.List)
		v1.POST("/templates", templates.Create)
		v1.GET("/templates/:id", templates.Get)
		v1.PUT("/templates/:id", templates.Update)
		v1.DELETE("/templates/:id", templates.Delete)
		v1.POST("/templates/:id/duplicate", templates.Duplicate)
		v1.POST("/templates/:id/sections", templates.AddSection)
		v1.PUT("/templates/:id/sections/:sectionId", templates.UpdateSection)
		v1.DELETE("/templates/:id/sections/:sectionId", templates.DeleteSection)

		v1.GET("/documents", documents.List)
		v1.POST("/documents", documents.Create)
		v1.GET("/documents/:id", documents.Get)
		v1.PUT("/documents/:id", documents.Update)
		v1.DELETE("/documents/:id", documents.Delete)
		v1.POST("/documents/:id/send", documents.Send)
		v1.GET("/documents/:id/preview", documents.Preview)
		v1.GET("/documents/:id/pdf", documents.DownloadPDF)
		v1.GET("/documents/:id/archive", documents.Archive)

		v1.POST("/documents/:id/sections", documents.AddSection)
		v1.PUT("/documents/:id/sections/order", documents.ReorderSections)
		v1.PUT("/documents/:id/sections/:sectionId", documents.UpdateSection)
		v1.DELETE("/documents/:id/sections/:sectionId", documents.DeleteSection)
		v1.POST("/documents/:id/sections/:sectionId/lock", documents.LockSection)

		v1.POST("/documents/:id/items", documents.AddItem)
		v1.PUT("/documents/:id/items/order", documents.ReorderItems)
		v1.PUT("/documents/:id/items/:itemId", documents.UpdateItem)
		v1.DELETE("/documents/:id/items/:itemId", documents.DeleteItem)

		v1.GET("/clients", clients.List)
		v1.POST("/clients", clients.Create)
		v1.GET("/clients/:id", clients.Get)
	}

	if d.ActivityLogs != nil {
		logs := NewLogsHandler(d.ActivityLogs)
		v1.GET("/logs", logs.GetAllLogs)
		v1.GET("/logs/stats", logs.GetLogStats)
	}

	return r
}
