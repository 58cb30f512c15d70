package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/tracker-service/api"
	"github.com/psds-microservice/tracker-service/internal/handler"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// New собирает маршруты сервиса.
func New(
	ticketHandler *handler.TicketHandler,
	sprintHandler *handler.SprintHandler,
	projectHandler *handler.ProjectHandler,
) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", handler.Health)
	r.GET("/ready", handler.Ready)
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(http.StatusFound, "/swagger/") })
	r.GET("/swagger/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = "/swagger/index.html"
			c.Request.RequestURI = "/swagger/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/openapi.json"))(c)
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/tickets", ticketHandler.Create)
		v1.GET("/tickets", ticketHandler.List)
		v1.GET("/tickets/:id", ticketHandler.Get)
		v1.POST("/tickets/key-preview", ticketHandler.PreviewKey)
		v1.POST("/tickets/:id/time", ticketHandler.LogTime)
		v1.POST("/tickets/:id/sprint", sprintHandler.AssignTicket)

		v1.POST("/sprints", sprintHandler.Create)
		v1.PATCH("/sprints/:id", sprintHandler.Update)
		v1.POST("/sprints/:id/activate", sprintHandler.Activate)
		v1.POST("/sprints/:id/deactivate", sprintHandler.Deactivate)
		v1.POST("/sprints/backfill", sprintHandler.Backfill)

		v1.POST("/projects", projectHandler.Create)
		v1.GET("/projects/:id", projectHandler.Get)
	}

	return r
}
