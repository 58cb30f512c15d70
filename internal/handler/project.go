package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/tracker-service/internal/service"
)

// ProjectHandler - HTTP-контроллеры проектов.
type ProjectHandler struct {
	svc *service.ProjectService
}

// NewProjectHandler создаёт обработчик проектов.
func NewProjectHandler(svc *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

type createProjectRequest struct {
	ID          string            `json:"id"`
	PartnerID   string            `json:"partner_id"`
	Name        string            `json:"name" binding:"required"`
	Conventions map[string]string `json:"conventions"`
}

// Create обрабатывает POST /api/v1/projects.
func (h *ProjectHandler) Create(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	project, err := h.svc.Create(c.Request.Context(), service.CreateProjectInput{
		ID:          req.ID,
		PartnerID:   req.PartnerID,
		Name:        req.Name,
		Conventions: req.Conventions,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// Get обрабатывает GET /api/v1/projects/:id.
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}
