package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/tracker-service/internal/service"
)

// SprintHandler - HTTP-контроллеры спринтов.
type SprintHandler struct {
	svc *service.SprintService
}

// NewSprintHandler создаёт обработчик спринтов.
func NewSprintHandler(svc *service.SprintService) *SprintHandler {
	return &SprintHandler{svc: svc}
}

type createSprintRequest struct {
	ProjectID  string    `json:"project_id" binding:"required"`
	SprintName string    `json:"sprint_name" binding:"required"`
	StartDate  time.Time `json:"start_date" binding:"required"`
	EndDate    time.Time `json:"end_date" binding:"required"`
}

// Create обрабатывает POST /api/v1/sprints.
func (h *SprintHandler) Create(c *gin.Context) {
	var req createSprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	sprint, err := h.svc.Create(c.Request.Context(), service.CreateSprintInput{
		ProjectID:  req.ProjectID,
		SprintName: req.SprintName,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sprint)
}

type updateSprintRequest struct {
	SprintName *string    `json:"sprint_name,omitempty"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}

// Update обрабатывает PATCH /api/v1/sprints/:id. Тело декодируется в raw
// map, чтобы отклонить попытки менять lifecycle-поля, которых в
// типизированном DTO нет, и лишь затем перегоняется в DTO.
func (h *SprintHandler) Update(c *gin.Context) {
	raw := make(map[string]any)
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	var req updateSprintRequest
	if err := bindRaw(raw, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	sprint, err := h.svc.Update(c.Request.Context(), c.Param("id"), service.UpdateSprintInput{
		SprintName: req.SprintName,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	}, raw)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sprint)
}

// Deactivate обрабатывает POST /api/v1/sprints/:id/deactivate.
func (h *SprintHandler) Deactivate(c *gin.Context) {
	sprint, err := h.svc.Deactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sprint)
}

// Activate обрабатывает POST /api/v1/sprints/:id/activate.
func (h *SprintHandler) Activate(c *gin.Context) {
	sprint, err := h.svc.Activate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sprint)
}

type assignSprintRequest struct {
	SprintID string `json:"sprint_id" binding:"required"`
}

// AssignTicket обрабатывает POST /api/v1/tickets/:id/sprint.
func (h *SprintHandler) AssignTicket(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req assignSprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	ticket, err := h.svc.AssignTicket(c.Request.Context(), id, req.SprintID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// Backfill обрабатывает POST /api/v1/sprints/backfill: bulk-назначение
// тикетов без спринта.
func (h *SprintHandler) Backfill(c *gin.Context) {
	report, err := h.svc.Backfill(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// bindRaw перегоняет raw map в типизированный DTO через JSON-раунд.
func bindRaw(raw map[string]any, dst any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
