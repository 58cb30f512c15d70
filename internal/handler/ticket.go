package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/tracker-service/internal/access"
	"github.com/psds-microservice/tracker-service/internal/service"
)

// TicketHandler - HTTP-контроллеры тикетов.
type TicketHandler struct {
	svc *service.TicketService
}

// NewTicketHandler создаёт обработчик тикетов.
func NewTicketHandler(svc *service.TicketService) *TicketHandler {
	return &TicketHandler{svc: svc}
}

type createTicketRequest struct {
	ProjectID   string   `json:"project_id"`
	Type        string   `json:"type" binding:"required"`
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Priority    []string `json:"priority"`
	Assignee    string   `json:"assignee"`
	Reporter    string   `json:"reporter"`
}

// Create обрабатывает POST /api/v1/tickets.
func (h *TicketHandler) Create(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	ticket, err := h.svc.Create(c.Request.Context(), callerID(c), service.CreateTicketInput{
		ProjectID:   req.ProjectID,
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Assignee:    req.Assignee,
		Reporter:    req.Reporter,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

// Get обрабатывает GET /api/v1/tickets/:id.
func (h *TicketHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	ticket, err := h.svc.Get(c.Request.Context(), callerID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// List обрабатывает GET /api/v1/tickets с access-scoped фильтрами.
func (h *TicketHandler) List(c *gin.Context) {
	f := access.Filters{
		ProjectID: c.Query("project_id"),
		PartnerID: c.Query("partner_id"),
		Status:    c.Query("status"),
		Priority:  c.Query("priority"),
		Assignee:  c.Query("assignee"),
		Reporter:  c.Query("reporter"),
	}
	if v := c.Query("page"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			f.Page = parsed
		}
	}
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			f.Limit = parsed
		}
	}

	items, total, err := h.svc.List(c.Request.Context(), callerID(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tickets": items,
		"total":   total,
	})
}

type previewKeyRequest struct {
	ProjectID string `json:"project_id"`
	Type      string `json:"type" binding:"required"`
	Title     string `json:"title"`
}

// PreviewKey обрабатывает POST /api/v1/tickets/key-preview: предсказывает
// следующий ключ без аллокации.
func (h *TicketHandler) PreviewKey(c *gin.Context) {
	var req previewKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	key, err := h.svc.PreviewNextKey(c.Request.Context(), req.ProjectID, req.Type, req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket_key": key})
}

type logTimeRequest struct {
	Minutes int    `json:"minutes" binding:"required"`
	Note    string `json:"note"`
}

// LogTime обрабатывает POST /api/v1/tickets/:id/time.
func (h *TicketHandler) LogTime(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req logTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	ticket, err := h.svc.LogTime(c.Request.Context(), callerID(c), id, req.Minutes, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}
