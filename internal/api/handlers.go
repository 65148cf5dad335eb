package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leanvibe/leanvibe-ai/internal/approval"
	"github.com/leanvibe/leanvibe-ai/internal/messages"
	"github.com/leanvibe/leanvibe-ai/internal/models"
	"github.com/leanvibe/leanvibe-ai/internal/taskstore"
	"go.uber.org/zap"
)

// Handler serves the REST surface.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates the REST handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register attaches all routes to the router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/voice/command", h.processCommand)

	rg.GET("/tasks", h.listTasks)
	rg.POST("/tasks", h.createTask)
	rg.GET("/tasks/:id", h.getTask)
	rg.PUT("/tasks/:id", h.updateTask)
	rg.DELETE("/tasks/:id", h.deleteTask)
	rg.POST("/tasks/:id/move", h.moveTask)
	rg.POST("/tasks/:id/propose", h.proposeDecision)

	rg.GET("/decisions", h.listDecisions)
	rg.GET("/decisions/:id", h.getDecision)
	rg.POST("/decisions/:id/approve", h.approveDecision)
	rg.POST("/decisions/:id/reject", h.rejectDecision)
	rg.POST("/decisions/:id/modify", h.modifyDecision)
}

func (h *Handler) processCommand(c *gin.Context) {
	var req struct {
		Text     string `json:"text" binding:"required"`
		ClientID string `json:"client_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.service.ProcessCommand(req.Text, req.ClientID))
}

func (h *Handler) listTasks(c *gin.Context) {
	status := models.TaskStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status filter"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": h.service.Tasks().List(status)})
}

func (h *Handler) createTask(c *gin.Context) {
	var msg messages.CreateTask
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg.Type = messages.TypeCreateTask
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	task, err := h.service.CreateTask(msg)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *Handler) getTask(c *gin.Context) {
	task, err := h.service.Tasks().Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) updateTask(c *gin.Context) {
	var req struct {
		Task            models.Task        `json:"task" binding:"required"`
		ExpectedVersion int64              `json:"expected_version"`
		ClientID        string             `json:"client_id"`
		Strategy        taskstore.Strategy `json:"strategy"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Task.ID = c.Param("id")
	task, err := h.service.UpdateTask(req.Task, req.ExpectedVersion, req.ClientID, req.Strategy)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) deleteTask(c *gin.Context) {
	if err := h.service.Tasks().Delete(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) moveTask(c *gin.Context) {
	var req struct {
		Status          models.TaskStatus `json:"status" binding:"required"`
		ExpectedVersion int64             `json:"expected_version"`
		ClientID        string            `json:"client_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task, err := h.service.MoveTask(c.Param("id"), req.Status, req.ExpectedVersion, req.ClientID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) proposeDecision(c *gin.Context) {
	var req struct {
		ClientID string `json:"client_id"`
	}
	_ = c.ShouldBindJSON(&req)
	decision, err := h.service.Propose(c.Request.Context(), c.Param("id"), req.ClientID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, decision)
}

func (h *Handler) listDecisions(c *gin.Context) {
	status := models.ApprovalStatus(c.Query("status"))
	c.JSON(http.StatusOK, gin.H{"decisions": h.service.Decisions().List(status)})
}

func (h *Handler) getDecision(c *gin.Context) {
	decision, err := h.service.Decisions().Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, decision)
}

type reviewRequest struct {
	Feedback string `json:"feedback"`
	ClientID string `json:"client_id"`
}

func (h *Handler) approveDecision(c *gin.Context) {
	var req reviewRequest
	_ = c.ShouldBindJSON(&req)
	decision, err := h.service.ApproveDecision(c.Param("id"), req.Feedback, req.ClientID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, decision)
}

func (h *Handler) rejectDecision(c *gin.Context) {
	var req reviewRequest
	_ = c.ShouldBindJSON(&req)
	decision, err := h.service.RejectDecision(c.Param("id"), req.Feedback, req.ClientID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, decision)
}

func (h *Handler) modifyDecision(c *gin.Context) {
	var req struct {
		Recommendation   string                   `json:"recommendation"`
		SuggestedActions []models.SuggestedAction `json:"suggested_actions"`
		Feedback         string                   `json:"feedback"`
		ClientID         string                   `json:"client_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	decision, err := h.service.ModifyDecision(c.Param("id"), req.Recommendation, req.SuggestedActions, req.Feedback, req.ClientID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, decision)
}

// statusForError maps core errors onto HTTP statuses: conflicts surface as
// 409 so clients re-read and retry, unknown ids as 404, everything else as
// 400.
func statusForError(err error) int {
	switch {
	case errors.Is(err, taskstore.ErrVersionConflict), errors.Is(err, approval.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, taskstore.ErrTaskNotFound), errors.Is(err, approval.ErrDecisionNotFound):
		return http.StatusNotFound
	case errors.Is(err, approval.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}
