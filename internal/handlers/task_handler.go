package handlers

import (
	"context"
	"net/http"

	"taskmarket_backend/internal/models"
	"taskmarket_backend/internal/services"
	"taskmarket_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	*BaseHandler
	taskService services.TaskService
}

func NewTaskHandler(base *BaseHandler, taskService services.TaskService) *TaskHandler {
	return &TaskHandler{
		BaseHandler: base,
		taskService: taskService,
	}
}

func (h *TaskHandler) RegisterRoutes(public, protected, admin *gin.RouterGroup) {
	public.GET("/tasks", h.List)
	public.GET("/tasks/:id", h.Get)

	protected.POST("/tasks", h.Create)
	protected.GET("/tasks/mine", h.ListMine)
	protected.GET("/tasks/assigned", h.ListAssigned)
	protected.PATCH("/tasks/:id", h.Update)
	protected.POST("/tasks/:id/submit-review", h.SubmitForReview)
	protected.POST("/tasks/:id/assign", h.Assign)
	protected.POST("/tasks/:id/start", h.Start)
	protected.POST("/tasks/:id/submit", h.SubmitWork)
	protected.POST("/tasks/:id/approve", h.Approve)
	protected.POST("/tasks/:id/dispute", h.Dispute)
	protected.POST("/tasks/:id/cancel", h.Cancel)

	admin.GET("/tasks/queue", h.ListQueue)
	admin.GET("/tasks/:id/audit", h.AuditTrail)
	admin.POST("/tasks/:id/moderate", h.Moderate)
	admin.POST("/tasks/:id/resolve", h.Resolve)
}

func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewTaskResponse(task))
}

func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.taskService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTaskResponse(task))
}

func (h *TaskHandler) List(c *gin.Context) {
	var req dto.TaskFilterRequest
	if !h.BindAndValidateQuery(c, &req) {
		return
	}

	tasks, err := h.taskService.List(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

func (h *TaskHandler) ListMine(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListByRequester(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

func (h *TaskHandler) ListAssigned(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListByDoer(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTaskResponse(task))
}

func (h *TaskHandler) SubmitForReview(c *gin.Context) {
	h.lifecycle(c, h.taskService.SubmitForReview)
}

func (h *TaskHandler) Assign(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.AssignDoerRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	task, err := h.taskService.Assign(c.Request.Context(), userID, c.Param("id"), req.ApplicationID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTaskResponse(task))
}

func (h *TaskHandler) Start(c *gin.Context) {
	h.lifecycle(c, h.taskService.Start)
}

func (h *TaskHandler) SubmitWork(c *gin.Context) {
	h.lifecycle(c, h.taskService.SubmitWork)
}

func (h *TaskHandler) Approve(c *gin.Context) {
	h.lifecycle(c, h.taskService.Approve)
}

func (h *TaskHandler) Dispute(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.DisputeTaskRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	task, err := h.taskService.Dispute(c.Request.Context(), userID, c.Param("id"), req.Reason)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTaskResponse(task))
}

func (h *TaskHandler) Cancel(c *gin.Context) {
	h.lifecycle(c, h.taskService.Cancel)
}

func (h *TaskHandler) ListQueue(c *gin.Context) {
	limit, offset := ParsePagination(c)
	status := models.ParseTaskStatus(c.DefaultQuery("status", string(models.TaskStatusPendingReview)))

	tasks, err := h.taskService.ListQueue(c.Request.Context(), status, limit, offset)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

func (h *TaskHandler) AuditTrail(c *gin.Context) {
	entries, moderation, err := h.taskService.AuditTrail(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"audit": entries, "moderation": moderation})
}

func (h *TaskHandler) Moderate(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.ModerateTaskRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	task, err := h.taskService.Moderate(c.Request.Context(), adminID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTaskResponse(task))
}

func (h *TaskHandler) Resolve(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.ResolveDisputeRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	task, err := h.taskService.Resolve(c.Request.Context(), adminID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTaskResponse(task))
}

// lifecycle covers the transitions that take nothing but the actor and
// the task: submit-review, start, submit, approve, cancel.
func (h *TaskHandler) lifecycle(c *gin.Context, op func(ctx context.Context, actorID, taskID string) (*models.Task, error)) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	task, err := op(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTaskResponse(task))
}
