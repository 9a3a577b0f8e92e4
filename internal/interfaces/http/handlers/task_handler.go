package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"recovery-kita.backend/internal/domain/entities"
	"recovery-kita.backend/internal/interfaces/http/middleware"
	"recovery-kita.backend/internal/interfaces/http/response"
	"recovery-kita.backend/internal/usecases"
)

const taskListLimit = 100

// TaskHandler serves the merchant-scoped task endpoints
type TaskHandler struct {
	taskUsecase *usecases.TaskUsecase
}

func NewTaskHandler(taskUsecase *usecases.TaskUsecase) *TaskHandler {
	return &TaskHandler{taskUsecase: taskUsecase}
}

func taskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return 0, false
	}
	return id, true
}

// CreateTask handles POST /tasks (quota-gated, type whitelist)
func (h *TaskHandler) CreateTask(c *gin.Context) {
	merchant, ok := middleware.GetMerchant(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "merchant not resolved"})
		return
	}

	var input entities.CreateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskUsecase.Create(c.Request.Context(), merchant, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, task)
}

// ListTasks handles GET /tasks?status=
func (h *TaskHandler) ListTasks(c *gin.Context) {
	merchant, ok := middleware.GetMerchant(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "merchant not resolved"})
		return
	}

	status := entities.TaskStatus(c.Query("status"))
	tasks, err := h.taskUsecase.List(c.Request.Context(), merchant, status, taskListLimit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tasks": tasks})
}

// GetTask handles GET /tasks/:id (ownership-checked)
func (h *TaskHandler) GetTask(c *gin.Context) {
	merchant, ok := middleware.GetMerchant(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "merchant not resolved"})
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.taskUsecase.Get(c.Request.Context(), merchant, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, task)
}

// RetryTask handles POST /tasks/:id/retry
func (h *TaskHandler) RetryTask(c *gin.Context) {
	merchant, ok := middleware.GetMerchant(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "merchant not resolved"})
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.taskUsecase.Retry(c.Request.Context(), merchant, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, task)
}

// DeleteTask handles DELETE /tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	merchant, ok := middleware.GetMerchant(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "merchant not resolved"})
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	if err := h.taskUsecase.Delete(c.Request.Context(), merchant, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// DeleteCompleted handles DELETE /tasks/completed
func (h *TaskHandler) DeleteCompleted(c *gin.Context) {
	merchant, ok := middleware.GetMerchant(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "merchant not resolved"})
		return
	}

	count, err := h.taskUsecase.DeleteCompleted(c.Request.Context(), merchant)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": count})
}
