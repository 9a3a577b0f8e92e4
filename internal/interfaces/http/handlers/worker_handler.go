package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"recovery-kita.backend/internal/domain/entities"
	"recovery-kita.backend/internal/domain/repositories"
	"recovery-kita.backend/internal/interfaces/http/response"
)

// WorkerHandler exposes the queue to out-of-process workers behind the
// worker secret. It operates on arbitrary tasks, not merchant-scoped ones.
type WorkerHandler struct {
	taskRepo repositories.TaskRepository
}

func NewWorkerHandler(taskRepo repositories.TaskRepository) *WorkerHandler {
	return &WorkerHandler{taskRepo: taskRepo}
}

// ClaimTask handles POST /worker/claim
func (h *WorkerHandler) ClaimTask(c *gin.Context) {
	task, err := h.taskRepo.ClaimNext(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if task == nil {
		response.Success(c, http.StatusOK, gin.H{"task": nil})
		return
	}
	response.Success(c, http.StatusOK, gin.H{"task": task})
}

// CompleteTask handles POST /worker/complete/:id
func (h *WorkerHandler) CompleteTask(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	var input struct {
		Outcome string `json:"outcome"`
	}
	_ = c.ShouldBindJSON(&input)

	status := entities.TaskStatusCompleted
	if input.Outcome == "failed" {
		status = entities.TaskStatusFailed
	}

	if err := h.taskRepo.UpdateStatus(c.Request.Context(), id, status); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": status})
}
