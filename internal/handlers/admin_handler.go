package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopbackend/internal/queue"
	"shopbackend/internal/responses"
)

// AdminHandler exposes queue introspection for staff: per-queue depths,
// task results, and manual task dispatch.
type AdminHandler struct {
	broker queue.Broker
	client *queue.Client
	queues []string
}

func NewAdminHandler(broker queue.Broker, client *queue.Client, queues []string) *AdminHandler {
	return &AdminHandler{broker: broker, client: client, queues: queues}
}

func (h *AdminHandler) QueueStats(c *gin.Context) {
	stats := make(map[string]int64, len(h.queues))
	for _, q := range h.queues {
		length, err := h.broker.QueueLength(c.Request.Context(), q)
		if err != nil {
			responses.Fail(c, http.StatusInternalServerError, err, "Could not read queue length")
			return
		}
		stats[q] = length
	}
	responses.Success(c, http.StatusOK, stats, "Queue stats retrieved")
}

func (h *AdminHandler) TaskResult(c *gin.Context) {
	result, err := h.client.Result(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load task result")
		return
	}
	if result == nil {
		responses.Fail(c, http.StatusNotFound, nil, "No result for this task yet")
		return
	}
	responses.Success(c, http.StatusOK, result, "Task result retrieved")
}

// EnqueueTask lets staff fire a registered task by name, mostly for
// re-running a scheduled job out of band.
func (h *AdminHandler) EnqueueTask(c *gin.Context) {
	var req struct {
		Task string        `json:"task" binding:"required"`
		Args []interface{} `json:"args"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid Format")
		return
	}

	taskID, err := h.client.Delay(c.Request.Context(), req.Task, req.Args...)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not enqueue task")
		return
	}
	responses.Success(c, http.StatusAccepted, gin.H{"task_id": taskID}, "Task enqueued")
}
