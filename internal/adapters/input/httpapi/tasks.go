package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"task-wallet/internal/core/domain/entities"
	"task-wallet/internal/mapper"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type submitRequest struct {
	UserID string            `json:"user_id" binding:"required"`
	Result []json.RawMessage `json:"result" binding:"required"`
}

func (s *Server) listTasks(c *gin.Context) {
	category, err := entities.ParseCategory(c.Param("category"))
	if err != nil {
		c.JSON(mapper.Status(err), gin.H{"error": err.Error()})
		return
	}

	// A forced fetch refreshes the cache first; reconciliation then serves
	// the fresh entry.
	if c.Query("refresh") == "true" {
		if _, err := s.tasks.FetchTasks(c.Request.Context(), category, true); err != nil {
			s.log.Error("http: forced refresh failed", zap.String("category", string(category)), zap.Error(err))
			c.JSON(mapper.Status(err), gin.H{"error": err.Error()})
			return
		}
	}

	tasks, err := s.tasks.LoadAvailableTasks(c.Request.Context(), category)
	if err != nil {
		s.log.Error("http: list tasks failed", zap.String("category", string(category)), zap.Error(err))
		c.JSON(mapper.Status(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": mapper.Tasks(tasks)})
}

func (s *Server) submitTask(c *gin.Context) {
	category, err := entities.ParseCategory(c.Param("category"))
	if err != nil {
		c.JSON(mapper.Status(err), gin.H{"error": err.Error()})
		return
	}

	taskID, err := strconv.ParseInt(c.Param("taskId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task id must be numeric"})
		return
	}

	req := submitRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.tasks.CompleteTask(
		c.Request.Context(),
		req.UserID,
		category,
		taskID,
		&entities.Annotation{Result: req.Result},
	)
	if err != nil {
		s.log.Error("http: submit task failed", zap.Int64("task_id", taskID), zap.Error(err))
		c.JSON(mapper.Status(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, result)
}
