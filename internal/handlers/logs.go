package handlers

import (
	"net/http"
	"strconv"

	"DF-PROPOSAL/internal/models"
	"DF-PROPOSAL/internal/services"

	"github.com/gin-gonic/gin"
)

type LogsHandler struct {
	activityLogService *services.ActivityLogService
}

func NewLogsHandler(activityLogService *services.ActivityLogService) *LogsHandler {
	return &LogsHandler{
		activityLogService: activityLogService,
	}
}

type LogsResponse struct {
	Logs       []models.ActivityLog `json:"logs"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	TotalPages int                  `json:"totalPages"`
}

// GetAllLogs returns the caller's request log with pagination
func (h *LogsHandler) GetAllLogs(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "50")
	pageStr := c.DefaultQuery("page", "1")
	method := c.Query("method")
	path := c.Query("path")

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}

	page, err := strconv.Atoi(pageStr)
	if err != nil || page <= 0 {
		page = 1
	}

	offset := (page - 1) * limit
	owner := ownerID(c)

	var logs []models.ActivityLog
	var total int64

	if method != "" {
		logs, total, err = h.activityLogService.GetLogsByMethod(owner, method, limit, offset)
	} else if path != "" {
		logs, total, err = h.activityLogService.GetLogsByPath(owner, path, limit, offset)
	} else {
		logs, total, err = h.activityLogService.GetAllLogs(owner, limit, offset)
	}

	if err != nil {
		respondError(c, err)
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	c.JSON(http.StatusOK, LogsResponse{
		Logs:       logs,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	})
}

// GetLogStats returns request counts by method, route and status code
func (h *LogsHandler) GetLogStats(c *gin.Context) {
	stats, err := h.activityLogService.Stats(ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
