package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"petidocs/internal/services"
)

type LogsHandler struct {
	activityLog *services.ActivityLogService
}

func NewLogsHandler(activityLog *services.ActivityLogService) *LogsHandler {
	return &LogsHandler{activityLog: activityLog}
}

// GetLogs lists the request audit trail, optionally filtered by method or
// path substring.
func (h *LogsHandler) GetLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	var (
		logs  interface{}
		total int64
		err   error
	)
	switch {
	case c.Query("method") != "":
		logs, total, err = h.activityLog.GetLogsByMethod(c.Query("method"), limit, offset)
	case c.Query("path") != "":
		logs, total, err = h.activityLog.GetLogsByPath(c.Query("path"), limit, offset)
	default:
		logs, total, err = h.activityLog.GetAllLogs(limit, offset)
	}
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, http.StatusOK, gin.H{
		"logs":   logs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}
