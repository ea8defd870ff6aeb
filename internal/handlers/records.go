package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"petidocs/internal/services"
	"petidocs/internal/storage"
)

type RecordHandler struct {
	records *services.RecordService
	archive *storage.ArchiveStore // nil when archiving is disabled
}

func NewRecordHandler(records *services.RecordService, archive *storage.ArchiveStore) *RecordHandler {
	return &RecordHandler{records: records, archive: archive}
}

func (h *RecordHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	records, total, err := h.records.ListRecords(limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"records": records, "total": total})
}

func (h *RecordHandler) Get(c *gin.Context) {
	record, err := h.records.GetRecord(c.Param("recordId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, record)
}

// ArchiveURL issues a short-lived download link for a record's archived PDF.
func (h *RecordHandler) ArchiveURL(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"success": false, "error": "archiving is not configured"})
		return
	}
	if _, err := h.records.GetRecord(c.Param("recordId")); err != nil {
		fail(c, err)
		return
	}

	objectName := c.Query("object")
	if objectName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "object query parameter is required"})
		return
	}
	url, err := h.archive.GetSignedURL(objectName, 15*time.Minute)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"url": url})
}
