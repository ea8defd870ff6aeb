package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"petidocs/internal/apperr"
)

// ok wraps successful responses in the {success, data} envelope every
// synchronous endpoint uses.
func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// fail maps service errors onto the envelope. Sentinel errors decide the
// status code; anything unrecognized is a 500.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrExtraction), errors.Is(err, apperr.ErrRateLimited):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}
