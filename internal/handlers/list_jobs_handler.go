package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"io.winapps.pushrelay/internal/scheduler"
)

// ListJobs returns the status of every scheduled job
func (h *SystemHandler) ListJobs(c *gin.Context) {
	if h.jobs == nil {
		c.JSON(http.StatusOK, []scheduler.JobStatus{})
		return
	}
	c.JSON(http.StatusOK, h.jobs.Jobs())
}
