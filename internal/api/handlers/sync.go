package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HandleSubmitSync handles POST /v1/sync
func HandleSubmitSync(svc *Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		wait, _ := strconv.ParseBool(c.DefaultQuery("wait", "false"))
		if !wait {
			job := svc.Jobs.Submit("api")
			c.JSON(http.StatusAccepted, job)
			return
		}

		job := svc.Jobs.RunNow(c.Request.Context(), "api")
		logger.Info("Inline sync finished", zap.String("job_id", job.ID.String()), zap.String("state", string(job.State)))
		c.JSON(http.StatusOK, job)
	}
}

// HandleGetSync handles GET /v1/sync/:id
func HandleGetSync(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job ID"})
			return
		}
		job, ok := svc.Jobs.Get(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusOK, job)
	}
}

// HandleListSyncs handles GET /v1/sync
func HandleListSyncs(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobs := svc.Jobs.List()
		c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
	}
}

// HandleListEvents handles GET /v1/events
func HandleListEvents(svc *Services, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 50
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > 500 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
				return
			}
			limit = n
		}
		events, err := svc.Events.List(c.Request.Context(), limit)
		if err != nil {
			respondError(c, logger, err, "list_events")
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
	}
}
