package api

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
)

// triggerSync is the operator "sync now" action. With a job queue attached
// the pass runs in the background and the response carries the job id;
// ?wait=true (or no queue) runs the pass inline and returns the summary.
// Either way the operation is idempotent and safe to trigger repeatedly.
func (s *Server) triggerSync(c echo.Context) error {
	wait := c.QueryParam("wait") == "true"

	if s.queue != nil && !wait {
		jobID, err := s.queue.EnqueueFullSync(c.Request().Context(), "api")
		if err != nil {
			log.Printf("[ERROR] Failed to enqueue full sync: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "failed to enqueue sync job",
			})
		}
		return c.JSON(http.StatusAccepted, map[string]interface{}{
			"status": "queued",
			"job_id": jobID,
		})
	}

	summary, err := s.engine.RunFullSync(c.Request().Context())
	if err != nil {
		log.Printf("[ERROR] Full sync failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "full sync failed",
		})
	}
	return c.JSON(http.StatusOK, summary)
}
