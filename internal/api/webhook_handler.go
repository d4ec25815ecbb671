package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deskmirror/internal/mirror"
)

// HelpdeskWebhookHandler ingests one webhook delivery from the remote
// helpdesk. Unparseable JSON is the only 400: everything that parses is
// acknowledged with 200, even when handling fails, because the remote
// system redelivers non-2xx responses forever, and a payload this engine
// cannot apply today will not apply on redelivery either. Failures are
// logged for operator visibility and left for the next bulk pass.
func (s *Server) HelpdeskWebhookHandler(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		log.Printf("[ERROR] Failed to read webhook body: %v", err)
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "failed to read request body",
		})
	}

	var event mirror.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("[ERROR] Malformed webhook payload: %v", err)
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid webhook payload",
		})
	}

	log.Printf("[INFO] Received helpdesk webhook: triggered_event=%q ticket_id=%d",
		event.TriggeredEvent, event.TicketID)

	if err := s.engine.HandleWebhook(c.Request().Context(), event); err != nil {
		log.Printf("[ERROR] Webhook handling failed for ticket %d: %v", event.TicketID, err)
		return c.JSON(http.StatusOK, map[string]string{
			"status": "received",
			"note":   "handling failed, recorded for next sync",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "received"})
}
