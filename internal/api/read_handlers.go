package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/deskmirror/internal/store"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// pagination reads limit/offset query params with sane bounds.
func pagination(c echo.Context) (limit, offset int) {
	limit = defaultPageSize
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if raw := c.QueryParam("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

func (s *Server) listTickets(c echo.Context) error {
	limit, offset := pagination(c)
	tickets, err := s.reader.ListTickets(c.Request().Context(), limit, offset)
	if err != nil {
		log.Printf("[ERROR] Failed to list tickets: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list tickets"})
	}
	if tickets == nil {
		tickets = []*store.Ticket{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"tickets": tickets})
}

func (s *Server) getTicket(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid ticket id"})
	}

	ticket, err := s.reader.TicketByID(c.Request().Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "ticket not found"})
	}
	if err != nil {
		log.Printf("[ERROR] Failed to fetch ticket %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch ticket"})
	}

	conversations, err := s.reader.ConversationsForTicket(c.Request().Context(), id)
	if err != nil {
		log.Printf("[ERROR] Failed to fetch conversations for ticket %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch conversations"})
	}
	if conversations == nil {
		conversations = []*store.Conversation{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"ticket":        ticket,
		"conversations": conversations,
	})
}

func (s *Server) listContacts(c echo.Context) error {
	limit, offset := pagination(c)
	contacts, err := s.reader.ListContacts(c.Request().Context(), limit, offset)
	if err != nil {
		log.Printf("[ERROR] Failed to list contacts: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list contacts"})
	}
	if contacts == nil {
		contacts = []*store.Contact{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"contacts": contacts})
}

func (s *Server) listCompanies(c echo.Context) error {
	limit, offset := pagination(c)
	companies, err := s.reader.ListCompanies(c.Request().Context(), limit, offset)
	if err != nil {
		log.Printf("[ERROR] Failed to list companies: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list companies"})
	}
	if companies == nil {
		companies = []*store.Company{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"companies": companies})
}

func (s *Server) dashboard(c echo.Context) error {
	counts, err := s.reader.Counts(c.Request().Context())
	if err != nil {
		log.Printf("[ERROR] Failed to collect dashboard counts: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to collect counts"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"counts": counts})
}
