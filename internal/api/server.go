package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/deskmirror/internal/mirror"
	"github.com/deskmirror/internal/store"
)

// SyncEngine is the part of the sync engine the HTTP layer drives.
type SyncEngine interface {
	HandleWebhook(ctx context.Context, event mirror.WebhookEvent) error
	RunFullSync(ctx context.Context) (*mirror.Summary, error)
}

// SyncQueue enqueues background full-sync jobs. It is optional: without a
// queue the sync endpoint runs the pass inline.
type SyncQueue interface {
	EnqueueFullSync(ctx context.Context, triggeredBy string) (int64, error)
}

// MirrorReader is the read side of the local store served to the UI.
type MirrorReader interface {
	ListTickets(ctx context.Context, limit, offset int) ([]*store.Ticket, error)
	TicketByID(ctx context.Context, id int64) (*store.Ticket, error)
	ConversationsForTicket(ctx context.Context, ticketID int64) ([]*store.Conversation, error)
	ListContacts(ctx context.Context, limit, offset int) ([]*store.Contact, error)
	ListCompanies(ctx context.Context, limit, offset int) ([]*store.Company, error)
	Counts(ctx context.Context) (map[string]int64, error)
}

// Server is the deskmirror API server: the webhook ingress, the operator
// sync trigger and the read API backing the local UI.
type Server struct {
	echo   *echo.Echo
	port   int
	engine SyncEngine
	queue  SyncQueue
	reader MirrorReader
}

// NewServer creates the API server. queue may be nil.
func NewServer(port int, engine SyncEngine, queue SyncQueue, reader MirrorReader) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	server := &Server{
		echo:   e,
		port:   port,
		engine: engine,
		queue:  queue,
		reader: reader,
	}
	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})

	s.echo.POST("/webhooks/helpdesk", s.HelpdeskWebhookHandler)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/sync", s.triggerSync)
	v1.GET("/tickets", s.listTickets)
	v1.GET("/tickets/:id", s.getTicket)
	v1.GET("/contacts", s.listContacts)
	v1.GET("/companies", s.listCompanies)
	v1.GET("/dashboard", s.dashboard)
}

// Start runs the server until interrupted, then shuts down gracefully.
func (s *Server) Start() error {
	go func() {
		if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && err != http.ErrServerClosed {
			s.echo.Logger.Fatal("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}
