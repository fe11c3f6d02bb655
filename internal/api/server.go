package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"vecna/internal/catalog"
	"vecna/internal/logging"
	"vecna/internal/pipeline"
	"vecna/internal/workflow"
)

// GameAdvancer performs guarded and manual transitions.
type GameAdvancer interface {
	Advance(ctx context.Context, gameID string, target pipeline.State) (*catalog.Game, error)
	Override(ctx context.Context, gameID string, target pipeline.State, note string) (*catalog.Game, error)
}

// FamilyProcessor runs a family batch.
type FamilyProcessor interface {
	ProcessFamilyByID(ctx context.Context, familyID string, mode pipeline.Mode, opts workflow.Options) (*workflow.BatchSummary, error)
}

// StaleReclaimer rolls back games stuck in flight.
type StaleReclaimer interface {
	ReclaimOnce(ctx context.Context) ([]*catalog.Game, error)
}

// Deps wires the server to the rest of the application.
type Deps struct {
	Games        *GameService
	Advancer     GameAdvancer
	Orchestrator FamilyProcessor
	Reclaimer    StaleReclaimer
	// Defaults supplies skip_blocked and stop_on_error when a process
	// request omits them.
	Defaults workflow.Options
	Logger   *slog.Logger
}

// Server is the admin HTTP API.
type Server struct {
	bind   string
	deps   Deps
	logger *slog.Logger
	engine *gin.Engine

	listener net.Listener
	server   *http.Server
}

// NewServer builds the router. bind may be empty when the server is only
// used through Handler.
func NewServer(bind string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		bind:   strings.TrimSpace(bind),
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "api-server"),
	}
	s.engine = s.routes()
	s.server = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the router for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/states", s.listStates)
		api.GET("/stats", s.stats)

		api.GET("/games", s.listGames)
		api.GET("/games/:id", s.getGame)
		api.GET("/games/:id/transitions", s.getTransitions)
		api.POST("/games/:id/advance", s.advanceGame)
		api.POST("/games/:id/override", s.overrideGame)

		api.GET("/families", s.listFamilies)
		api.GET("/families/:id", s.getFamily)
		api.POST("/families/:id/process", s.processFamily)

		api.POST("/reclaim", s.reclaim)
	}
	return r
}

// Start listens on the bind address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr reports the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting up to five seconds for open requests.
func (s *Server) Stop() {
	if s == nil || s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			logging.String("method", c.Request.Method),
			logging.String("path", c.FullPath()),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("duration", time.Since(start)),
		)
	}
}
