package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/existflow/grantline/internal/db"
	"github.com/existflow/grantline/internal/logger"
	"github.com/existflow/grantline/internal/metrics"
	"github.com/existflow/grantline/internal/timeline"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// shutdownTimeout bounds the graceful shutdown in Run
const shutdownTimeout = 10 * time.Second

// Options configure rendering for every timeline the server draws
type Options struct {
	Style timeline.Style
	// Dark selects the dark colour palette for grants
	Dark bool
	// ViewTTL unmounts live views nobody has used for this long.
	// Zero means DefaultViewTTL.
	ViewTTL time.Duration
}

// Server is the timeline HTTP server
type Server struct {
	live  *db.Live
	echo  *echo.Echo
	views *registry
	opts  Options
	now   func() time.Time

	stopReaper chan struct{}
	closeOnce  sync.Once
}

// New creates a server on top of a live store
func New(live *db.Live, opts Options) *Server {
	if opts.ViewTTL <= 0 {
		opts.ViewTTL = DefaultViewTTL
	}
	s := &Server{
		live:       live,
		views:      newRegistry(),
		opts:       opts,
		now:        time.Now,
		stopReaper: make(chan struct{}),
	}
	s.setupEcho()
	go s.reapViews(opts.ViewTTL, s.stopReaper)
	return s
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(requestLogger)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(viewerMiddleware)

	e.GET("/health", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")

	api.GET("/boards", s.handleListBoards)
	api.GET("/boards/:id/timeline.svg", s.handleRenderSVG)
	api.GET("/boards/:id/grants", s.handleListGrants)
	api.GET("/grants/:id/milestones", s.handleListMilestones)

	// writes need an identified viewer
	w := api.Group("", requireViewer)
	w.POST("/boards", s.handleCreateBoard)
	w.DELETE("/boards/:id", s.handleDeleteBoard)
	w.GET("/boards/:id/stats", s.handleBoardStats)
	w.POST("/boards/:id/grants", s.handleCreateGrant)
	w.PUT("/grants/:id", s.handleUpdateGrant)
	w.DELETE("/grants/:id", s.handleDeleteGrant)
	w.PUT("/grants/:id/progress", s.handleSetProgress)
	w.POST("/grants/:id/milestones", s.handleAddMilestone)
	w.DELETE("/grants/:id/milestones/:mid", s.handleDeleteMilestone)

	w.POST("/views", s.handleCreateView)
	w.POST("/views/:vid/pointer", s.handlePointer)
	w.PUT("/views/:vid/zoom", s.handleZoom)
	w.GET("/views/:vid/svg", s.handleViewSVG)
	w.GET("/views/:vid/events", s.handleViewEvents)
	w.DELETE("/views/:vid", s.handleDeleteView)

	s.echo = e
}

// requestLogger logs every request and records its duration
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()

		logger.Debug("HTTP Request",
			logger.F("method", req.Method),
			logger.F("uri", req.RequestURI),
			logger.F("remote", req.RemoteAddr))

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		res := c.Response()
		duration := time.Since(start)
		metrics.RecordHTTPRequestDuration(req.Method, c.Path(), strconv.Itoa(res.Status), duration)

		logger.Info("HTTP Response",
			logger.F("method", req.Method),
			logger.F("uri", req.RequestURI),
			logger.F("status", res.Status),
			logger.F("size", res.Size),
			logger.F("duration", duration.String()))

		return nil
	}
}

// Close stops the idle reaper and unmounts every live view
func (s *Server) Close() error {
	s.closeOnce.Do(func() { close(s.stopReaper) })
	s.views.closeAll()
	return nil
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server
func (s *Server) Start(addr string) error {
	logger.Info("Server starting", logger.F("addr", addr))
	return s.echo.Start(addr)
}

// Run serves until ctx is cancelled, then unmounts every view and shuts
// down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() {
		if err := s.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("Server shutting down")
	// closing views ends their event streams so shutdown does not wait on them
	_ = s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return <-errc
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// fail maps store errors onto HTTP responses
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, db.ErrInvalid):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		logger.Error("Request failed",
			logger.F("path", c.Path()),
			logger.F("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			logger.Err(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}

func forbidden(c echo.Context, msg string) error {
	return c.JSON(http.StatusForbidden, map[string]string{"error": msg})
}
