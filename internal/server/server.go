// Package server serves the to-do REST contract over any store.Store.
// It backs `todo serve`, a development server for the client.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dori/todo/internal/logging"
	"github.com/dori/todo/internal/model"
	"github.com/dori/todo/internal/store"
	"github.com/dori/todo/internal/store/remote"
)

const shutdownTimeout = 5 * time.Second

// Server exposes a store over HTTP
type Server struct {
	store  store.Store
	log    logging.Logger
	engine *gin.Engine
}

type createRequest struct {
	Text      string `json:"text" binding:"required"`
	Completed bool   `json:"completed"`
}

type updateRequest struct {
	Text string `json:"text" binding:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// New creates a Server backed by st.
func New(st store.Store, log logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{store: st, log: log, engine: gin.New()}
	// Ids may contain escaped slashes.
	s.engine.UseRawPath = true
	s.engine.UnescapePathValues = true
	s.engine.Use(gin.Recovery(), s.logRequests())

	api := s.engine.Group(remote.BasePath)
	api.GET("", s.list)
	api.POST("", s.create)
	api.PUT("/:id", s.update)
	api.PUT("/:id/completed", s.updateCompleted)
	api.DELETE("/:id", s.remove)
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.log.Info(ctx, "server listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info(ctx, "server stopped")
	return nil
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) list(c *gin.Context) {
	mode, err := model.ParseSortMode(c.Query("sortOption"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	todos, err := s.store.List(c.Request.Context(), mode)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, todos)
}

func (s *Server) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	draft := model.Draft{Text: req.Text, Completed: &req.Completed}
	todo, err := s.store.Create(c.Request.Context(), draft)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, todo)
}

func (s *Server) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	todo, err := s.store.Update(c.Request.Context(), model.ID(c.Param("id")), model.Draft{Text: req.Text})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

func (s *Server) updateCompleted(c *gin.Context) {
	var req model.Todo
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	todo, err := s.store.UpdateCompleted(c.Request.Context(), model.ID(c.Param("id")), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

func (s *Server) remove(c *gin.Context) {
	if err := s.store.Remove(c.Request.Context(), model.ID(c.Param("id"))); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// fail maps store errors onto status codes.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrInvalid):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.log.Error(c.Request.Context(), "store failure",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
