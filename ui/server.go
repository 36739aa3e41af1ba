// Package ui serves live-refresh frames to a browser. The page shows the
// latest frame and swaps it whenever a Server-Sent Event announces a new one.
package ui

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"physlab/domain/plot"
	"physlab/internal"
	"physlab/internal/api"
	"physlab/internal/errors"
	"physlab/ports"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

const frameURL = "/frame"

// Server is the live preview web server. It is also a frame sink, so a
// live drawing loop can publish straight into it.
type Server struct {
	router    *gin.Engine
	hub       *api.SSEHub
	templates *template.Template
	title     string
	logger    *internal.Logger

	frameMu sync.RWMutex
	frame   *plot.Frame
}

var _ ports.FrameSinkPort = (*Server)(nil)

// NewServer creates the server; title is shown on the page
func NewServer(title string, logger *internal.Logger) (*Server, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	templates, err := template.ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse templates")
	}

	s := &Server{
		router:    gin.New(),
		hub:       api.NewSSEHub(logger),
		templates: templates,
		title:     title,
		logger:    logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Trace("[HTTP] %s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	})
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET(frameURL, s.handleFrame)
	s.router.GET("/events", s.hub.HandleSSE)
	s.router.GET("/healthz", s.handleHealth)
}

// Handler exposes the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the event hub
func (s *Server) Hub() *api.SSEHub {
	return s.hub
}

// Publish stores the frame and tells every open page about it
func (s *Server) Publish(ctx context.Context, frame plot.Frame) error {
	if len(frame.Data) == 0 {
		return errors.InvalidInput("empty frame")
	}
	s.frameMu.Lock()
	f := frame
	s.frame = &f
	s.frameMu.Unlock()

	s.hub.Broadcast(api.NewFrameEvent(frame, frameURL))
	s.logger.Debug("[UI] published frame %d (%s)", frame.Seq, frame.Hash.Short())
	return nil
}

// Latest returns the current frame, if any
func (s *Server) Latest() (plot.Frame, bool) {
	s.frameMu.RLock()
	defer s.frameMu.RUnlock()
	if s.frame == nil {
		return plot.Frame{}, false
	}
	return *s.frame, true
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[UI] Live preview on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.hub.Close()
		if err == http.ErrServerClosed {
			return nil
		}
		return errors.IOError("live preview server failed", err)
	case <-ctx.Done():
	}

	// open event streams only end when their clients leave, so close them first
	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "live preview shutdown failed")
	}
	return nil
}

func (s *Server) handleIndex(c *gin.Context) {
	data := gin.H{"Title": s.title, "Seq": 0, "Hash": ""}
	if f, ok := s.Latest(); ok {
		data["Seq"] = f.Seq
		data["Hash"] = f.Hash.String()
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := s.templates.ExecuteTemplate(c.Writer, "index.html", data); err != nil {
		s.logger.Error("[UI] Template error: %v", err)
	}
}

func (s *Server) handleFrame(c *gin.Context) {
	f, ok := s.Latest()
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	etag := `"` + f.Hash.String() + `"`
	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, f.ContentType(), f.Data)
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := gin.H{"status": "ok", "clients": s.hub.ClientCount(), "seq": 0}
	if f, ok := s.Latest(); ok {
		resp["seq"] = f.Seq
		resp["rendered_at"] = f.RenderedAt
	}
	c.JSON(http.StatusOK, resp)
}
