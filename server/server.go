// Package server exposes the assistant over HTTP: a streaming query
// endpoint, document upload, and plain CRUD for events, courses, chat
// threads and todos. All routes except the health probe sit behind a
// shared-secret header check.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chedhq/ched/logging"
	"github.com/chedhq/ched/retrieval"
	"github.com/chedhq/ched/runner"
	"github.com/chedhq/ched/store"
)

// Config holds the server's external settings.
type Config struct {
	// APIKey is the shared secret expected in the X-API-Key header.
	APIKey string
	// UploadDir is where uploaded documents are stored.
	UploadDir string
	// ReleaseMode switches gin out of debug logging.
	ReleaseMode bool
}

// Server wires the HTTP surface over the runner and the stores.
type Server struct {
	engine    *gin.Engine
	runner    *runner.Runner
	events    *store.EventStore
	academic  *store.AcademicStore
	chats     *store.ChatStore
	todos     *store.TodoStore
	apiKey    string
	uploadDir string
	logger    logging.Logger
}

// New builds the server and registers all routes.
func New(cfg Config, run *runner.Runner, st *store.Store, logger logging.Logger) *Server {
	if cfg.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	s := &Server{
		engine:    gin.New(),
		runner:    run,
		events:    st.Events(),
		academic:  st.Academic(),
		chats:     st.Chats(),
		todos:     st.Todos(),
		apiKey:    cfg.APIKey,
		uploadDir: cfg.UploadDir,
		logger:    logger,
	}
	s.engine.Use(gin.Recovery(), s.requestLog())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.engine.Group("/", s.requireAPIKey())

	api.POST("/query", s.handleQuery)
	api.POST("/upload", s.handleUpload)
	api.GET("/supported-formats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"formats": retrieval.SupportedExtensions()})
	})

	api.GET("/events", s.handleListEvents)
	api.GET("/events/today", s.handleEventsToday)
	api.GET("/events/search", s.handleSearchEvents)
	api.POST("/events", s.handleAddEvent)
	api.PUT("/events/:id", s.handleUpdateEvent)
	api.DELETE("/events/:id", s.handleDeleteEvent)
	api.DELETE("/events/date/:date", s.handleDeleteEventsByDate)
	api.DELETE("/events", s.handleClearEvents)

	api.GET("/courses", s.handleListCourses)
	api.GET("/courses/enrolled", s.handleEnrolledCourses)
	api.POST("/courses/enroll", s.handleEnroll)
	api.POST("/courses/unenroll", s.handleUnenroll)
	api.GET("/academic/history", s.handleAcademicHistory)

	api.GET("/chat/history", s.handleChatHistory)
	api.GET("/chat/threads", s.handleThreads)
	api.DELETE("/chat/threads/:id", s.handleDeleteThread)

	api.GET("/todos", s.handleListTodos)
	api.POST("/todos", s.handleCreateTodo)
	api.PUT("/todos/:id", s.handleUpdateTodo)
	api.DELETE("/todos/:id", s.handleDeleteTodo)
	api.DELETE("/todos", s.handleClearTodos)
}

// Run serves HTTP on addr until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("server.listen", "addr", addr)
	return s.engine.Run(addr)
}

// Handler exposes the underlying handler, used by tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http.request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
