// Package devserver is an in-memory task service for local runs and tests.
package devserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/harrisonrobin/tasklist/pkg/api"
	"github.com/harrisonrobin/tasklist/pkg/model"
)

// Server holds the task list behind GET /get and PATCH /patch/:id.
type Server struct {
	mu     sync.Mutex
	tasks  []model.Task
	apiKey string
	logger *log.Logger
}

type updateRequest struct {
	IsComplete *bool `json:"isComplete"`
}

// New creates a server seeded with tasks. An empty apiKey disables the key check.
func New(apiKey string, tasks []model.Task, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	seeded := make([]model.Task, len(tasks))
	copy(seeded, tasks)
	return &Server{tasks: seeded, apiKey: apiKey, logger: logger}
}

// SeedTasks returns a small sample list around now covering every bucket.
func SeedTasks(now time.Time) []model.Task {
	day := 24 * time.Hour
	return []model.Task{
		{ID: uuid.NewString(), Description: "Renew passport", DueDate: model.NewTimestamp(now.Add(-3 * day))},
		{ID: uuid.NewString(), Description: "Buy groceries"},
		{ID: uuid.NewString(), Description: "Book dentist", DueDate: model.NewTimestamp(now.Add(2 * day))},
		{ID: uuid.NewString(), Description: "Pay electricity bill", IsComplete: true, DueDate: model.NewTimestamp(now.Add(-7 * day))},
		{ID: uuid.NewString(), Description: "Call grandma", IsComplete: true},
	}
}

// Handler returns the gin engine serving the API.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests, s.requireKey)
	r.GET("/get", s.list)
	r.PATCH("/patch/:id", s.update)
	return r
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger.Debug("Handled request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"duration", time.Since(start),
	)
}

func (s *Server) requireKey(c *gin.Context) {
	if s.apiKey != "" && c.GetHeader(api.APIKeyHeader) != s.apiKey {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
		return
	}
	c.Next()
}

func (s *Server) list(c *gin.Context) {
	c.JSON(http.StatusOK, s.Tasks())
}

func (s *Server) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.IsComplete == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "isComplete is required"})
		return
	}

	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].IsComplete = *req.IsComplete
			s.logger.Info("Task updated", "task_id", id, "is_complete", *req.IsComplete)
			c.JSON(http.StatusOK, s.tasks[i])
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
}

// Tasks returns a copy of the stored tasks.
func (s *Server) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}
