package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chedhq/ched/store"
)

// userID pulls the required user_id query parameter, writing a 400 on
// absence.
func userID(c *gin.Context) (string, bool) {
	id := c.Query("user_id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return "", false
	}
	return id, true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func (s *Server) handleListEvents(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	start, end := c.Query("start_date"), c.Query("end_date")

	var (
		events []store.ScheduleEvent
		err    error
	)
	if start != "" || end != "" {
		events, err = s.events.ByRange(c.Request.Context(), uid, start, end)
	} else {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		events, err = s.events.Upcoming(c.Request.Context(), uid, limit)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

func (s *Server) handleEventsToday(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	today := time.Now().Format("2006-01-02")
	events, err := s.events.ByDate(c.Request.Context(), uid, today)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": today, "events": events, "count": len(events)})
}

func (s *Server) handleSearchEvents(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	events, err := s.events.Search(c.Request.Context(), uid, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

type eventBody struct {
	UserID      string `json:"user_id" binding:"required"`
	Title       string `json:"title" binding:"required"`
	StartTime   string `json:"start_time" binding:"required"`
	EndTime     string `json:"end_time"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

func (s *Server) handleAddEvent(c *gin.Context) {
	var body eventBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, added, err := s.events.Add(c.Request.Context(), &store.ScheduleEvent{
		UserID:      body.UserID,
		Title:       body.Title,
		StartTime:   body.StartTime,
		EndTime:     body.EndTime,
		Priority:    body.Priority,
		Category:    body.Category,
		Description: body.Description,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !added {
		c.JSON(http.StatusOK, gin.H{"added": false, "message": "event already exists"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"added": true, "id": id})
}

func (s *Server) handleUpdateEvent(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := s.events.Update(c.Request.Context(), uid, id, fields)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

func (s *Server) handleDeleteEvent(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	deleted, err := s.events.Delete(c.Request.Context(), uid, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) handleDeleteEventsByDate(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	count, err := s.events.DeleteByDate(c.Request.Context(), uid, c.Param("date"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": count})
}

func (s *Server) handleClearEvents(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	count, err := s.events.ClearAll(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": count})
}
