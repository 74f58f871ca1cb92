package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chedhq/ched/store"
)

func (s *Server) handleListTodos(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	todos, err := s.todos.List(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"todos": todos, "count": len(todos)})
}

type todoBody struct {
	UserID   string `json:"user_id" binding:"required"`
	Text     string `json:"text" binding:"required"`
	DueDate  string `json:"due_date"`
	Priority string `json:"priority"`
	Tag      string `json:"tag"`
}

func (s *Server) handleCreateTodo(c *gin.Context) {
	var body todoBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := s.todos.Create(c.Request.Context(), &store.TodoItem{
		UserID:   body.UserID,
		Text:     body.Text,
		DueDate:  body.DueDate,
		Priority: body.Priority,
		Tag:      body.Tag,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) handleUpdateTodo(c *gin.Context) {
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
	updated, err := s.todos.Update(c.Request.Context(), uid, id, fields)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"error": "todo not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

func (s *Server) handleDeleteTodo(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	deleted, err := s.todos.Delete(c.Request.Context(), uid, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "todo not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) handleClearTodos(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	count, err := s.todos.ClearAll(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": count})
}
