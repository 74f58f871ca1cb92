package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleChatHistory(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	threadID := c.Query("thread_id")
	if threadID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "thread_id is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	msgs, err := s.chats.History(c.Request.Context(), uid, threadID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs, "count": len(msgs)})
}

func (s *Server) handleThreads(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	threads, err := s.chats.Threads(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": threads, "count": len(threads)})
}

func (s *Server) handleDeleteThread(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	removed, err := s.chats.DeleteThread(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted_messages": removed})
}
