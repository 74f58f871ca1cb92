package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chedhq/ched/core"
	"github.com/chedhq/ched/retrieval"
	"github.com/chedhq/ched/runner"
)

type queryRequest struct {
	Query     string   `json:"query" binding:"required"`
	UserID    string   `json:"user_id" binding:"required"`
	ThreadID  string   `json:"thread_id"`
	Documents []string `json:"documents"`
}

// handleQuery streams the assistant's answer as server-sent events: zero or
// more token events followed by one final event carrying the full response.
func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Uploaded documents are referenced by the server-managed paths returned
	// from /upload; anything outside the upload dir is refused.
	for _, doc := range req.Documents {
		if !s.ownsUpload(doc) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown document %q", filepath.Base(doc))})
			return
		}
	}

	ch, runID, err := s.runner.StreamQuery(c.Request.Context(), runner.Request{
		Query:     req.Query,
		UserID:    req.UserID,
		ThreadID:  req.ThreadID,
		Documents: req.Documents,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Run-ID", runID)

	for chunk := range ch {
		payload, err := json.Marshal(chunk)
		if err != nil {
			s.logger.Error("query.encode_chunk.failed", "error", err.Error())
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
		c.Writer.Flush()
		if chunk.Kind == core.ChunkFinal {
			return
		}
	}
}

// handleUpload stores one multipart document under a server-generated name
// inside the upload dir and returns the path for later /query references.
func (s *Server) handleUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}
	if !retrieval.Supported(file.Filename) {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{
			"error":   fmt.Sprintf("unsupported file type %q", filepath.Ext(file.Filename)),
			"formats": retrieval.SupportedExtensions(),
		})
		return
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not prepare upload dir"})
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	dest := filepath.Join(s.uploadDir, uuid.NewString()+ext)
	if err := c.SaveUploadedFile(file, dest); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store file"})
		return
	}

	s.logger.Info("upload.stored", "filename", file.Filename, "path", dest, "size", file.Size)
	c.JSON(http.StatusOK, gin.H{
		"path":     dest,
		"filename": file.Filename,
		"type":     ext,
		"size":     file.Size,
	})
}

// ownsUpload reports whether path resolves inside the upload dir.
func (s *Server) ownsUpload(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	dir, err := filepath.Abs(s.uploadDir)
	if err != nil {
		return false
	}
	return strings.HasPrefix(abs, dir+string(filepath.Separator))
}
