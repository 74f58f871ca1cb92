package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleListCourses(c *gin.Context) {
	courses, err := s.academic.ListCourses(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses, "count": len(courses)})
}

func (s *Server) handleEnrolledCourses(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	courses, err := s.academic.Enrolled(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses, "count": len(courses)})
}

type enrollBody struct {
	UserID     string `json:"user_id" binding:"required"`
	CourseCode string `json:"course_code" binding:"required"`
	Semester   string `json:"semester"`
}

func (s *Server) handleEnroll(c *gin.Context) {
	var body enrollBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	enrolled, err := s.academic.Enroll(c.Request.Context(), body.UserID, body.CourseCode, body.Semester)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !enrolled {
		c.JSON(http.StatusOK, gin.H{"enrolled": false, "message": "already enrolled"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrolled": true})
}

func (s *Server) handleUnenroll(c *gin.Context) {
	var body enrollBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	removed, err := s.academic.Unenroll(c.Request.Context(), body.UserID, body.CourseCode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active enrollment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unenrolled": true})
}

func (s *Server) handleAcademicHistory(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	hist, err := s.academic.History(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, hist)
}
