package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type chatRequest struct {
	Question *string `json:"question"`
	Context  *string `json:"context"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to the Question-Answering Service",
	})
}

// handleChat answers one question/context pair. Missing fields are a 422,
// an unconfigured backend a 503, and backend failures a 500.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	if req.Question == nil || req.Context == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "question and context are required"})
		return
	}

	if s.answerer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Question-Answering model is not available"})
		return
	}

	answer, err := s.answerer.Answer(c.Request.Context(), *req.Question, *req.Context)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, chatResponse{Answer: answer})
}
