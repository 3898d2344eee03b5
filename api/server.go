// Package api serves the question-answering HTTP endpoint the gate
// evaluates.
package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
)

const serviceName = "qa-service"

// Server is the question-answering HTTP service.
type Server struct {
	router   *gin.Engine
	answerer Answerer
}

// NewServer wires routes around the given answer backend. A nil answerer is
// allowed: the service stays up and reports 503 on /chat.
func NewServer(answerer Answerer) *Server {
	r := gin.New()
	s := &Server{
		router:   r,
		answerer: answerer,
	}
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/", s.handleRoot)
	s.router.POST("/chat", s.handleChat)
}

// Run serves HTTP on addr until the listener fails.
func (s *Server) Run(addr string) error {
	if s == nil || s.router == nil {
		return errors.New("api: nil server")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = ":8000"
	}
	return s.router.Run(addr)
}
