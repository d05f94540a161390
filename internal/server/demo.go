package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

type generateDemoRequest struct {
	Count int    `json:"count"`
	Seed  uint64 `json:"seed"`
}

func (s *Server) GenerateDemo(c *gin.Context) {
	var req generateDemoRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		AbortWithError(c, invalidRequestError())
		return
	}
	result, err := s.demoSvc.Generate(c.Request.Context(), req.Count, req.Seed)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": result})
}

func (s *Server) PurgeDemo(c *gin.Context) {
	result, err := s.demoSvc.Purge(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}
