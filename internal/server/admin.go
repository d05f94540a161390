package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type clearCacheRequest struct {
	Username string `json:"username"`
	Passcode string `json:"passcode"`
}

func (s *Server) RecoveryStatus(c *gin.Context) {
	status, err := s.recovery.Status()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": status})
}

// ClearCache flushes the settings cache using the recovery passcode so it
// still works when sessions cannot be issued. Attempts share the login
// throttle under a separate key.
func (s *Server) ClearCache(c *gin.Context) {
	var req clearCacheRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if !s.allowAttempt(c, "recovery:"+strings.TrimSpace(req.Username)) {
		return
	}
	result, err := s.recovery.ClearCache(c.Request.Context(), req.Username, req.Passcode)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}
