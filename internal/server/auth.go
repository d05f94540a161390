package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/shipdesk/internal/auth/domain"
	obscontext "github.com/smallbiznis/shipdesk/internal/observability/context"
	"go.uber.org/zap"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	username := strings.TrimSpace(req.Username)
	if !s.allowAttempt(c, username) {
		return
	}

	result, err := s.authSvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Username: username,
		Password: req.Password,
	})
	if err != nil {
		if s.auditSvc != nil {
			_ = s.auditSvc.Record(c.Request.Context(), "user.login_failed", "user", "", map[string]any{
				"username": username,
			})
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) Me(c *gin.Context) {
	actor, ok := obscontext.ActorFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	user, err := s.authSvc.Get(c.Request.Context(), actor.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !user.IsActive {
		AbortWithError(c, authdomain.ErrUserInactive)
		return
	}

	permissions, err := s.authzSvc.Permissions(user.Role)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"user": user, "permissions": permissions}})
}

// allowAttempt counts a credential attempt for key from the client IP and
// aborts with 429 once the window is exhausted. Rate limiting fails open.
func (s *Server) allowAttempt(c *gin.Context, key string) bool {
	limit, err := s.guard.AllowLogin(c.Request.Context(), key, c.ClientIP())
	if err != nil {
		s.log.Warn("attempt rate limit check failed", zap.Error(err))
		return true
	}
	if limit.Allowed {
		return true
	}
	if limit.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(limit.RetryAfter.Seconds())+1))
	}
	AbortWithError(c, ErrTooManyRequests)
	return false
}
