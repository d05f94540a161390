package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/shipdesk/internal/observability/context"
	obslogger "github.com/smallbiznis/shipdesk/internal/observability/logger"
)

const bearerPrefix = "Bearer "

// AuthRequired validates the bearer token and attaches the actor to the request context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		claims, err := s.tokens.Validate(strings.TrimSpace(header[len(bearerPrefix):]))
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		actor := obscontext.Actor{
			ID:       claims.UserID,
			Username: claims.Username,
			Role:     claims.Role,
		}
		obslogger.SetActor(c, actor)
		c.Request = c.Request.WithContext(obscontext.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// authorize rejects the request unless the actor's role may perform action on object.
func (s *Server) authorize(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authorizeRequest(c, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) authorizeRequest(c *gin.Context, object, action string) error {
	actor, ok := obscontext.ActorFromContext(c.Request.Context())
	if !ok {
		return ErrUnauthorized
	}
	if s.authzSvc == nil {
		return ErrForbidden
	}
	return s.authzSvc.Authorize(c.Request.Context(), actor.Role, object, action)
}
