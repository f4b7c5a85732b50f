package gateway

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/fieldwatch/internal/auth/domain"
	"github.com/smallbiznis/fieldwatch/internal/authorization"
	obscontext "github.com/smallbiznis/fieldwatch/internal/observability/context"
	"github.com/smallbiznis/fieldwatch/internal/server"
	"go.uber.org/zap"
)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

func (s *Server) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.AbortWithError(c, server.InvalidRequestError())
		return
	}

	user, err := s.authsvc.Signup(c.Request.Context(), authdomain.SignupRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		server.AbortWithError(c, err)
		return
	}

	if err := s.authzSvc.EnsureRole(c.Request.Context(), authorization.UserSubject(user.ID)); err != nil {
		s.log.Warn("assign default role failed", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"data": user})
}

// Token implements the OAuth2 password grant used by the original clients.
func (s *Server) Token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBind(&req); err != nil {
		server.AbortWithError(c, server.InvalidRequestError())
		return
	}

	token, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Username: strings.TrimSpace(req.Username),
		Password: req.Password,
	})
	if err != nil {
		server.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, token)
}

func (s *Server) Me(c *gin.Context) {
	user, ok := server.CurrentUser(c)
	if !ok {
		server.AbortWithError(c, server.ErrUnauthorized)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": user})
}

// AuthRequired resolves the bearer token into the current user.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := server.BearerToken(c)
		if !ok {
			server.AbortWithError(c, server.ErrUnauthorized)
			return
		}

		user, err := s.authsvc.Authenticate(c.Request.Context(), raw)
		if err != nil {
			server.AbortWithError(c, err)
			return
		}

		server.SetCurrentUser(c, user)
		ctx := obscontext.WithUser(c.Request.Context(), user.ID.String(), user.Username)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) authorize(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := server.CurrentUser(c)
		if !ok {
			server.AbortWithError(c, server.ErrUnauthorized)
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), authorization.UserSubject(user.ID), object, action); err != nil {
			server.AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
