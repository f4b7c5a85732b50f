package gateway

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/fieldwatch/internal/auth/domain"
	"github.com/smallbiznis/fieldwatch/internal/server"
	"github.com/smallbiznis/fieldwatch/internal/weather"
	"go.uber.org/zap"
)

func (s *Server) GetWeather(c *gin.Context) {
	report, err := s.fetchWeather(c, c.Query("city"))
	if err != nil {
		server.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}

func (s *Server) fetchWeather(c *gin.Context, city string) (*weather.Report, error) {
	user, ok := server.CurrentUser(c)
	if !ok {
		return nil, server.ErrUnauthorized
	}
	if err := s.allowWeather(c, user); err != nil {
		return nil, err
	}
	c.Set("upstream", "openweathermap")
	return s.weather.Fetch(c.Request.Context(), city)
}

// allowWeather applies the per-user token bucket. Limiter failures fail open.
func (s *Server) allowWeather(c *gin.Context, user *authdomain.User) error {
	ctx := c.Request.Context()
	result, err := s.limiter.Allow(ctx, user.ID.String())
	if err != nil {
		s.log.Warn("weather rate limiter unavailable", zap.Error(err))
		return nil
	}
	if result.Allowed {
		return nil
	}

	s.recordDenied(ctx)
	if result.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
	}
	return server.ErrRateLimited
}

func (s *Server) recordDenied(ctx context.Context) {
	s.obsMetrics.RecordRateLimitDenied(ctx, "weather", "bucket_exhausted")
}
