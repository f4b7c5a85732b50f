package sensor

import (
	"net/http"

	"github.com/gin-gonic/gin"
	pumpdomain "github.com/smallbiznis/fieldwatch/internal/pump/domain"
	"github.com/smallbiznis/fieldwatch/internal/server"
)

type controlPumpRequest struct {
	IsOn *bool `json:"is_on"`
}

func (s *Server) ListPumps(c *gin.Context) {
	resp, err := s.pumpSvc.List(c.Request.Context())
	if err != nil {
		server.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ControlPump(c *gin.Context) {
	var req controlPumpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.AbortWithError(c, server.InvalidRequestError())
		return
	}
	if req.IsOn == nil {
		server.AbortWithError(c, server.NewValidationError("is_on", "required", "is_on is required"))
		return
	}

	resp, err := s.pumpSvc.Control(c.Request.Context(), c.Param("id"), pumpdomain.Control{IsOn: *req.IsOn})
	if err != nil {
		server.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
