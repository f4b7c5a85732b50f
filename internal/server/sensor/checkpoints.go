package sensor

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	checkpointdomain "github.com/smallbiznis/fieldwatch/internal/checkpoint/domain"
	"github.com/smallbiznis/fieldwatch/internal/server"
)

type createCheckpointRequest struct {
	Name    string      `json:"name"`
	FieldID json.Number `json:"field_id"`
}

type updateCheckpointRequest struct {
	Name *string `json:"name"`
}

func (s *Server) CreateCheckpoint(c *gin.Context) {
	var req createCheckpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.AbortWithError(c, server.InvalidRequestError())
		return
	}

	resp, err := s.checkpointSvc.Create(c.Request.Context(), checkpointdomain.CreateCheckpointRequest{
		Name:    req.Name,
		FieldID: server.IDString(req.FieldID),
		UserID:  userIDParam(c),
	})
	if err != nil {
		server.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateCheckpoint(c *gin.Context) {
	var req updateCheckpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.AbortWithError(c, server.InvalidRequestError())
		return
	}

	resp, err := s.checkpointSvc.Update(c.Request.Context(), checkpointdomain.UpdateCheckpointRequest{
		ID:     c.Param("id"),
		UserID: userIDParam(c),
		Name:   req.Name,
	})
	if err != nil {
		server.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteCheckpoint(c *gin.Context) {
	if err := s.checkpointSvc.Delete(c.Request.Context(), c.Param("id"), userIDParam(c)); err != nil {
		server.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, deleted("Checkpoint deleted successfully"))
}
