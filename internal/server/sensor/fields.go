package sensor

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	fielddomain "github.com/smallbiznis/fieldwatch/internal/field/domain"
	"github.com/smallbiznis/fieldwatch/internal/server"
)

type createFieldRequest struct {
	Name   string      `json:"name"`
	City   string      `json:"city"`
	UserID json.Number `json:"user_id"`
}

type updateFieldRequest struct {
	Name *string `json:"name"`
	City *string `json:"city"`
}

func (s *Server) ListFields(c *gin.Context) {
	resp, err := s.fieldSvc.List(c.Request.Context(), userIDParam(c))
	if err != nil {
		server.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateField(c *gin.Context) {
	var req createFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.AbortWithError(c, server.InvalidRequestError())
		return
	}

	userID := server.IDString(req.UserID)
	if userID == "" {
		userID = userIDParam(c)
	}

	resp, err := s.fieldSvc.Create(c.Request.Context(), fielddomain.CreateFieldRequest{
		Name:   req.Name,
		City:   strings.TrimSpace(req.City),
		UserID: userID,
	})
	if err != nil {
		server.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateField(c *gin.Context) {
	var req updateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.AbortWithError(c, server.InvalidRequestError())
		return
	}

	resp, err := s.fieldSvc.Update(c.Request.Context(), fielddomain.UpdateFieldRequest{
		ID:     c.Param("id"),
		UserID: userIDParam(c),
		Name:   req.Name,
		City:   req.City,
	})
	if err != nil {
		server.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteField(c *gin.Context) {
	if err := s.fieldSvc.Delete(c.Request.Context(), c.Param("id"), userIDParam(c)); err != nil {
		server.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, deleted("Field deleted successfully"))
}
