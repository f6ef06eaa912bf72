package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
)

func (s *Server) GetTrackingTimeline(c *gin.Context) {
	resp, err := s.trackingSvc.Timeline(c.Request.Context(), strings.TrimSpace(c.Param("orderId")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListTracking(c *gin.Context) {
	resp, err := s.trackingSvc.ListByOrder(c.Request.Context(), strings.TrimSpace(c.Param("orderId")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) UpdateTracking(c *gin.Context) {
	var req orderdomain.UpdateTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.trackingSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteTracking(c *gin.Context) {
	if err := s.trackingSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
