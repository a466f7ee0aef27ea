package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/opencare/tabel/internal/catalog/domain"
)

func (s *Server) ListServices(c *gin.Context) {
	services, err := s.catalogSvc.ListServices(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": services})
}

func (s *Server) CreateService(c *gin.Context) {
	var req catalogdomain.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, catalogdomain.ErrInvalidName)
		return
	}

	service, err := s.catalogSvc.CreateService(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": service})
}

func (s *Server) UpdateService(c *gin.Context) {
	var req catalogdomain.UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, catalogdomain.ErrInvalidID)
		return
	}
	req.ID = c.Param("id")

	service, err := s.catalogSvc.UpdateService(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": service})
}

func (s *Server) CreateCategory(c *gin.Context) {
	var req catalogdomain.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, catalogdomain.ErrInvalidName)
		return
	}

	category, err := s.catalogSvc.CreateCategory(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": category})
}

func (s *Server) CreateFrequency(c *gin.Context) {
	var req catalogdomain.CreateFrequencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, catalogdomain.ErrInvalidName)
		return
	}

	frequency, err := s.catalogSvc.CreateFrequency(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": frequency})
}

func (s *Server) SetSchedule(c *gin.Context) {
	var req catalogdomain.SetScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, catalogdomain.ErrInvalidWeekday)
		return
	}

	schedule, err := s.catalogSvc.SetSchedule(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": schedule})
}
