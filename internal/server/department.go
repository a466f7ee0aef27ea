package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	departmentdomain "github.com/opencare/tabel/internal/department/domain"
)

type listDepartmentsQuery struct {
	ResidenceOnly bool `form:"residence_only"`
}

func (s *Server) ListDepartments(c *gin.Context) {
	var query listDepartmentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, departmentdomain.ErrInvalidType)
		return
	}

	departments, err := s.departmentSvc.List(c.Request.Context(), departmentdomain.ListRequest{
		ResidenceOnly: query.ResidenceOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": departments})
}

func (s *Server) CreateDepartment(c *gin.Context) {
	var req departmentdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, departmentdomain.ErrInvalidName)
		return
	}

	department, err := s.departmentSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": department})
}

func (s *Server) ListDepartmentResidents(c *gin.Context) {
	residents, err := s.residentSvc.ListByDepartment(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": residents})
}

func (s *Server) ListDepartmentSchedules(c *gin.Context) {
	schedules, err := s.catalogSvc.ListSchedules(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": schedules})
}
