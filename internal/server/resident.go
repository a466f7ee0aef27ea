package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	residentdomain "github.com/opencare/tabel/internal/resident/domain"
)

func (s *Server) CreateResident(c *gin.Context) {
	var req residentdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, residentdomain.ErrInvalidName)
		return
	}

	resp, err := s.residentSvc.Create(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListResidents(c *gin.Context) {
	residents, err := s.residentSvc.List(c.Request.Context(), actorFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": residents})
}

func (s *Server) GetResident(c *gin.Context) {
	resp, err := s.residentSvc.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ApplyPlacementChange(c *gin.Context) {
	var req residentdomain.PlacementChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, residentdomain.ErrInvalidID)
		return
	}
	req.ResidentID = c.Param("id")

	resp, err := s.residentSvc.ApplyPlacementChange(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetStatusHistory(c *gin.Context) {
	entries, err := s.residentSvc.StatusHistory(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}

func (s *Server) GetPlacementHistory(c *gin.Context) {
	entries, err := s.residentSvc.PlacementHistory(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}

func (s *Server) GetEntitlements(c *gin.Context) {
	serviceIDs, err := s.residentSvc.Entitlements(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": serviceIDs})
}

func (s *Server) CreateContract(c *gin.Context) {
	var req residentdomain.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, residentdomain.ErrInvalidNumber)
		return
	}
	req.ResidentID = c.Param("id")

	contract, err := s.residentSvc.CreateContract(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": contract})
}

func (s *Server) SetContractServices(c *gin.Context) {
	var req residentdomain.SetContractServicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, residentdomain.ErrNoServices)
		return
	}
	req.ContractID = c.Param("id")

	if err := s.residentSvc.SetContractServices(c.Request.Context(), actorFrom(c), req); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) SetMonthlyData(c *gin.Context) {
	var req residentdomain.SetMonthlyDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, residentdomain.ErrInvalidAmount)
		return
	}
	req.ResidentID = c.Param("id")

	data, err := s.residentSvc.SetMonthlyData(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": data})
}

type monthlyDataQuery struct {
	Year  int `form:"year"`
	Month int `form:"month"`
}

func (s *Server) GetMonthlyData(c *gin.Context) {
	var query monthlyDataQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, residentdomain.ErrInvalidPeriod)
		return
	}

	data, err := s.residentSvc.GetMonthlyData(c.Request.Context(), actorFrom(c), c.Param("id"), query.Year, query.Month)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": data})
}
