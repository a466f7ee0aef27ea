package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/opencare/tabel/internal/billing/domain"
)

type actQuery struct {
	ResidentID string `form:"resident_id"`
	Year       int    `form:"year"`
	Month      int    `form:"month"`
}

func (s *Server) GetAct(c *gin.Context) {
	var query actQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, billingdomain.ErrInvalidPeriod)
		return
	}

	act, err := s.billingSvc.Act(c.Request.Context(), actorFrom(c), billingdomain.ActRequest{
		ResidentID: query.ResidentID,
		Year:       query.Year,
		Month:      query.Month,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": act})
}
