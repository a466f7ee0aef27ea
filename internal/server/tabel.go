package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	tabeldomain "github.com/opencare/tabel/internal/tabel/domain"
)

type tabelCellQuery struct {
	ResidentID string `form:"resident_id"`
	ServiceID  string `form:"service_id"`
	Date       string `form:"date"`
}

func (s *Server) GetTabelCell(c *gin.Context) {
	var query tabelCellQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, tabeldomain.ErrInvalidID)
		return
	}

	quantity, err := s.tabelSvc.Cell(c.Request.Context(), actorFrom(c), tabeldomain.CellQuery{
		ResidentID: query.ResidentID,
		ServiceID:  query.ServiceID,
		Date:       query.Date,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quantity": quantity})
}

type tabelLogRequest struct {
	ResidentID string   `json:"resident_id"`
	ServiceID  string   `json:"service_id"`
	Date       string   `json:"date"`
	Dates      []string `json:"dates"`
	Quantity   string   `json:"quantity"`
}

// UpsertTabelLog is the single mutation entry point: one date writes a
// cell with quota enforcement, a day list runs the batch mode where every
// date commits on its own and the quota check is skipped.
func (s *Server) UpsertTabelLog(c *gin.Context) {
	var req tabelLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, tabeldomain.ErrInvalidQuantity)
		return
	}

	if len(req.Dates) > 0 {
		result, err := s.tabelSvc.UpsertRow(c.Request.Context(), actorFrom(c), tabeldomain.UpsertRowRequest{
			ResidentID: req.ResidentID,
			ServiceID:  req.ServiceID,
			Dates:      req.Dates,
			Quantity:   req.Quantity,
		})
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"total": result.Total, "days_saved": result.DaysSaved})
		return
	}

	result, err := s.tabelSvc.UpsertCell(c.Request.Context(), actorFrom(c), tabeldomain.UpsertCellRequest{
		ResidentID: req.ResidentID,
		ServiceID:  req.ServiceID,
		Date:       req.Date,
		Quantity:   req.Quantity,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quantity":     result.Quantity,
		"total":        result.Total,
		"max_quantity": result.MaxQuantity,
	})
}

type tabelMonthRequest struct {
	ResidentID string `json:"resident_id"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
}

func (s *Server) ClearTabelMonth(c *gin.Context) {
	var req tabelMonthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, tabeldomain.ErrInvalidPeriod)
		return
	}

	deleted, err := s.tabelSvc.ClearMonth(c.Request.Context(), actorFrom(c), tabeldomain.MonthScope{
		ResidentID: req.ResidentID,
		Year:       req.Year,
		Month:      req.Month,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted_count": deleted})
}

type tabelDayRequest struct {
	ResidentID string `json:"resident_id"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Day        int    `json:"day"`
}

func (s *Server) ClearTabelDay(c *gin.Context) {
	var req tabelDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, tabeldomain.ErrInvalidDate)
		return
	}

	deleted, err := s.tabelSvc.ClearDay(c.Request.Context(), actorFrom(c), tabeldomain.ClearDayRequest{
		ResidentID: req.ResidentID,
		Year:       req.Year,
		Month:      req.Month,
		Day:        req.Day,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted_count": deleted})
}

func (s *Server) AutofillTabel(c *gin.Context) {
	var req tabelMonthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, tabeldomain.ErrInvalidPeriod)
		return
	}

	filled, err := s.tabelSvc.Autofill(c.Request.Context(), actorFrom(c), tabeldomain.MonthScope{
		ResidentID: req.ResidentID,
		Year:       req.Year,
		Month:      req.Month,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"filled_count": filled})
}

type tabelMonthQuery struct {
	ResidentID string `form:"resident_id"`
	Year       int    `form:"year"`
	Month      int    `form:"month"`
}

func (s *Server) GetTabelLogs(c *gin.Context) {
	var query tabelMonthQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, tabeldomain.ErrInvalidPeriod)
		return
	}

	cells, err := s.tabelSvc.MonthLogs(c.Request.Context(), actorFrom(c), tabeldomain.MonthScope{
		ResidentID: query.ResidentID,
		Year:       query.Year,
		Month:      query.Month,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": cells})
}

func (s *Server) GetTabelTotals(c *gin.Context) {
	var query tabelMonthQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, tabeldomain.ErrInvalidPeriod)
		return
	}

	totals, err := s.tabelSvc.AggregateByService(c.Request.Context(), actorFrom(c), tabeldomain.MonthScope{
		ResidentID: query.ResidentID,
		Year:       query.Year,
		Month:      query.Month,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": totals})
}

func (s *Server) ToggleTabelLock(c *gin.Context) {
	var req tabelMonthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, tabeldomain.ErrInvalidPeriod)
		return
	}

	locked, err := s.tabelSvc.ToggleLock(c.Request.Context(), actorFrom(c), tabeldomain.MonthScope{
		ResidentID: req.ResidentID,
		Year:       req.Year,
		Month:      req.Month,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"is_locked": locked})
}

func (s *Server) GetTabelLockState(c *gin.Context) {
	var query tabelMonthQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, tabeldomain.ErrInvalidPeriod)
		return
	}

	locked, err := s.tabelSvc.LockState(c.Request.Context(), actorFrom(c), tabeldomain.MonthScope{
		ResidentID: query.ResidentID,
		Year:       query.Year,
		Month:      query.Month,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"is_locked": locked})
}
