package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opencare/tabel/internal/authorization"
	billingdomain "github.com/opencare/tabel/internal/billing/domain"
	catalogdomain "github.com/opencare/tabel/internal/catalog/domain"
	departmentdomain "github.com/opencare/tabel/internal/department/domain"
	residentdomain "github.com/opencare/tabel/internal/resident/domain"
	tabeldomain "github.com/opencare/tabel/internal/tabel/domain"
)

type errorPayload struct {
	Type         string `json:"type"`
	Message      string `json:"message"`
	Locked       bool   `json:"locked,omitempty"`
	MaxQuantity  *int   `json:"max_quantity,omitempty"`
	CurrentTotal string `json:"current_total,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// ErrorHandlingMiddleware converts domain errors collected on the gin
// context into the HTTP error contract. Handlers push errors with
// AbortWithError and never write error JSON themselves.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var quotaErr *tabeldomain.QuotaExceededError
	if errors.As(err, &quotaErr) {
		limit := quotaErr.Limit
		return http.StatusBadRequest, errorPayload{
			Type:         "quota_exceeded",
			Message:      "monthly quota exceeded",
			MaxQuantity:  &limit,
			CurrentTotal: quotaErr.CurrentTotal.String(),
		}
	}

	switch {
	case errors.Is(err, authorization.ErrInvalidActor):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "caller identity is missing or malformed",
		}
	case errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "access_denied",
			Message: "access denied",
		}
	case errors.Is(err, tabeldomain.ErrTabelLocked):
		return http.StatusForbidden, errorPayload{
			Type:    "tabel_locked",
			Message: "the month is locked",
			Locked:  true,
		}
	case errors.Is(err, tabeldomain.ErrQuotaExceeded):
		return http.StatusBadRequest, errorPayload{
			Type:    "quota_exceeded",
			Message: "monthly quota exceeded",
		}
	case errors.Is(err, tabeldomain.ErrAutofillSkipped):
		return http.StatusConflict, errorPayload{
			Type:    "autofill_skipped",
			Message: "resident status is not active",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_input",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, tabeldomain.ErrNotFound),
		errors.Is(err, residentdomain.ErrNotFound),
		errors.Is(err, departmentdomain.ErrNotFound),
		errors.Is(err, catalogdomain.ErrNotFound),
		errors.Is(err, billingdomain.ErrNotFound):
		return true
	default:
		return false
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, tabeldomain.ErrInvalidID),
		errors.Is(err, tabeldomain.ErrInvalidDate),
		errors.Is(err, tabeldomain.ErrInvalidPeriod),
		errors.Is(err, tabeldomain.ErrInvalidQuantity),
		errors.Is(err, residentdomain.ErrInvalidID),
		errors.Is(err, residentdomain.ErrInvalidName),
		errors.Is(err, residentdomain.ErrInvalidDate),
		errors.Is(err, residentdomain.ErrInvalidPeriod),
		errors.Is(err, residentdomain.ErrInvalidAmount),
		errors.Is(err, residentdomain.ErrInvalidNumber),
		errors.Is(err, residentdomain.ErrNoServices),
		errors.Is(err, residentdomain.ErrContractClosed),
		errors.Is(err, departmentdomain.ErrInvalidID),
		errors.Is(err, departmentdomain.ErrInvalidName),
		errors.Is(err, departmentdomain.ErrInvalidCode),
		errors.Is(err, departmentdomain.ErrInvalidType),
		errors.Is(err, departmentdomain.ErrCodeTaken),
		errors.Is(err, catalogdomain.ErrInvalidID),
		errors.Is(err, catalogdomain.ErrInvalidCode),
		errors.Is(err, catalogdomain.ErrInvalidName),
		errors.Is(err, catalogdomain.ErrInvalidPeriod),
		errors.Is(err, catalogdomain.ErrInvalidPrice),
		errors.Is(err, catalogdomain.ErrInvalidQuantity),
		errors.Is(err, catalogdomain.ErrInvalidWeekday),
		errors.Is(err, catalogdomain.ErrCodeTaken),
		errors.Is(err, billingdomain.ErrInvalidID),
		errors.Is(err, billingdomain.ErrInvalidPeriod):
		return true
	default:
		return false
	}
}
