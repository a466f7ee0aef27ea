package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/opencare/tabel/internal/actor"
	tabeldomain "github.com/opencare/tabel/internal/tabel/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type tabelStub struct {
	tabeldomain.Service

	upsertCell func(a actor.Actor, req tabeldomain.UpsertCellRequest) (*tabeldomain.CellResult, error)
	toggleLock func(a actor.Actor, req tabeldomain.MonthScope) (bool, error)
}

func (s *tabelStub) UpsertCell(_ context.Context, a actor.Actor, req tabeldomain.UpsertCellRequest) (*tabeldomain.CellResult, error) {
	return s.upsertCell(a, req)
}

func (s *tabelStub) ToggleLock(_ context.Context, a actor.Actor, req tabeldomain.MonthScope) (bool, error) {
	return s.toggleLock(a, req)
}

func newTestServer(t *testing.T, stub *tabelStub) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandlingMiddleware())

	s := &Server{engine: r, tabelSvc: stub}
	s.engine.POST("/api/tabel/log", ActorMiddleware(), s.UpsertTabelLog)
	s.engine.POST("/api/tabel/lock", ActorMiddleware(), s.ToggleTabelLock)
	return r
}

func TestUpsertTabelLogForwardsActor(t *testing.T) {
	var seen actor.Actor
	stub := &tabelStub{
		upsertCell: func(a actor.Actor, req tabeldomain.UpsertCellRequest) (*tabeldomain.CellResult, error) {
			seen = a
			return &tabeldomain.CellResult{
				Quantity: decimal.NewFromInt(2),
				Total:    decimal.NewFromInt(5),
			}, nil
		},
	}
	r := newTestServer(t, stub)

	actorID := snowflake.ID(42)
	body := `{"resident_id":"1","service_id":"2","date":"2024-03-04","quantity":"2"}`
	req := httptest.NewRequest(http.MethodPost, "/api/tabel/log", strings.NewReader(body))
	req.Header.Set("X-Actor-Id", actorID.String())
	req.Header.Set("X-Actor-Role", "Admin")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, actorID, seen.ID)
	assert.Equal(t, "admin", seen.Role)

	var resp struct {
		Quantity string `json:"quantity"`
		Total    string `json:"total"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2", resp.Quantity)
	assert.Equal(t, "5", resp.Total)
}

func TestUpsertTabelLogQuotaExceededPayload(t *testing.T) {
	stub := &tabelStub{
		upsertCell: func(actor.Actor, tabeldomain.UpsertCellRequest) (*tabeldomain.CellResult, error) {
			return nil, &tabeldomain.QuotaExceededError{Limit: 8, CurrentTotal: decimal.NewFromInt(8)}
		},
	}
	r := newTestServer(t, stub)

	body := `{"resident_id":"1","service_id":"2","date":"2024-03-04","quantity":"2"}`
	req := httptest.NewRequest(http.MethodPost, "/api/tabel/log", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "quota_exceeded", resp.Error.Type)
	if assert.NotNil(t, resp.Error.MaxQuantity) {
		assert.Equal(t, 8, *resp.Error.MaxQuantity)
	}
	assert.Equal(t, "8", resp.Error.CurrentTotal)
}

func TestToggleTabelLockMapsLockedError(t *testing.T) {
	stub := &tabelStub{
		upsertCell: func(actor.Actor, tabeldomain.UpsertCellRequest) (*tabeldomain.CellResult, error) {
			return nil, tabeldomain.ErrTabelLocked
		},
		toggleLock: func(actor.Actor, tabeldomain.MonthScope) (bool, error) {
			return true, nil
		},
	}
	r := newTestServer(t, stub)

	body := `{"resident_id":"1","service_id":"2","date":"2024-03-04","quantity":"2"}`
	req := httptest.NewRequest(http.MethodPost, "/api/tabel/log", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)

	var resp errorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "tabel_locked", resp.Error.Type)
	assert.True(t, resp.Error.Locked)

	lockReq := httptest.NewRequest(http.MethodPost, "/api/tabel/lock", strings.NewReader(`{"resident_id":"1","year":2024,"month":3}`))
	lockRec := httptest.NewRecorder()
	r.ServeHTTP(lockRec, lockReq)

	assert.Equal(t, http.StatusOK, lockRec.Code)
	assert.JSONEq(t, `{"is_locked":true}`, lockRec.Body.String())
}
