package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pg-rental-management/internal/repository"
)

func newTenantHandlerWithMock(t *testing.T) (*TenantHandler, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	h := NewTenantHandler(
		repository.NewPgRepo(db),
		repository.NewRoomRepo(db),
		repository.NewVisitRequestRepo(db),
		repository.NewOnboardingRequestRepo(db),
	)
	return h, mock, db
}

func tenantContext(t *testing.T, method, target, body string, userID uint64, paramNames, paramValues []string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames(paramNames...)
	c.SetParamValues(paramValues...)
	c.Set("user_id", float64(userID))
	c.Set("role", "APPLICANT")
	return c, rec
}

func pgRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "owner_id", "name", "address", "created_at", "updated_at"}).
		AddRow(3, 2, "Sunrise PG", "12 MG Road", "2026-01-01", "2026-01-01")
}

func TestCreateVisitRequestValidation(t *testing.T) {
	t.Run("past date is rejected before touching the database", func(t *testing.T) {
		h, mock, db := newTenantHandlerWithMock(t)
		defer db.Close()

		c, rec := tenantContext(t, http.MethodPost, "/v1/visit-requests",
			`{"pg_id":3,"date":"2020-01-01","time":"10:00"}`, 7, nil, nil)
		require.NoError(t, h.CreateVisitRequest(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "past")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second active request for the same pg conflicts", func(t *testing.T) {
		h, mock, db := newTenantHandlerWithMock(t)
		defer db.Close()

		future := time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02")
		mock.ExpectQuery(`FROM pgs WHERE id = \?`).
			WithArgs(uint64(3)).WillReturnRows(pgRow())
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM visit_requests`).
			WithArgs(uint64(7), uint64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectRollback()

		c, rec := tenantContext(t, http.MethodPost, "/v1/visit-requests",
			`{"pg_id":3,"date":"`+future+`","time":"10:00"}`, 7, nil, nil)
		require.NoError(t, h.CreateVisitRequest(c))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "already exists")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRescheduleVisitByTenant(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	pendingRow := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"id", "tenant_user_id", "pg_id", "owner_id", "room_id", "requested_date", "requested_time",
			"status", "rescheduled_date", "rescheduled_time", "rescheduled_by", "confirmed_date", "confirmed_time",
			"notes", "owner_notes", "created_at", "updated_at",
		}).AddRow(4, 7, 3, 2, nil, "2026-06-01", "10:00",
			"pending", nil, nil, nil, nil, nil, "", "", now, now)
	}

	t.Run("tenant proposes a new slot", func(t *testing.T) {
		h, mock, db := newTenantHandlerWithMock(t)
		defer db.Close()

		future := time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02")
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM visit_requests WHERE id = \? FOR UPDATE`).
			WithArgs(uint64(4)).WillReturnRows(pendingRow())
		mock.ExpectExec(`SET status = 'rescheduled'`).
			WithArgs(future, "17:00", "tenant", uint64(4)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		c, rec := tenantContext(t, http.MethodPatch, "/v1/visit-requests/4/reschedule",
			`{"date":"`+future+`","time":"17:00"}`, 7, []string{"id"}, []string{"4"})
		require.NoError(t, h.RescheduleVisit(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "rescheduled")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("past proposal is rejected before touching the database", func(t *testing.T) {
		h, mock, db := newTenantHandlerWithMock(t)
		defer db.Close()

		c, rec := tenantContext(t, http.MethodPatch, "/v1/visit-requests/4/reschedule",
			`{"date":"2020-01-01","time":"17:00"}`, 7, []string{"id"}, []string{"4"})
		require.NoError(t, h.RescheduleVisit(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("tenant cannot accept their own proposal", func(t *testing.T) {
		h, mock, db := newTenantHandlerWithMock(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM visit_requests WHERE id = \? FOR UPDATE`).
			WithArgs(uint64(4)).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "tenant_user_id", "pg_id", "owner_id", "room_id", "requested_date", "requested_time",
				"status", "rescheduled_date", "rescheduled_time", "rescheduled_by", "confirmed_date", "confirmed_time",
				"notes", "owner_notes", "created_at", "updated_at",
			}).AddRow(4, 7, 3, 2, nil, "2026-06-01", "10:00",
				"rescheduled", "2026-06-02", "17:00", "tenant", nil, nil, "", "", now, now))
		mock.ExpectRollback()

		c, rec := tenantContext(t, http.MethodPatch, "/v1/visit-requests/4/accept-reschedule", "", 7, []string{"id"}, []string{"4"})
		require.NoError(t, h.AcceptReschedule(c))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCompleteVisitDateGate(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	visitRow := func(status, requested string, confirmed interface{}) *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"id", "tenant_user_id", "pg_id", "owner_id", "room_id", "requested_date", "requested_time",
			"status", "rescheduled_date", "rescheduled_time", "rescheduled_by", "confirmed_date", "confirmed_time",
			"notes", "owner_notes", "created_at", "updated_at",
		}).AddRow(4, 7, 3, 2, nil, requested, "10:00",
			status, nil, nil, nil, confirmed, "10:00", "", "", now, now)
	}

	t.Run("cannot complete before the visit date", func(t *testing.T) {
		h, mock, db := newTenantHandlerWithMock(t)
		defer db.Close()

		future := time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02")
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM visit_requests WHERE id = \? FOR UPDATE`).
			WithArgs(uint64(4)).WillReturnRows(visitRow("approved", future, future))
		mock.ExpectRollback()

		c, rec := tenantContext(t, http.MethodPatch, "/v1/visit-requests/4/complete", "", 7, []string{"id"}, []string{"4"})
		require.NoError(t, h.CompleteVisit(c))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "has not arrived")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("completes once the confirmed date has passed", func(t *testing.T) {
		h, mock, db := newTenantHandlerWithMock(t)
		defer db.Close()

		past := time.Now().UTC().AddDate(0, 0, -2).Format("2006-01-02")
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM visit_requests WHERE id = \? FOR UPDATE`).
			WithArgs(uint64(4)).WillReturnRows(visitRow("approved", past, past))
		mock.ExpectExec(`UPDATE visit_requests`).
			WithArgs(uint64(4)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		c, rec := tenantContext(t, http.MethodPatch, "/v1/visit-requests/4/complete", "", 7, []string{"id"}, []string{"4"})
		require.NoError(t, h.CompleteVisit(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "completed")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("only the requesting tenant can complete", func(t *testing.T) {
		h, mock, db := newTenantHandlerWithMock(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM visit_requests WHERE id = \? FOR UPDATE`).
			WithArgs(uint64(4)).WillReturnRows(visitRow("approved", "2026-04-01", nil))
		mock.ExpectRollback()

		c, rec := tenantContext(t, http.MethodPatch, "/v1/visit-requests/4/complete", "", 99, []string{"id"}, []string{"4"})
		require.NoError(t, h.CompleteVisit(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
