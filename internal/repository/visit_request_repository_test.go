package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pg-rental-management/internal/model"
)

func TestVisitHasActiveTx(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewVisitRequestRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM visit_requests`).
		WithArgs(uint64(7), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	active, err := repo.HasActiveTx(ctx, tx, 7, 3)
	require.NoError(t, err)
	assert.True(t, active)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVisitCreateTx(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	t.Run("insert populates id, status and timestamps", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewVisitRequestRepo(db)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO visit_requests`).
			WithArgs(uint64(7), uint64(3), uint64(2), nil, "2026-04-10", "10:00-11:00", "").
			WillReturnResult(sqlmock.NewResult(42, 1))
		mock.ExpectQuery(`FROM visit_requests WHERE id = \?`).
			WithArgs(uint64(42)).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "tenant_user_id", "pg_id", "owner_id", "room_id", "requested_date", "requested_time",
				"status", "rescheduled_date", "rescheduled_time", "rescheduled_by", "confirmed_date", "confirmed_time",
				"notes", "owner_notes", "created_at", "updated_at",
			}).AddRow(42, 7, 3, 2, nil, "2026-04-10", "10:00-11:00",
				"pending", nil, nil, nil, nil, nil, "", "", now, now))
		mock.ExpectCommit()

		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		v := &model.VisitRequest{
			TenantUserID:  7,
			PgID:          3,
			OwnerID:       2,
			RequestedDate: "2026-04-10",
			RequestedTime: "10:00-11:00",
		}
		require.NoError(t, repo.CreateTx(ctx, tx, v))
		assert.Equal(t, uint64(42), v.ID)
		assert.Equal(t, model.VisitPending, v.Status)
		assert.Nil(t, v.RoomID)
		assert.Equal(t, now, v.CreatedAt)
		require.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate key maps to the domain sentinel", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewVisitRequestRepo(db)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO visit_requests`).
			WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))
		mock.ExpectRollback()

		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		v := &model.VisitRequest{TenantUserID: 7, PgID: 3, OwnerID: 2, RequestedDate: "2026-04-10", RequestedTime: "10:00"}
		err = repo.CreateTx(ctx, tx, v)
		assert.ErrorIs(t, err, ErrDuplicateActiveRequest)
		require.NoError(t, tx.Rollback())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
