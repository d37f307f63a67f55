package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pg-rental-management/internal/model"
)

func roomRows(id, pgID, ownerID uint64, number string, sharing uint32, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "pg_id", "owner_id", "room_number", "sharing", "monthly_rent_cents", "status", "created_at", "updated_at",
	}).AddRow(id, pgID, ownerID, number, sharing, 750000, status, "2026-01-01 00:00:00", "2026-01-01 00:00:00")
}

const (
	roomLockPattern       = `FROM rooms WHERE id = \? FOR UPDATE`
	membershipPattern     = `SELECT COUNT\(\*\) FROM room_occupants WHERE room_id = \? AND tenant_id = \?`
	occupantCountPattern  = `SELECT COUNT\(\*\) FROM room_occupants WHERE room_id = \?`
	occupantInsertPattern = `INSERT INTO room_occupants \(room_id, tenant_id\) VALUES \(\?, \?\)`
	statusUpdatePattern   = `UPDATE rooms SET status = \?, updated_at = CURRENT_TIMESTAMP WHERE id = \?`
)

func TestAssignTenantTx(t *testing.T) {
	ctx := context.Background()

	t.Run("fills a slot and recomputes status", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRoomRepo(db)

		mock.ExpectBegin()
		mock.ExpectQuery(roomLockPattern).WithArgs(uint64(5)).
			WillReturnRows(roomRows(5, 1, 2, "101", 2, model.RoomVacant))
		mock.ExpectQuery(membershipPattern).WithArgs(uint64(5), uint64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(occupantCountPattern).WithArgs(uint64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec(occupantInsertPattern).WithArgs(uint64(5), uint64(9)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(statusUpdatePattern).WithArgs(model.RoomPartiallyOccupied, uint64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		status, err := repo.AssignTenantTx(ctx, tx, 5, 9)
		require.NoError(t, err)
		assert.Equal(t, model.RoomPartiallyOccupied, status)
		require.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("refuses a full room", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRoomRepo(db)

		mock.ExpectBegin()
		mock.ExpectQuery(roomLockPattern).WithArgs(uint64(5)).
			WillReturnRows(roomRows(5, 1, 2, "101", 2, model.RoomFullyOccupied))
		mock.ExpectQuery(membershipPattern).WithArgs(uint64(5), uint64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(occupantCountPattern).WithArgs(uint64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectRollback()

		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		_, err = repo.AssignTenantTx(ctx, tx, 5, 9)
		assert.ErrorIs(t, err, ErrRoomFull)
		require.NoError(t, tx.Rollback())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("assigning an existing occupant is a no-op", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRoomRepo(db)

		mock.ExpectBegin()
		mock.ExpectQuery(roomLockPattern).WithArgs(uint64(5)).
			WillReturnRows(roomRows(5, 1, 2, "101", 2, model.RoomPartiallyOccupied))
		mock.ExpectQuery(membershipPattern).WithArgs(uint64(5), uint64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectCommit()

		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		status, err := repo.AssignTenantTx(ctx, tx, 5, 9)
		require.NoError(t, err)
		assert.Equal(t, model.RoomPartiallyOccupied, status)
		require.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReleaseTenantTx(t *testing.T) {
	ctx := context.Background()

	t.Run("vacating the last occupant leaves the room vacant", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRoomRepo(db)

		mock.ExpectBegin()
		mock.ExpectQuery(roomLockPattern).WithArgs(uint64(5)).
			WillReturnRows(roomRows(5, 1, 2, "101", 2, model.RoomPartiallyOccupied))
		mock.ExpectExec(`DELETE FROM room_occupants WHERE room_id = \? AND tenant_id = \?`).
			WithArgs(uint64(5), uint64(9)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(occupantCountPattern).WithArgs(uint64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec(statusUpdatePattern).WithArgs(model.RoomVacant, uint64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		status, err := repo.ReleaseTenantTx(ctx, tx, 5, 9)
		require.NoError(t, err)
		assert.Equal(t, model.RoomVacant, status)
		require.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("releasing a non-occupant changes nothing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRoomRepo(db)

		mock.ExpectBegin()
		mock.ExpectQuery(roomLockPattern).WithArgs(uint64(5)).
			WillReturnRows(roomRows(5, 1, 2, "101", 2, model.RoomVacant))
		mock.ExpectExec(`DELETE FROM room_occupants WHERE room_id = \? AND tenant_id = \?`).
			WithArgs(uint64(5), uint64(9)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		status, err := repo.ReleaseTenantTx(ctx, tx, 5, 9)
		require.NoError(t, err)
		assert.Equal(t, model.RoomVacant, status)
		require.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
