package handler

import (
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdatePg(t *testing.T) {
	const body = `{"name":"Sunrise PG","address":"12 MG Road"}`

	t.Run("missing pg is a 404", func(t *testing.T) {
		h, mock, db := newOwnerHandlerWithMock(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT owner_id FROM pgs WHERE id = \? FOR UPDATE`).
			WithArgs(uint64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}))
		mock.ExpectRollback()

		c, rec := ownerContext(t, http.MethodPut, "/v1/pgs/3", body, 2, []string{"id"}, []string{"3"})
		require.NoError(t, h.UpdatePg(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "pg not found")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("someone else's pg is forbidden", func(t *testing.T) {
		h, mock, db := newOwnerHandlerWithMock(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT owner_id FROM pgs WHERE id = \? FOR UPDATE`).
			WithArgs(uint64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(99))
		mock.ExpectRollback()

		c, rec := ownerContext(t, http.MethodPut, "/v1/pgs/3", body, 2, []string{"id"}, []string{"3"})
		require.NoError(t, h.UpdatePg(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "not your pg")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("writing unchanged values still succeeds", func(t *testing.T) {
		// The mysql driver reports rows changed, not rows matched, so a
		// write of identical values affects zero rows and must not be
		// mistaken for a missing pg.
		h, mock, db := newOwnerHandlerWithMock(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT owner_id FROM pgs WHERE id = \? FOR UPDATE`).
			WithArgs(uint64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(2))
		mock.ExpectExec(`UPDATE pgs SET name = \?, address = \?`).
			WithArgs("Sunrise PG", "12 MG Road", uint64(3)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		c, rec := ownerContext(t, http.MethodPut, "/v1/pgs/3", body, 2, []string{"id"}, []string{"3"})
		require.NoError(t, h.UpdatePg(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
