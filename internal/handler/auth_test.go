package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pg-rental-management/internal/config"
	"github.com/iliyamo/pg-rental-management/internal/repository"
	"github.com/iliyamo/pg-rental-management/internal/utils"
)

func newAuthHandlerWithMock(t *testing.T) (*AuthHandler, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	cfg := config.Config{
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     4, // min cost keeps the tests fast
	}
	h := &AuthHandler{Cfg: cfg, Users: repository.NewUserRepo(db), Tokens: repository.NewTokenRepo(db)}
	return h, mock, db
}

func authContext(t *testing.T, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRegister(t *testing.T) {
	t.Run("creates an applicant and returns a token pair", func(t *testing.T) {
		h, mock, db := newAuthHandlerWithMock(t)
		defer db.Close()

		mock.ExpectExec(`INSERT INTO users`).
			WithArgs("asha@example.com", sqlmock.AnyArg(), "APPLICANT").
			WillReturnResult(sqlmock.NewResult(7, 1))
		mock.ExpectExec(`INSERT INTO refresh_tokens`).
			WithArgs(uint64(7), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		c, rec := authContext(t, "/v1/auth/register", `{"email":"Asha@Example.com","password":"secret"}`)
		require.NoError(t, h.Register(c))
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		var user map[string]interface{}
		require.NoError(t, json.Unmarshal(resp["user"], &user))
		assert.Equal(t, "asha@example.com", user["email"])
		assert.Equal(t, "APPLICANT", user["role"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("arbitrary roles collapse to APPLICANT", func(t *testing.T) {
		h, mock, db := newAuthHandlerWithMock(t)
		defer db.Close()

		mock.ExpectExec(`INSERT INTO users`).
			WithArgs("x@example.com", sqlmock.AnyArg(), "APPLICANT").
			WillReturnResult(sqlmock.NewResult(8, 1))
		mock.ExpectExec(`INSERT INTO refresh_tokens`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		c, rec := authContext(t, "/v1/auth/register", `{"email":"x@example.com","password":"secret","role":"ADMIN"}`)
		require.NoError(t, h.Register(c))
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		h, mock, db := newAuthHandlerWithMock(t)
		defer db.Close()

		mock.ExpectExec(`INSERT INTO users`).
			WillReturnError(&mysqlLikeError{msg: "Error 1062: Duplicate entry"})

		c, rec := authContext(t, "/v1/auth/register", `{"email":"asha@example.com","password":"secret"}`)
		require.NoError(t, h.Register(c))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "already exists")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

type mysqlLikeError struct{ msg string }

func (e *mysqlLikeError) Error() string { return e.msg }

func TestLogin(t *testing.T) {
	now := time.Now().UTC()
	hash, err := utils.HashPassword("secret", 4)
	require.NoError(t, err)

	userRow := func(passwordHash string) *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}).
			AddRow(7, "asha@example.com", passwordHash, "APPLICANT", true, now, now)
	}

	t.Run("valid credentials issue a token pair", func(t *testing.T) {
		h, mock, db := newAuthHandlerWithMock(t)
		defer db.Close()

		mock.ExpectQuery(`FROM users WHERE email=\? LIMIT 1`).
			WithArgs("asha@example.com").WillReturnRows(userRow(hash))
		mock.ExpectExec(`INSERT INTO refresh_tokens`).
			WithArgs(uint64(7), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		c, rec := authContext(t, "/v1/auth/login", `{"email":"asha@example.com","password":"secret"}`)
		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "access")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		h, mock, db := newAuthHandlerWithMock(t)
		defer db.Close()

		mock.ExpectQuery(`FROM users WHERE email=\? LIMIT 1`).
			WithArgs("asha@example.com").WillReturnRows(userRow(hash))

		c, rec := authContext(t, "/v1/auth/login", `{"email":"asha@example.com","password":"nope"}`)
		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid credentials")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("credential-less account cannot log in", func(t *testing.T) {
		// Accounts provisioned during onboarding have no password until
		// the temporary one is set; an empty hash must never verify.
		h, mock, db := newAuthHandlerWithMock(t)
		defer db.Close()

		mock.ExpectQuery(`FROM users WHERE email=\? LIMIT 1`).
			WithArgs("asha@example.com").WillReturnRows(userRow(""))

		c, rec := authContext(t, "/v1/auth/login", `{"email":"asha@example.com","password":"anything"}`)
		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown email is unauthorized", func(t *testing.T) {
		h, mock, db := newAuthHandlerWithMock(t)
		defer db.Close()

		mock.ExpectQuery(`FROM users WHERE email=\? LIMIT 1`).
			WithArgs("ghost@example.com").WillReturnError(sql.ErrNoRows)

		c, rec := authContext(t, "/v1/auth/login", `{"email":"ghost@example.com","password":"secret"}`)
		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
