package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pg-rental-management/internal/utils"
)

func runChain(t *testing.T, mw []echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	require.NoError(t, h(c))
	return rec, c
}

func TestJWTAuth(t *testing.T) {
	const secret = "test-secret"

	t.Run("valid token populates user_id and role", func(t *testing.T) {
		at, err := utils.NewAccessToken(secret, 42, "OWNER", 15)
		require.NoError(t, err)

		rec, c := runChain(t, []echo.MiddlewareFunc{JWTAuth(secret)}, "Bearer "+at.Token)
		assert.Equal(t, http.StatusOK, rec.Code)
		// MapClaims decode numbers as float64.
		assert.Equal(t, float64(42), c.Get("user_id"))
		assert.Equal(t, "OWNER", c.Get("role"))
	})

	t.Run("missing header is unauthorized", func(t *testing.T) {
		rec, _ := runChain(t, []echo.MiddlewareFunc{JWTAuth(secret)}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with another secret is rejected", func(t *testing.T) {
		at, err := utils.NewAccessToken("other-secret", 42, "OWNER", 15)
		require.NoError(t, err)

		rec, _ := runChain(t, []echo.MiddlewareFunc{JWTAuth(secret)}, "Bearer "+at.Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		at, err := utils.NewAccessToken(secret, 42, "OWNER", -1)
		require.NoError(t, err)

		rec, _ := runChain(t, []echo.MiddlewareFunc{JWTAuth(secret)}, "Bearer "+at.Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	const secret = "test-secret"

	t.Run("allowed role passes", func(t *testing.T) {
		at, err := utils.NewAccessToken(secret, 1, "OWNER", 15)
		require.NoError(t, err)

		rec, _ := runChain(t, []echo.MiddlewareFunc{JWTAuth(secret), RequireRole("OWNER", "ADMIN")}, "Bearer "+at.Token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("other role is forbidden", func(t *testing.T) {
		at, err := utils.NewAccessToken(secret, 1, "APPLICANT", 15)
		require.NoError(t, err)

		rec, _ := runChain(t, []echo.MiddlewareFunc{JWTAuth(secret), RequireRole("OWNER", "ADMIN")}, "Bearer "+at.Token)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
