package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pg-rental-management/internal/config"
)

func TestCapturePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}, "X-Total": {"3"}}
	body := []byte(`{"rooms":[1,2,3]}`)

	payload, err := encodePayload(http.StatusOK, hdr, body)
	require.NoError(t, err)

	status, gotHdr, gotBody, ok := decodePayload(payload)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, body, gotBody)
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	for _, bs := range [][]byte{nil, []byte("short"), []byte("\x00\x00\x00\xc8\xff\xff\xff\xff")} {
		_, _, _, ok := decodePayload(bs)
		assert.False(t, ok)
	}
}

func TestCaptureWriterStopsBufferingPastLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 10}

	n, err := cw.Write([]byte("0123456789abcdef"))
	require.NoError(t, err)

	// The client still receives everything; only the buffer is capped,
	// and size records the true response length so the store step can
	// tell the entry was truncated.
	assert.Equal(t, 16, n)
	assert.Equal(t, "0123456789abcdef", rec.Body.String())
	assert.Equal(t, int64(16), cw.size)
	assert.Equal(t, "0123456789", cw.buf.String())
}

func TestCacheKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/pgs?city=pune", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/pgs")

	base := config.CacheConfig{Prefix: "cache"}

	withQuery := base
	withQuery.KeyStrategy = "route_query"
	routeOnly := base
	routeOnly.KeyStrategy = "route"

	k1 := cacheKeyFrom(withQuery, c)
	k2 := cacheKeyFrom(routeOnly, c)
	assert.NotEqual(t, k1, k2)

	// Same strategy and request always hash to the same key.
	assert.Equal(t, k1, cacheKeyFrom(withQuery, c))
	for _, k := range []string{k1, k2} {
		assert.Contains(t, k, "cache:")
	}
}
