package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/prms-app/prms-server/internal/config"
)

func cachedEcho(t *testing.T) *echo.Echo {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cache := NewResponseCache(config.CacheConfig{
		Enabled: true,
		TTL:     time.Minute,
		Prefix:  "cache",
	}, rdb)

	e := echo.New()
	e.GET("/v1/projects/:id", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id")})
	}, cache)
	e.GET("/v1/projects", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"filter": c.QueryParam("status")})
	}, cache)
	return e
}

func getPath(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestResponseCache(t *testing.T) {
	t.Run("detail routes get distinct entries per id", func(t *testing.T) {
		e := cachedEcho(t)

		first := getPath(e, "/v1/projects/1")
		require.Equal(t, http.StatusOK, first.Code)

		second := getPath(e, "/v1/projects/2")
		require.Equal(t, http.StatusOK, second.Code)
		require.NotEqual(t, first.Body.String(), second.Body.String())
		require.Contains(t, second.Body.String(), `"2"`)
	})

	t.Run("repeated request is served from cache", func(t *testing.T) {
		e := cachedEcho(t)

		first := getPath(e, "/v1/projects/7")
		require.Empty(t, first.Header().Get("X-Cache"))

		again := getPath(e, "/v1/projects/7")
		require.Equal(t, "HIT", again.Header().Get("X-Cache"))
		require.JSONEq(t, first.Body.String(), again.Body.String())
	})

	t.Run("query string is part of the key", func(t *testing.T) {
		e := cachedEcho(t)

		active := getPath(e, "/v1/projects?status=ACTIVE")
		done := getPath(e, "/v1/projects?status=COMPLETED")
		require.NotEqual(t, active.Body.String(), done.Body.String())
	})

	t.Run("nil client is a passthrough", func(t *testing.T) {
		mw := NewResponseCache(config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "cache"}, nil)
		e := echo.New()
		e.GET("/v1/projects/:id", func(c echo.Context) error {
			return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id")})
		}, mw)

		rec := getPath(e, "/v1/projects/3")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, rec.Header().Get("X-Cache"))
	})
}
