package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingMiddlewareRecordsRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	svc := NewActivityLogService(db, nil)
	svc.async = false

	r := gin.New()
	r.Use(svc.LoggingMiddleware())
	r.POST("/public/proposal/:token/comment", func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	r.POST("/api/v1/clients", func(c *gin.Context) {
		c.Set(ownerKey, owner)
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/public/proposal/secret-token/comment", strings.NewReader(`{"content":"hi"}`)))
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/clients", strings.NewReader(`{"name":"Ada"}`)))
	require.Equal(t, http.StatusCreated, w.Code)

	logs, total, err := svc.GetAllLogs("", 0, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, "/public/proposal/:token/comment", logs[0].Path)
	assert.Empty(t, logs[0].RequestBody)
	assert.NotContains(t, logs[0].QueryParams, "secret-token")

	logs, total, err = svc.GetLogsByMethod(owner, "post", 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, `{"name":"Ada"}`, logs[0].RequestBody)

	_, total, err = svc.GetLogsByPath(owner, "clients", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	stats, err := svc.Stats(owner)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalRequests)
	assert.EqualValues(t, 1, stats.Methods["POST"])
	assert.EqualValues(t, 1, stats.StatusCodes[http.StatusCreated])
}
