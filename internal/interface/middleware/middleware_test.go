package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScripter struct {
	redis.Scripter
	hits map[string]int64
	err  error
}

func (f *fakeScripter) EvalSha(_ context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	if f.err != nil {
		return redis.NewCmdResult(nil, f.err)
	}
	f.hits[keys[0]]++
	return redis.NewCmdResult([]interface{}{f.hits[keys[0]], int64(59_500)}, nil)
}

func engine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/api/users/:id", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("real_ip")+"|"+c.GetString("request_id"))
	})
	return r
}

func get(r http.Handler, remote string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/users/1", nil)
	req.RemoteAddr = remote
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_NilClientPassesThrough(t *testing.T) {
	r := engine(RateLimit(nil, 1, time.Minute, KeyByIPAndPath(), nil))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(r, "192.0.2.1:1000", nil).Code)
	}
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	rdb := &fakeScripter{hits: map[string]int64{}}
	r := engine(RealIP(), RateLimit(rdb, 2, time.Minute, KeyByIPAndPath(), nil))

	w := get(r, "192.0.2.1:1000", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", w.Header().Get("X-RateLimit-Reset"))

	assert.Equal(t, http.StatusOK, get(r, "192.0.2.1:1000", nil).Code)

	w = get(r, "192.0.2.1:1000", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// other clients have their own window
	assert.Equal(t, http.StatusOK, get(r, "192.0.2.2:1000", nil).Code)
	assert.Contains(t, rdb.hits, "rl:path:/api/users/:id:ip:192.0.2.1")
}

func TestRateLimit_FailsOpenOnRedisError(t *testing.T) {
	rdb := &fakeScripter{err: errors.New("dial tcp: connection refused")}
	r := engine(RateLimit(rdb, 1, time.Minute, KeyByIPAndPath(), nil))
	assert.Equal(t, http.StatusOK, get(r, "192.0.2.1:1000", nil).Code)
	assert.Equal(t, http.StatusOK, get(r, "192.0.2.1:1000", nil).Code)
}

func TestRateLimit_AllowBypasses(t *testing.T) {
	rdb := &fakeScripter{hits: map[string]int64{}}
	r := engine(RateLimit(rdb, 1, time.Minute, KeyByIPAndPath(), AllowPrivateIP()))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(r, "10.0.0.8:1000", nil).Code)
	}
	assert.Empty(t, rdb.hits)
}

func TestRealIP(t *testing.T) {
	r := engine(RealIP())

	w := get(r, "192.0.2.1:1000", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"})
	assert.Equal(t, "203.0.113.7|", w.Body.String())

	w = get(r, "192.0.2.1:1000", map[string]string{"CF-Connecting-IP": "198.51.100.3", "X-Forwarded-For": "203.0.113.7"})
	assert.Equal(t, "198.51.100.3|", w.Body.String())

	w = get(r, "192.0.2.1:1000", map[string]string{"X-Forwarded-For": "garbage", "X-Real-IP": "198.51.100.9"})
	assert.Equal(t, "198.51.100.9|", w.Body.String())

	w = get(r, "192.0.2.1:1000", nil)
	assert.Equal(t, "192.0.2.1|", w.Body.String())
}

func TestRequestID(t *testing.T) {
	r := engine(RequestID())

	w := get(r, "192.0.2.1:1000", nil)
	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, "|"+id, w.Body.String())

	inbound := uuid.New().String()
	w = get(r, "192.0.2.1:1000", map[string]string{RequestIDHeader: inbound})
	assert.Equal(t, inbound, w.Header().Get(RequestIDHeader))

	w = get(r, "192.0.2.1:1000", map[string]string{RequestIDHeader: "not-a-uuid"})
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(RequestIDHeader))
}

func TestRequireAllowed(t *testing.T) {
	r := engine(RequireAllowed(AllowPrivateIP()))
	assert.Equal(t, http.StatusOK, get(r, "127.0.0.1:1000", nil).Code)
	assert.Equal(t, http.StatusForbidden, get(r, "192.0.2.1:1000", nil).Code)
}
